package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/zhanghe-dev/accountant/entity"
	"github.com/zhanghe-dev/accountant/query"
	"github.com/zhanghe-dev/accountant/storage"
	"github.com/zhanghe-dev/accountant/subtotal"
)

func writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// BalancesResponse is the JSON response structure for the balances endpoint.
type BalancesResponse struct {
	Root      *BalanceNodeResponse `json:"root"`
	StartDate *string              `json:"startDate,omitempty"`
	EndDate   *string              `json:"endDate,omitempty"`
}

// BalanceNodeResponse represents a node in the subtotal tree for JSON
// serialization. The dimension fields mirror entity.Balance; only the one
// the node groups by is set.
type BalanceNodeResponse struct {
	Title    *int                   `json:"title,omitempty"`
	SubTitle *int                   `json:"subTitle,omitempty"`
	Content  *string                `json:"content,omitempty"`
	Remark   *string                `json:"remark,omitempty"`
	Currency *string                `json:"currency,omitempty"`
	User     *string                `json:"user,omitempty"`
	Date     *entity.Date           `json:"date,omitempty"`
	Fund     float64                `json:"fund"`
	Items    []*BalanceNodeResponse `json:"items,omitempty"`
}

// handleGetBalances handles GET requests to /api/balances.
//
// Query parameters:
//   - levels: Comma-separated grouping levels (title, subtitle, content,
//     remark, currency, user, day, week, month, year). Defaults to title.
//   - aggregation: none, changed-day, or every-day.
//   - gather: all, non-zero, or count.
//   - title: Restrict rows to one account title.
//   - startDate / endDate: Range bounds in YYYY-MM-DD format.
//
// Examples:
//   - GET /api/balances - Totals per title over the whole book
//   - GET /api/balances?levels=title,month&startDate=2024-01-01&endDate=2024-12-31
//   - GET /api/balances?title=1001&aggregation=every-day - Daily running balance
func (s *Server) handleGetBalances(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	levels, err := parseLevels(r.URL.Query().Get("levels"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	aggregation, err := parseAggregation(r.URL.Query().Get("aggregation"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	gather, err := parseGather(r.URL.Query().Get("gather"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rng, err := parseRange(r.URL.Query().Get("startDate"), r.URL.Query().Get("endDate"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	gq := storage.GroupedQuery{
		Vouchers: query.Atom(&query.VoucherAtom{Range: rng}),
		Subtotal: &subtotal.Spec{
			Levels:      levels,
			Aggregation: aggregation,
			Gather:      gather,
			Range:       rng,
		},
	}
	if titleParam := r.URL.Query().Get("title"); titleParam != "" {
		title, err := strconv.Atoi(titleParam)
		if err != nil {
			http.Error(w, "invalid title: "+titleParam, http.StatusBadRequest)
			return
		}
		gq.Details = query.Atom(&query.DetailAtom{Title: entity.IntPtr(title)})
	}

	root, err := s.session.Subtotal(r.Context(), gq)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	response := &BalancesResponse{Root: convertNode(root)}
	if rng != nil {
		if rng.Start != nil {
			start := rng.Start.String()
			response.StartDate = &start
		}
		if rng.End != nil {
			end := rng.End.String()
			response.EndDate = &end
		}
	}
	writeJSONResponse(w, response)
}

// convertNode recursively converts a subtotal.Node to a BalanceNodeResponse.
func convertNode(node *subtotal.Node) *BalanceNodeResponse {
	var items []*BalanceNodeResponse
	if len(node.Items) > 0 {
		items = make([]*BalanceNodeResponse, len(node.Items))
		for i, item := range node.Items {
			items[i] = convertNode(item)
		}
	}

	return &BalanceNodeResponse{
		Title:    node.Title,
		SubTitle: node.SubTitle,
		Content:  node.Content,
		Remark:   node.Remark,
		Currency: node.Currency,
		User:     node.User,
		Date:     node.Date,
		Fund:     node.Fund,
		Items:    items,
	}
}

func parseLevels(s string) ([]subtotal.Level, error) {
	if s == "" {
		return []subtotal.Level{subtotal.LevelTitle}, nil
	}
	var levels []subtotal.Level
	for _, name := range strings.Split(s, ",") {
		switch strings.TrimSpace(name) {
		case "title":
			levels = append(levels, subtotal.LevelTitle)
		case "subtitle":
			levels = append(levels, subtotal.LevelSubTitle)
		case "content":
			levels = append(levels, subtotal.LevelContent)
		case "remark":
			levels = append(levels, subtotal.LevelRemark)
		case "currency":
			levels = append(levels, subtotal.LevelCurrency)
		case "user":
			levels = append(levels, subtotal.LevelUser)
		case "day":
			levels = append(levels, subtotal.LevelDay)
		case "week":
			levels = append(levels, subtotal.LevelWeek)
		case "month":
			levels = append(levels, subtotal.LevelMonth)
		case "year":
			levels = append(levels, subtotal.LevelYear)
		case "":
		default:
			return nil, fmt.Errorf("unknown level %q", name)
		}
	}
	return levels, nil
}

func parseAggregation(s string) (subtotal.Aggregation, error) {
	switch s {
	case "", "none":
		return subtotal.AggregateNone, nil
	case "changed-day":
		return subtotal.AggregateChangedDay, nil
	case "every-day":
		return subtotal.AggregateEveryDay, nil
	}
	return subtotal.AggregateNone, fmt.Errorf("unknown aggregation %q", s)
}

func parseGather(s string) (subtotal.Gather, error) {
	switch s {
	case "", "all":
		return subtotal.GatherAll, nil
	case "non-zero":
		return subtotal.GatherNonZero, nil
	case "count":
		return subtotal.GatherCount, nil
	}
	return subtotal.GatherAll, fmt.Errorf("unknown gather %q", s)
}

func parseRange(start, end string) (*entity.DateRange, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	var from, to *entity.Date
	if start != "" {
		d, err := entity.NewDate(start)
		if err != nil {
			return nil, fmt.Errorf("invalid startDate format (expected YYYY-MM-DD): %s", start)
		}
		from = d
	}
	if end != "" {
		d, err := entity.NewDate(end)
		if err != nil {
			return nil, fmt.Errorf("invalid endDate format (expected YYYY-MM-DD): %s", end)
		}
		to = d
	}
	return entity.RangeBetween(from, to, true), nil
}
