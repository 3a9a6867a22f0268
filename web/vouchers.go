package web

import (
	"net/http"

	"github.com/zhanghe-dev/accountant/entity"
	"github.com/zhanghe-dev/accountant/query"
)

// VouchersResponse is the JSON response structure for the vouchers endpoint.
type VouchersResponse struct {
	Vouchers []*entity.Voucher `json:"vouchers"`
}

// handleGetVouchers handles GET requests to /api/vouchers.
//
// Query parameters:
//   - type: Restrict to one voucher type. The General pseudo-type matches
//     everything except carry entries.
//   - startDate / endDate: Range bounds in YYYY-MM-DD format.
func (s *Server) handleGetVouchers(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rng, err := parseRange(r.URL.Query().Get("startDate"), r.URL.Query().Get("endDate"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	atom := &query.VoucherAtom{Range: rng}
	if typeParam := r.URL.Query().Get("type"); typeParam != "" {
		t := entity.VoucherType(typeParam)
		atom.Type = &t
	}

	vouchers, err := s.session.SelectVouchers(r.Context(), query.Atom(atom))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, &VouchersResponse{Vouchers: vouchers})
}

// handleGetVoucher handles GET requests to /api/vouchers/{id}.
func (s *Server) handleGetVoucher(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id := r.PathValue("id")
	v, err := s.session.Store().SelectVoucher(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if v == nil {
		http.Error(w, "voucher not found: "+id, http.StatusNotFound)
		return
	}
	writeJSONResponse(w, v)
}
