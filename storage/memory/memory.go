// Package memory provides an in-process Store backed by maps. It is the
// default store for tests and single-session CLI use; every call works on
// deep copies so callers can never alias stored state.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/zhanghe-dev/accountant/entity"
	"github.com/zhanghe-dev/accountant/query"
	"github.com/zhanghe-dev/accountant/storage"
	"github.com/zhanghe-dev/accountant/subtotal"
)

// Store is an in-memory storage.Store. The zero value is not usable; use
// New. Individual calls are serialized with a mutex; concurrent writers to
// the same entity follow last-write-wins.
type Store struct {
	mu         sync.RWMutex
	vouchers   map[string]*entity.Voucher
	assets     map[string]*entity.Asset
	amortizeds map[string]*entity.Amortized
}

// New creates an empty store.
func New() *Store {
	return &Store{
		vouchers:   make(map[string]*entity.Voucher),
		assets:     make(map[string]*entity.Asset),
		amortizeds: make(map[string]*entity.Amortized),
	}
}

var _ storage.Store = (*Store)(nil)
var _ storage.Grouper = (*Store)(nil)

// SelectVoucher returns the voucher with the given ID, or nil when absent.
func (s *Store) SelectVoucher(_ context.Context, id string) (*entity.Voucher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vouchers[id]
	if !ok {
		return nil, nil
	}
	return v.Clone(), nil
}

// SelectVouchers returns every voucher matching the query, sorted by date
// (undated first) and then ID for deterministic iteration.
func (s *Store) SelectVouchers(_ context.Context, q query.Query[query.VoucherAtom]) ([]*entity.Voucher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Voucher
	for _, v := range s.vouchers {
		if query.VoucherMatches(v, q) {
			out = append(out, v.Clone())
		}
	}
	sortVouchers(out)
	return out, nil
}

// UpsertVoucher stores the voucher, assigning a fresh UUID when it has no
// ID yet, and reports whether a new voucher was created.
func (s *Store) UpsertVoucher(_ context.Context, v *entity.Voucher) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := v.ID == ""
	if created {
		v.ID = uuid.NewString()
	} else if _, ok := s.vouchers[v.ID]; !ok {
		created = true
	}
	s.vouchers[v.ID] = v.Clone()
	return created, nil
}

// DeleteVoucher removes a voucher by ID and reports whether it existed.
func (s *Store) DeleteVoucher(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vouchers[id]; !ok {
		return false, nil
	}
	delete(s.vouchers, id)
	return true, nil
}

// DeleteVouchers removes every voucher matching the query and returns the
// count removed.
func (s *Store) DeleteVouchers(_ context.Context, q query.Query[query.VoucherAtom]) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for id, v := range s.vouchers {
		if query.VoucherMatches(v, q) {
			delete(s.vouchers, id)
			count++
		}
	}
	return count, nil
}

// SelectAsset returns an asset by ID, or nil when absent.
func (s *Store) SelectAsset(_ context.Context, id string) (*entity.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assets[id]
	if !ok {
		return nil, nil
	}
	return cloneAsset(a), nil
}

// SelectAssets returns every asset matching the query.
func (s *Store) SelectAssets(_ context.Context, q query.Query[query.DistributedAtom]) ([]*entity.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Asset
	for _, a := range s.assets {
		if query.DistributedMatches(a, q) {
			out = append(out, cloneAsset(a))
		}
	}
	sortDistributed(out, func(a *entity.Asset) (string, *entity.Date) { return a.ID, a.Date })
	return out, nil
}

// UpsertAsset stores an asset, assigning a fresh UUID when absent.
func (s *Store) UpsertAsset(_ context.Context, a *entity.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.assets[a.ID] = cloneAsset(a)
	return nil
}

// DeleteAsset removes an asset by ID and reports whether it existed.
func (s *Store) DeleteAsset(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[id]; !ok {
		return false, nil
	}
	delete(s.assets, id)
	return true, nil
}

// SelectAmortized returns an amortization by ID, or nil when absent.
func (s *Store) SelectAmortized(_ context.Context, id string) (*entity.Amortized, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.amortizeds[id]
	if !ok {
		return nil, nil
	}
	return cloneAmortized(a), nil
}

// SelectAmortizeds returns every amortization matching the query.
func (s *Store) SelectAmortizeds(_ context.Context, q query.Query[query.DistributedAtom]) ([]*entity.Amortized, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Amortized
	for _, a := range s.amortizeds {
		if query.DistributedMatches(a, q) {
			out = append(out, cloneAmortized(a))
		}
	}
	sortDistributed(out, func(a *entity.Amortized) (string, *entity.Date) { return a.ID, a.Date })
	return out, nil
}

// UpsertAmortized stores an amortization, assigning a fresh UUID when
// absent.
func (s *Store) UpsertAmortized(_ context.Context, a *entity.Amortized) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.amortizeds[a.ID] = cloneAmortized(a)
	return nil
}

// DeleteAmortized removes an amortization by ID and reports whether it
// existed.
func (s *Store) DeleteAmortized(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.amortizeds[id]; !ok {
		return false, nil
	}
	delete(s.amortizeds, id)
	return true, nil
}

// SelectVoucherDetailsGrouped runs the subtotal in-process: it flattens the
// matching (voucher, detail) pairs into balance rows and builds the tree.
// For an in-memory store this is the pushdown.
func (s *Store) SelectVoucherDetailsGrouped(ctx context.Context, gq storage.GroupedQuery) (*subtotal.Node, error) {
	vouchers, err := s.SelectVouchers(ctx, gq.Vouchers)
	if err != nil {
		return nil, err
	}
	var rows []*entity.Balance
	for _, v := range vouchers {
		for _, d := range v.Details {
			if query.DetailMatches(d, gq.Details) {
				rows = append(rows, entity.BalanceOf(v, d))
			}
		}
	}
	return subtotal.Build(rows, gq.Subtotal)
}
