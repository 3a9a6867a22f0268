// Package session is the facade the shell and web layers drive the engine
// through. A session binds a storage.Store and exposes canonicalizing
// voucher upserts, query execution, subtotal runs, and the distributed
// accountant's reconciliation entry points.
//
// A session holds no state of its own beyond the store handle; it is safe
// for concurrent read-only use. Mutating the same entity from several
// goroutines follows the store's last-write-wins semantics, so callers that
// need stronger guarantees must serialize per entity ID.
package session

import (
	"context"
	"fmt"

	"github.com/zhanghe-dev/accountant/distributed"
	"github.com/zhanghe-dev/accountant/entity"
	"github.com/zhanghe-dev/accountant/query"
	"github.com/zhanghe-dev/accountant/storage"
	"github.com/zhanghe-dev/accountant/subtotal"
	"github.com/zhanghe-dev/accountant/telemetry"
)

// Session orchestrates the engine against one store.
type Session struct {
	store      storage.Store
	accountant *distributed.Accountant
}

// New creates a session over a store.
func New(store storage.Store) *Session {
	return &Session{
		store:      store,
		accountant: distributed.NewAccountant(store),
	}
}

// Store exposes the underlying store for pass-through CRUD.
func (s *Session) Store() storage.Store { return s.store }

// ReconcileErrors collects the per-entity failures of a batch operation so
// that one invocation surfaces every problem at once.
type ReconcileErrors struct {
	Errors []error
}

func (e *ReconcileErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d reconciliation errors occurred", len(e.Errors))
}

// Unwrap returns the underlying errors for error unwrapping.
func (e *ReconcileErrors) Unwrap() []error { return e.Errors }

// Upsert balances, canonicalizes and persists a voucher. The single detail
// without a fund, if any, becomes the balancing plug; an unbalanced voucher
// after plug resolution is rejected. Reports whether a new voucher was
// created.
func (s *Session) Upsert(ctx context.Context, v *entity.Voucher) (bool, error) {
	timer := telemetry.FromContext(ctx).Start("session.upsert")
	defer timer.End()

	if len(v.Details) == 0 {
		return false, fmt.Errorf("voucher has no details")
	}
	if err := v.ResolvePlug(); err != nil {
		return false, err
	}
	v.Canonicalize()
	if !v.IsBalanced() {
		return false, fmt.Errorf("voucher does not balance")
	}
	return s.store.UpsertVoucher(ctx, v)
}

// SelectVouchers runs a voucher query.
func (s *Session) SelectVouchers(ctx context.Context, q query.Query[query.VoucherAtom]) ([]*entity.Voucher, error) {
	timer := telemetry.FromContext(ctx).Start("session.select_vouchers")
	defer timer.End()
	return s.store.SelectVouchers(ctx, q)
}

// Rows flattens every matching (voucher, detail) pair into balance rows,
// the input shape the subtotal builder consumes.
func (s *Session) Rows(ctx context.Context, vq query.Query[query.VoucherAtom], dq query.Query[query.DetailAtom]) ([]*entity.Balance, error) {
	vouchers, err := s.store.SelectVouchers(ctx, vq)
	if err != nil {
		return nil, err
	}
	var rows []*entity.Balance
	for _, v := range vouchers {
		for _, d := range v.Details {
			if query.DetailMatches(d, dq) {
				rows = append(rows, entity.BalanceOf(v, d))
			}
		}
	}
	return rows, nil
}

// Subtotal runs a grouped query. Stores that aggregate server-side are
// used directly; otherwise the rows are flattened here and fed through the
// subtotal builder, which is semantically equivalent.
func (s *Session) Subtotal(ctx context.Context, gq storage.GroupedQuery) (*subtotal.Node, error) {
	timer := telemetry.FromContext(ctx).Start("session.subtotal")
	defer timer.End()

	if g, ok := s.store.(storage.Grouper); ok {
		return g.SelectVoucherDetailsGrouped(ctx, gq)
	}
	rows, err := s.Rows(ctx, gq.Vouchers, gq.Details)
	if err != nil {
		return nil, err
	}
	return subtotal.Build(rows, gq.Subtotal)
}

// Amortize regenerates an amortization's schedule and persists it.
func (s *Session) Amortize(ctx context.Context, a *entity.Amortized) error {
	if err := distributed.Amortize(a); err != nil {
		return err
	}
	return s.store.UpsertAmortized(ctx, a)
}

// Depreciate regenerates an asset's depreciation schedule and persists it.
func (s *Session) Depreciate(ctx context.Context, a *entity.Asset) error {
	if err := distributed.Depreciate(a); err != nil {
		return err
	}
	return s.store.UpsertAsset(ctx, a)
}

// RegisterAmortized regularizes, binds stored vouchers to schedule items,
// persists the entity, and returns the vouchers needing manual review.
func (s *Session) RegisterAmortized(ctx context.Context, a *entity.Amortized, rng *entity.DateRange, q query.Query[query.VoucherAtom]) ([]*entity.Voucher, error) {
	timer := telemetry.FromContext(ctx).Start("session.register_amortized")
	defer timer.End()

	distributed.RegularizeAmortized(a)
	remaining, err := s.accountant.RegisterAmortized(ctx, a, rng, q)
	if err != nil {
		return nil, err
	}
	return remaining, s.store.UpsertAmortized(ctx, a)
}

// RegisterAsset is RegisterAmortized's asset counterpart.
func (s *Session) RegisterAsset(ctx context.Context, a *entity.Asset, rng *entity.DateRange, q query.Query[query.VoucherAtom]) ([]*entity.Voucher, error) {
	timer := telemetry.FromContext(ctx).Start("session.register_asset")
	defer timer.End()

	if err := distributed.RegularizeAsset(a); err != nil {
		return nil, err
	}
	remaining, err := s.accountant.RegisterAsset(ctx, a, rng, q)
	if err != nil {
		return nil, err
	}
	return remaining, s.store.UpsertAsset(ctx, a)
}

// UpdateAmortized regularizes, reconciles schedule items against stored
// vouchers, persists the entity, and returns the items that could not be
// auto-reconciled.
func (s *Session) UpdateAmortized(ctx context.Context, a *entity.Amortized, rng *entity.DateRange, collapsed, editOnly bool) ([]*entity.AmortItem, error) {
	timer := telemetry.FromContext(ctx).Start("session.update_amortized")
	defer timer.End()

	distributed.RegularizeAmortized(a)
	failed, err := s.accountant.UpdateAmortized(ctx, a, rng, collapsed, editOnly)
	if err != nil {
		return nil, err
	}
	return failed, s.store.UpsertAmortized(ctx, a)
}

// UpdateAsset is UpdateAmortized's asset counterpart.
func (s *Session) UpdateAsset(ctx context.Context, a *entity.Asset, rng *entity.DateRange, collapsed, editOnly bool) ([]entity.AssetItem, error) {
	timer := telemetry.FromContext(ctx).Start("session.update_asset")
	defer timer.End()

	if err := distributed.RegularizeAsset(a); err != nil {
		return nil, err
	}
	failed, err := s.accountant.UpdateAsset(ctx, a, rng, collapsed, editOnly)
	if err != nil {
		return nil, err
	}
	return failed, s.store.UpsertAsset(ctx, a)
}

// UpdateAssets reconciles every asset matching the query, collecting
// per-entity errors instead of stopping at the first, and returns all
// items needing manual review.
func (s *Session) UpdateAssets(ctx context.Context, q query.Query[query.DistributedAtom], rng *entity.DateRange, collapsed, editOnly bool) ([]entity.AssetItem, error) {
	assets, err := s.store.SelectAssets(ctx, q)
	if err != nil {
		return nil, err
	}
	var failed []entity.AssetItem
	var errs []error
	for _, a := range assets {
		items, err := s.UpdateAsset(ctx, a, rng, collapsed, editOnly)
		if err != nil {
			errs = append(errs, fmt.Errorf("asset %q: %w", a.Name, err))
			continue
		}
		failed = append(failed, items...)
	}
	if len(errs) > 0 {
		return failed, &ReconcileErrors{Errors: errs}
	}
	return failed, nil
}

// UpdateAmortizeds reconciles every amortization matching the query,
// collecting per-entity errors instead of stopping at the first.
func (s *Session) UpdateAmortizeds(ctx context.Context, q query.Query[query.DistributedAtom], rng *entity.DateRange, collapsed, editOnly bool) ([]*entity.AmortItem, error) {
	amorts, err := s.store.SelectAmortizeds(ctx, q)
	if err != nil {
		return nil, err
	}
	var failed []*entity.AmortItem
	var errs []error
	for _, a := range amorts {
		items, err := s.UpdateAmortized(ctx, a, rng, collapsed, editOnly)
		if err != nil {
			errs = append(errs, fmt.Errorf("amortization %q: %w", a.Name, err))
			continue
		}
		failed = append(failed, items...)
	}
	if len(errs) > 0 {
		return failed, &ReconcileErrors{Errors: errs}
	}
	return failed, nil
}

// ResetAmortized severs schedule links, persists the entity, and returns
// the number of links cleared.
func (s *Session) ResetAmortized(ctx context.Context, a *entity.Amortized, rng *entity.DateRange, mode distributed.ResetMode) (int, error) {
	cleared, err := s.accountant.ResetAmortized(ctx, a, rng, mode)
	if err != nil {
		return cleared, err
	}
	return cleared, s.store.UpsertAmortized(ctx, a)
}

// ResetAsset severs asset schedule links, persists the entity, and returns
// the number of links cleared.
func (s *Session) ResetAsset(ctx context.Context, a *entity.Asset, rng *entity.DateRange, mode distributed.ResetMode) (int, error) {
	cleared, err := s.accountant.ResetAsset(ctx, a, rng, mode)
	if err != nil {
		return cleared, err
	}
	return cleared, s.store.UpsertAsset(ctx, a)
}
