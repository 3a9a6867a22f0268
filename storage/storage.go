// Package storage defines the persistence contract the engine runs against,
// plus the in-process implementations shipped with it.
//
// The engine treats a Store as an external collaborator with atomic
// request/response semantics. Concurrency is last-write-wins: a store
// serializes individual calls, but callers that need consistent multi-call
// reconciliation over one entity must serialize access per entity ID
// themselves.
package storage

import (
	"context"

	"github.com/zhanghe-dev/accountant/entity"
	"github.com/zhanghe-dev/accountant/query"
	"github.com/zhanghe-dev/accountant/subtotal"
)

// GroupedQuery describes one server-side subtotal request: which vouchers
// participate, which detail legs of them are flattened into rows, and how
// the rows are grouped.
type GroupedQuery struct {
	Vouchers query.Query[query.VoucherAtom]
	Details  query.Query[query.DetailAtom]
	Subtotal *subtotal.Spec
}

// Store is the persistence boundary. Lookup methods return (nil, nil) when
// the entity does not exist; errors are reserved for I/O failures.
type Store interface {
	VoucherStore

	SelectAsset(ctx context.Context, id string) (*entity.Asset, error)
	SelectAssets(ctx context.Context, q query.Query[query.DistributedAtom]) ([]*entity.Asset, error)
	UpsertAsset(ctx context.Context, a *entity.Asset) error
	DeleteAsset(ctx context.Context, id string) (bool, error)

	SelectAmortized(ctx context.Context, id string) (*entity.Amortized, error)
	SelectAmortizeds(ctx context.Context, q query.Query[query.DistributedAtom]) ([]*entity.Amortized, error)
	UpsertAmortized(ctx context.Context, a *entity.Amortized) error
	DeleteAmortized(ctx context.Context, id string) (bool, error)
}

// VoucherStore is the narrow voucher-only contract the distributed
// accountant reconciles against.
type VoucherStore interface {
	SelectVoucher(ctx context.Context, id string) (*entity.Voucher, error)
	SelectVouchers(ctx context.Context, q query.Query[query.VoucherAtom]) ([]*entity.Voucher, error)
	// UpsertVoucher persists the voucher, assigning an ID when absent, and
	// reports whether a new voucher was created. Canonicalization is the
	// caller's responsibility; the store persists what it is given.
	UpsertVoucher(ctx context.Context, v *entity.Voucher) (bool, error)
	DeleteVoucher(ctx context.Context, id string) (bool, error)
	DeleteVouchers(ctx context.Context, q query.Query[query.VoucherAtom]) (int, error)
}

// Grouper is implemented by stores that can run subtotal aggregation
// themselves, for example by pushing it down to a database pipeline. The
// result must be semantically equivalent to flattening the matched rows and
// running subtotal.Build over them; callers fall back to exactly that when
// the store does not implement Grouper.
type Grouper interface {
	SelectVoucherDetailsGrouped(ctx context.Context, gq GroupedQuery) (*subtotal.Node, error)
}
