// Package distributed implements the distributed accountant: schedule
// generation and voucher reconciliation for assets (depreciation) and
// amortized expenses.
//
// The computation entry points (Amortize, Depreciate, RegularizeAsset,
// RegularizeAmortized) are pure functions over the entity; everything that
// touches stored vouchers goes through an Accountant bound to a voucher
// store. Reconciliation runs in a fixed order (regularize, register, then
// update) because each step's output is the next step's input.
//
// Reconciliation is deliberately conservative: whenever zero or more than
// one candidate binding exists, the voucher or schedule item is returned to
// the caller for manual resolution instead of being guessed at.
package distributed

import (
	"github.com/zhanghe-dev/accountant/storage"
)

// ResetMode selects how aggressively Reset severs schedule items from
// stored vouchers.
type ResetMode int

const (
	// ResetSoft clears links to vouchers that no longer exist.
	ResetSoft ResetMode = iota
	// ResetMixed clears links to missing vouchers and deletes the linked
	// vouchers that do exist.
	ResetMixed
	// ResetHard additionally deletes every generated voucher matching the
	// asset's accounts, linked or not. Asset-only.
	ResetHard
)

// Accountant reconciles distributed schedules against stored vouchers.
type Accountant struct {
	store storage.VoucherStore
}

// NewAccountant binds an accountant to a voucher store.
func NewAccountant(store storage.VoucherStore) *Accountant {
	return &Accountant{store: store}
}
