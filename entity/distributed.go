package entity

// DispositionClearingTitle is the default clearing account a disposition
// voucher books the net book value against.
const DispositionClearingTitle = 1606

// DepreciationMethod selects how an asset's book value is written off over
// its life.
type DepreciationMethod string

const (
	// NoDepreciation leaves the schedule entirely manual.
	NoDepreciation DepreciationMethod = "None"
	// StraightLine writes off equal monthly installments.
	StraightLine DepreciationMethod = "StraightLine"
	// SumOfTheYears writes off declining yearly fractions (n-year+1)/Σ1..n,
	// pro-rated for partial first and last years.
	SumOfTheYears DepreciationMethod = "SumOfTheYears"
	// DoubleDecliningBalance is recognized but not implemented; requesting
	// it is a configuration error.
	DoubleDecliningBalance DepreciationMethod = "DoubleDecliningBalance"
)

// AmortInterval selects how amortization dates walk forward from the start
// date.
type AmortInterval string

const (
	EveryDay       AmortInterval = "EveryDay"
	SameDayOfWeek  AmortInterval = "SameDayOfWeek"
	LastDayOfWeek  AmortInterval = "LastDayOfWeek"
	SameDayOfMonth AmortInterval = "SameDayOfMonth"
	LastDayOfMonth AmortInterval = "LastDayOfMonth"
	SameDayOfYear  AmortInterval = "SameDayOfYear"
	LastDayOfYear  AmortInterval = "LastDayOfYear"
)

// Distributed is the common view over assets and amortizations: a value
// recognized over time through a schedule of periodic journal effects.
type Distributed interface {
	// Ident returns the entity's UUID, empty until persisted.
	Ident() string
	// DisplayName returns the entity's human-facing name.
	DisplayName() string
	// RemarkOf returns the entity-level remark, used among other things to
	// carry the ignorance mark.
	RemarkOf() string
	// DateOf returns the entity's inception date.
	DateOf() *Date
	// UserOf returns the owning user.
	UserOf() string
}

// ScheduleItemBase carries the fields shared by every schedule item: the
// item's date, the voucher it is registered against (empty means "not yet
// registered"), the running book value after this item takes effect, and an
// optional remark.
type ScheduleItemBase struct {
	Date      *Date   `json:"date,omitempty"`
	VoucherID string  `json:"voucherId,omitempty"`
	Value     float64 `json:"value"`
	Remark    string  `json:"remark,omitempty"`
}

// Base returns the shared fields; every schedule item embeds and exposes it.
func (b *ScheduleItemBase) Base() *ScheduleItemBase { return b }

// Ignored reports whether the item opts out of automatic reconciliation.
func (b *ScheduleItemBase) Ignored() bool { return b.Remark == IgnoranceMark }

// AssetItem is the closed set of schedule item variants an asset can carry.
// The marker method seals the set so every consumer can type-switch
// exhaustively over the four concrete kinds.
type AssetItem interface {
	Base() *ScheduleItemBase
	assetItem()
}

// AcquisitionItem sets (or raises) the asset's base book value.
type AcquisitionItem struct {
	ScheduleItemBase
	OrigValue float64 `json:"origValue"`
}

// DepreciateItem writes a periodic depreciation amount off the book value.
type DepreciateItem struct {
	ScheduleItemBase
	Amount float64 `json:"amount"`
}

// DevalueItem recognizes an impairment down to a fair value. Amount is the
// derived write-down; a moot devaluation (book value already at or below
// FairValue) prunes itself during regularization unless manually pinned.
type DevalueItem struct {
	ScheduleItemBase
	FairValue float64 `json:"fairValue"`
	Amount    float64 `json:"amount"`
}

// DispositionItem zeroes the book value and triggers the four-legged
// disposal voucher.
type DispositionItem struct {
	ScheduleItemBase
}

func (*AcquisitionItem) assetItem() {}
func (*DepreciateItem) assetItem()  {}
func (*DevalueItem) assetItem()     {}
func (*DispositionItem) assetItem() {}

// Asset is a fixed asset depreciated over Life years via Method. The title
// fields name the chart-of-accounts slots its generated vouchers book
// against.
type Asset struct {
	ID      string  `json:"id,omitempty"`
	User    string  `json:"user,omitempty"`
	Name    string  `json:"name"`
	Date    *Date   `json:"date,omitempty"`
	Value   float64 `json:"value"`
	Salvage float64 `json:"salvage"`
	Life    int     `json:"life"`

	Title                    int `json:"title"`
	DepreciationTitle        int `json:"depreciationTitle"`
	DevaluationTitle         int `json:"devaluationTitle"`
	DepreciationExpenseTitle int `json:"depreciationExpenseTitle"`
	DepreciationExpenseSub   int `json:"depreciationExpenseSubTitle,omitempty"`
	DevaluationExpenseTitle  int `json:"devaluationExpenseTitle"`
	DevaluationExpenseSub    int `json:"devaluationExpenseSubTitle,omitempty"`

	Method   DepreciationMethod `json:"method"`
	Currency string             `json:"currency,omitempty"`
	Remark   string             `json:"remark,omitempty"`

	Schedule AssetSchedule `json:"schedule,omitempty"`
}

func (a *Asset) Ident() string       { return a.ID }
func (a *Asset) DisplayName() string { return a.Name }
func (a *Asset) RemarkOf() string    { return a.Remark }
func (a *Asset) DateOf() *Date       { return a.Date }
func (a *Asset) UserOf() string      { return a.User }

// Ignored reports whether the whole asset is manually managed.
func (a *Asset) Ignored() bool { return a.Remark == IgnoranceMark }

// AmortItem is one period of an amortization schedule.
type AmortItem struct {
	ScheduleItemBase
	Amount float64 `json:"amount"`
}

// Amortized is an expense recognized over TotalDays via periodic vouchers
// cloned from Template at each interval date.
type Amortized struct {
	ID        string        `json:"id,omitempty"`
	User      string        `json:"user,omitempty"`
	Name      string        `json:"name"`
	Date      *Date         `json:"date,omitempty"`
	Value     float64       `json:"value"`
	TotalDays int           `json:"totalDays"`
	Interval  AmortInterval `json:"interval"`
	Template  *Voucher      `json:"template,omitempty"`
	Remark    string        `json:"remark,omitempty"`

	Schedule []*AmortItem `json:"schedule,omitempty"`
}

func (a *Amortized) Ident() string       { return a.ID }
func (a *Amortized) DisplayName() string { return a.Name }
func (a *Amortized) RemarkOf() string    { return a.Remark }
func (a *Amortized) DateOf() *Date       { return a.Date }
func (a *Amortized) UserOf() string      { return a.User }

// Ignored reports whether the whole amortization is manually managed.
func (a *Amortized) Ignored() bool { return a.Remark == IgnoranceMark }
