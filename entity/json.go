package entity

import (
	"encoding/json"
	"fmt"
)

// AssetSchedule is a slice of asset schedule items with JSON support. The
// item variants form a closed set, so they are encoded as a tagged union
// with an explicit "kind" discriminant.
type AssetSchedule []AssetItem

type assetItemEnvelope struct {
	Kind      string  `json:"kind"`
	Date      *Date   `json:"date,omitempty"`
	VoucherID string  `json:"voucherId,omitempty"`
	Value     float64 `json:"value"`
	Remark    string  `json:"remark,omitempty"`
	OrigValue float64 `json:"origValue,omitempty"`
	Amount    float64 `json:"amount,omitempty"`
	FairValue float64 `json:"fairValue,omitempty"`
}

const (
	kindAcquisition = "acquisition"
	kindDepreciate  = "depreciate"
	kindDevalue     = "devalue"
	kindDisposition = "disposition"
)

// MarshalJSON encodes the schedule as a list of tagged items.
func (s AssetSchedule) MarshalJSON() ([]byte, error) {
	envelopes := make([]assetItemEnvelope, 0, len(s))
	for _, it := range s {
		e := assetItemEnvelope{
			Date:      it.Base().Date,
			VoucherID: it.Base().VoucherID,
			Value:     it.Base().Value,
			Remark:    it.Base().Remark,
		}
		switch v := it.(type) {
		case *AcquisitionItem:
			e.Kind = kindAcquisition
			e.OrigValue = v.OrigValue
		case *DepreciateItem:
			e.Kind = kindDepreciate
			e.Amount = v.Amount
		case *DevalueItem:
			e.Kind = kindDevalue
			e.FairValue = v.FairValue
			e.Amount = v.Amount
		case *DispositionItem:
			e.Kind = kindDisposition
		default:
			return nil, fmt.Errorf("unknown asset schedule item kind %T", it)
		}
		envelopes = append(envelopes, e)
	}
	return json.Marshal(envelopes)
}

// UnmarshalJSON decodes a list of tagged items back into the concrete
// variants, rejecting unknown kinds.
func (s *AssetSchedule) UnmarshalJSON(data []byte) error {
	var envelopes []assetItemEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return err
	}
	out := make(AssetSchedule, 0, len(envelopes))
	for _, e := range envelopes {
		base := ScheduleItemBase{
			Date:      e.Date,
			VoucherID: e.VoucherID,
			Value:     e.Value,
			Remark:    e.Remark,
		}
		switch e.Kind {
		case kindAcquisition:
			out = append(out, &AcquisitionItem{ScheduleItemBase: base, OrigValue: e.OrigValue})
		case kindDepreciate:
			out = append(out, &DepreciateItem{ScheduleItemBase: base, Amount: e.Amount})
		case kindDevalue:
			out = append(out, &DevalueItem{ScheduleItemBase: base, FairValue: e.FairValue, Amount: e.Amount})
		case kindDisposition:
			out = append(out, &DispositionItem{ScheduleItemBase: base})
		default:
			return fmt.Errorf("unknown asset schedule item kind %q", e.Kind)
		}
	}
	*s = out
	return nil
}
