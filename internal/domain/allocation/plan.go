package allocation

import (
	"sort"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/internal/core/types"
	"lotkeeper/internal/domain/stock"
)

// Portion is one step of an allocation plan: take Quantity from Record.
type Portion struct {
	Record   *stock.AvailableRecord
	Quantity types.Quantity
}

// PlanFefo orders candidate records first-expired-first-out and greedily
// covers the demand. All or nothing: if the candidates cannot cover the full
// demand, INSUFFICIENT_STOCK is returned and no partial plan.
//
// Ordering, deterministic across runs:
//  1. expiry date ascending, records without expiry last
//  2. cost recording time ascending (oldest received lot first), unknown last
//  3. record id ascending (UUIDv7, so effectively creation order)
//
// The input slice is not modified.
func PlanFefo(candidates []stock.AvailableRecord, demand types.Quantity) ([]Portion, error) {
	if !demand.IsPositive() {
		return nil, apperror.NewValidation("demand must be positive").
			WithDetail("demand", demand.String())
	}

	ordered := make([]*stock.AvailableRecord, 0, len(candidates))
	var available types.Quantity
	for i := range candidates {
		if candidates[i].Available().IsPositive() {
			ordered = append(ordered, &candidates[i])
			available += candidates[i].Available()
		}
	}
	if available < demand {
		return nil, apperror.NewInsufficientStock(demand.String(), available.String())
	}

	sort.Slice(ordered, func(i, j int) bool {
		return fefoLess(ordered[i], ordered[j])
	})

	var plan []Portion
	remaining := demand
	for _, rec := range ordered {
		take := remaining.Min(rec.Available())
		plan = append(plan, Portion{Record: rec, Quantity: take})
		remaining -= take
		if remaining.IsZero() {
			break
		}
	}
	return plan, nil
}

func fefoLess(a, b *stock.AvailableRecord) bool {
	switch {
	case a.ExpiryDate != nil && b.ExpiryDate == nil:
		return true
	case a.ExpiryDate == nil && b.ExpiryDate != nil:
		return false
	case a.ExpiryDate != nil && b.ExpiryDate != nil && !a.ExpiryDate.Equal(*b.ExpiryDate):
		return a.ExpiryDate.Before(*b.ExpiryDate)
	}

	switch {
	case a.CostRecordedAt != nil && b.CostRecordedAt == nil:
		return true
	case a.CostRecordedAt == nil && b.CostRecordedAt != nil:
		return false
	case a.CostRecordedAt != nil && b.CostRecordedAt != nil && !a.CostRecordedAt.Equal(*b.CostRecordedAt):
		return a.CostRecordedAt.Before(*b.CostRecordedAt)
	}

	return a.ID.String() < b.ID.String()
}
