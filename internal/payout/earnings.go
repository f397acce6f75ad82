package payout

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// Group is the set of earning items owed to one developer within a run.
type Group struct {
	RecipientID string
	Items       []EarningItem
}

// Total sums the amounts of every item in the group.
func (g Group) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range g.Items {
		total = total.Add(item.Amount)
	}

	return total
}

// NormalizeRevenue converts stored revenue rows into earning items, dropping rows
// without a recipient or with an amount that is missing, non-finite or not positive.
func NormalizeRevenue(rows []Revenue) []EarningItem {
	items := make([]EarningItem, 0, len(rows))

	for _, r := range rows {
		recipient := strings.TrimSpace(r.RecipientID)
		if recipient == "" || r.Earnings == nil {
			continue
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(*r.Earnings))
		if err != nil || !amount.IsPositive() {
			continue
		}

		items = append(items, EarningItem{
			SourceType:       r.SourceType,
			SourceID:         r.SourceID,
			RecipientID:      recipient,
			Amount:           amount,
			PaymentReference: r.PaymentReference,
		})
	}

	return items
}

// FilterUnpaid returns the items whose source key is not in paid, preserving order.
func FilterUnpaid(items []EarningItem, paid map[string]struct{}) []EarningItem {
	pending := make([]EarningItem, 0, len(items))

	for _, item := range items {
		if _, found := paid[item.Key()]; found {
			continue
		}

		pending = append(pending, item)
	}

	return pending
}

// NormalizeLimit clamps a requested page size into [1, MaxLimit], using DefaultLimit for zero.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}

	return limit
}

// ApplyLimit truncates the batch as a whole. A developer's items may be split
// across runs when the cap falls in the middle of them.
func ApplyLimit(items []EarningItem, limit int) []EarningItem {
	if limit < len(items) {
		return items[:limit]
	}

	return items
}

// GroupByRecipient buckets items per developer. Groups appear in first-seen order
// and items keep their input order.
func GroupByRecipient(items []EarningItem) []Group {
	index := make(map[string]int)

	var groups []Group

	for _, item := range items {
		i, found := index[item.RecipientID]
		if !found {
			i = len(groups)
			index[item.RecipientID] = i
			groups = append(groups, Group{RecipientID: item.RecipientID})
		}

		groups[i].Items = append(groups[i].Items, item)
	}

	return groups
}
