package payout

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SourceType identifies the revenue event an earning came from.
type SourceType string

const (
	SourcePurchase     SourceType = "purchase"
	SourceConsultation SourceType = "consultation"
)

// EarningItem is one unit of developer-owed money from a single completed sale or consultation.
// It is computed fresh on every run and never stored as such.
type EarningItem struct {
	SourceType       SourceType
	SourceID         string
	RecipientID      string
	Amount           decimal.Decimal
	PaymentReference string
}

// Key is the exclusion key used to detect items that already have a transfer record.
func (e EarningItem) Key() string {
	return SourceKey(e.SourceType, e.SourceID)
}

func SourceKey(sourceType SourceType, sourceID string) string {
	return string(sourceType) + ":" + sourceID
}

// Revenue is a completed revenue row as read from storage, before validation.
// Earnings is the textual form of the stored amount so that NULL, NaN and
// Infinity values can be rejected without losing precision.
type Revenue struct {
	SourceType       SourceType
	SourceID         string
	RecipientID      string
	Earnings         *string
	PaymentReference string
}

// TransferRecord is one persisted row of payout_transfers.
type TransferRecord struct {
	ID               uuid.UUID
	DeveloperID      string
	SourceType       SourceType
	SourceID         string
	Amount           decimal.Decimal
	Status           Status
	PayoutReference  string
	TransferResponse json.RawMessage
	ErrorMessage     *string
	CreatedAt        time.Time
}

// Profile holds the payout destination candidates of a developer.
type Profile struct {
	ID                    string
	PaystackRecipientCode *string
	TransferRecipientCode *string
	PayoutRecipientCode   *string
	BankRecipientCode     *string
}

// TransferRequest is sent to the transfer provider. Amount is in minor units.
type TransferRequest struct {
	Source    string
	Reason    string
	Amount    int64
	Recipient string
	Reference string
}

// RunParams controls a payout run.
type RunParams struct {
	DryRun bool
	Limit  int
}

// Result is the outcome for one developer within a run.
type Result struct {
	DeveloperID  string
	Amount       decimal.Decimal
	Entries      int
	Status       Status
	Reference    string
	ErrorMessage string
}

// Summary is returned by a payout run.
type Summary struct {
	Processed         int
	GroupedDevelopers int
	DryRun            bool
	Results           []Result
}

// Preview describes what a run would pick up, without side effects.
type Preview struct {
	PendingItems      int
	PendingAmount     decimal.Decimal
	PendingDevelopers int
}

type ListFilter struct {
	DeveloperID *string
	Status      *Status
	Limit       int
}
