package payout

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/genixhq/genix/internal/payout"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type previewResponse struct {
	PendingItems      int         `json:"pending_items"`
	PendingAmount     json.Number `json:"pending_amount"`
	GroupedDevelopers int         `json:"grouped_developers"`
}

func toPreviewResponse(p *payout.Preview) previewResponse {
	return previewResponse{
		PendingItems:      p.PendingItems,
		PendingAmount:     amount(p.PendingAmount),
		GroupedDevelopers: p.PendingDevelopers,
	}
}

type emptyRunResponse struct {
	Processed         int    `json:"processed"`
	GroupedDevelopers int    `json:"grouped_developers"`
	DryRun            bool   `json:"dry_run"`
	Message           string `json:"message"`
}

type summaryResponse struct {
	Processed         int              `json:"processed"`
	GroupedDevelopers int              `json:"grouped_developers"`
	DryRun            bool             `json:"dry_run"`
	Results           []resultResponse `json:"results"`
}

type resultResponse struct {
	DeveloperID     string        `json:"developer_id"`
	Amount          json.Number   `json:"amount"`
	Entries         int           `json:"entries"`
	Status          payout.Status `json:"status"`
	PayoutReference string        `json:"payout_reference"`
	ErrorMessage    string        `json:"error_message,omitempty"`
}

func toSummaryResponse(s *payout.Summary) summaryResponse {
	results := make([]resultResponse, len(s.Results))
	for i, r := range s.Results {
		results[i] = resultResponse{
			DeveloperID:     r.DeveloperID,
			Amount:          amount(r.Amount),
			Entries:         r.Entries,
			Status:          r.Status,
			PayoutReference: r.Reference,
			ErrorMessage:    r.ErrorMessage,
		}
	}

	return summaryResponse{
		Processed:         s.Processed,
		GroupedDevelopers: s.GroupedDevelopers,
		DryRun:            s.DryRun,
		Results:           results,
	}
}

type transferResponse struct {
	ID               uuid.UUID         `json:"id"`
	DeveloperID      string            `json:"developer_id"`
	SourceType       payout.SourceType `json:"source_type"`
	SourceID         string            `json:"source_id"`
	Amount           json.Number       `json:"amount"`
	Status           payout.Status     `json:"status"`
	PayoutReference  string            `json:"payout_reference"`
	TransferResponse json.RawMessage   `json:"transfer_response,omitempty"`
	ErrorMessage     *string           `json:"error_message,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

func toTransferResponseList(records []*payout.TransferRecord) []transferResponse {
	resp := make([]transferResponse, len(records))
	for i, rec := range records {
		resp[i] = transferResponse{
			ID:               rec.ID,
			DeveloperID:      rec.DeveloperID,
			SourceType:       rec.SourceType,
			SourceID:         rec.SourceID,
			Amount:           amount(rec.Amount),
			Status:           rec.Status,
			PayoutReference:  rec.PayoutReference,
			TransferResponse: rec.TransferResponse,
			ErrorMessage:     rec.ErrorMessage,
			CreatedAt:        rec.CreatedAt,
		}
	}

	return resp
}

func amount(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
