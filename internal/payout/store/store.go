package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/genixhq/genix/internal/payout"
)

const activeSourceConstraint = "payout_transfers_active_source_key"

// Postgres SQLSTATE codes.
const (
	codeUniqueViolation = "23505"
	codeUndefinedTable  = "42P01"
	codeUndefinedColumn = "42703"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) ListCompletedPurchases(ctx context.Context) ([]payout.Revenue, error) {
	query := `
		SELECT id::text, COALESCE(seller_id::text, ''), developer_earnings::text, COALESCE(payment_reference, stripe_payment_intent_id, '')
		FROM purchases
		WHERE status = 'completed'
		ORDER BY created_at ASC, id ASC
	`

	return s.listRevenue(ctx, payout.SourcePurchase, query)
}

func (s *Store) ListCompletedConsultations(ctx context.Context) ([]payout.Revenue, error) {
	query := `
		SELECT id::text, COALESCE(developer_id::text, ''), developer_earnings::text, COALESCE(payment_reference, '')
		FROM consultations
		WHERE status = 'completed'
		ORDER BY created_at ASC, id ASC
	`

	return s.listRevenue(ctx, payout.SourceConsultation, query)
}

func (s *Store) listRevenue(ctx context.Context, sourceType payout.SourceType, query string) ([]payout.Revenue, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing %s revenue: %w", sourceType, mapError(err))
	}
	defer rows.Close()

	var revenue []payout.Revenue

	for rows.Next() {
		r := payout.Revenue{SourceType: sourceType}

		var earnings sql.NullString

		if err := rows.Scan(&r.SourceID, &r.RecipientID, &earnings, &r.PaymentReference); err != nil {
			return nil, fmt.Errorf("scanning %s revenue: %w", sourceType, err)
		}

		if earnings.Valid {
			r.Earnings = &earnings.String
		}

		revenue = append(revenue, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s revenue: %w", sourceType, err)
	}

	return revenue, nil
}

func (s *Store) ListExcludedKeys(ctx context.Context) (map[string]struct{}, error) {
	query := `
		SELECT source_type, source_id
		FROM payout_transfers
		WHERE status = ANY($1)
	`

	rows, err := s.db.QueryContext(ctx, query, statusStrings(payout.ExcludingStatuses()))
	if err != nil {
		return nil, fmt.Errorf("listing excluded keys: %w", mapError(err))
	}
	defer rows.Close()

	keys := make(map[string]struct{})

	for rows.Next() {
		var sourceType, sourceID string
		if err := rows.Scan(&sourceType, &sourceID); err != nil {
			return nil, fmt.Errorf("scanning excluded key: %w", err)
		}

		keys[payout.SourceKey(payout.SourceType(sourceType), sourceID)] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating excluded keys: %w", err)
	}

	return keys, nil
}

func (s *Store) GetProfiles(ctx context.Context, developerIDs []string) (map[string]*payout.Profile, error) {
	profiles := make(map[string]*payout.Profile, len(developerIDs))
	if len(developerIDs) == 0 {
		return profiles, nil
	}

	query := `
		SELECT id::text, paystack_recipient_code, transfer_recipient_code, payout_recipient_code, bank_recipient_code
		FROM profiles
		WHERE id::text = ANY($1)
	`

	rows, err := s.db.QueryContext(ctx, query, developerIDs)
	if err != nil {
		return nil, fmt.Errorf("getting profiles: %w", mapError(err))
	}
	defer rows.Close()

	for rows.Next() {
		var p payout.Profile

		var paystack, transfer, payoutCode, bank sql.NullString

		if err := rows.Scan(&p.ID, &paystack, &transfer, &payoutCode, &bank); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}

		p.PaystackRecipientCode = nullableString(paystack)
		p.TransferRecipientCode = nullableString(transfer)
		p.PayoutRecipientCode = nullableString(payoutCode)
		p.BankRecipientCode = nullableString(bank)

		profiles[p.ID] = &p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profiles: %w", err)
	}

	return profiles, nil
}

// CreateTransfers inserts every record of a developer batch in a single statement.
func (s *Store) CreateTransfers(ctx context.Context, records []*payout.TransferRecord) error {
	if len(records) == 0 {
		return nil
	}

	const columns = 9

	var (
		sb   strings.Builder
		args = make([]any, 0, len(records)*columns)
		byID = make(map[uuid.UUID]*payout.TransferRecord, len(records))
	)

	sb.WriteString(`INSERT INTO payout_transfers
		(id, developer_id, source_type, source_id, amount, status, payout_reference, transfer_response, error_message)
		VALUES `)

	for i, rec := range records {
		if !rec.Status.Valid() {
			return fmt.Errorf("creating transfers: unknown status %q", rec.Status)
		}

		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}

		byID[rec.ID] = rec

		if i > 0 {
			sb.WriteString(", ")
		}

		n := len(args)
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8, n+9)

		args = append(args,
			rec.ID,
			rec.DeveloperID,
			string(rec.SourceType),
			rec.SourceID,
			rec.Amount,
			string(rec.Status),
			rec.PayoutReference,
			nullableJSON(rec.TransferResponse),
			rec.ErrorMessage,
		)
	}

	sb.WriteString(" RETURNING id, created_at")

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return fmt.Errorf("creating transfers: %w", mapError(err))
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id        uuid.UUID
			createdAt time.Time
		)

		if err := rows.Scan(&id, &createdAt); err != nil {
			return fmt.Errorf("scanning created transfer: %w", err)
		}

		if rec, ok := byID[id]; ok {
			rec.CreatedAt = createdAt
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("creating transfers: %w", mapError(err))
	}

	return nil
}

const selectTransferColumns = `
	id, developer_id, source_type, source_id, amount::text, status, payout_reference,
	transfer_response, error_message, created_at
`

func scanTransfer(s scanner) (*payout.TransferRecord, error) {
	var (
		rec                   payout.TransferRecord
		sourceType, statusStr string
		response              []byte
		errMsg                sql.NullString
	)

	if err := s.Scan(
		&rec.ID, &rec.DeveloperID, &sourceType, &rec.SourceID, &rec.Amount, &statusStr, &rec.PayoutReference,
		&response, &errMsg, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}

	rec.SourceType = payout.SourceType(sourceType)
	rec.Status = payout.Status(statusStr)
	rec.TransferResponse = response
	rec.ErrorMessage = nullableString(errMsg)

	return &rec, nil
}

func (s *Store) ListTransfers(ctx context.Context, filter payout.ListFilter) ([]*payout.TransferRecord, error) {
	query := `SELECT ` + selectTransferColumns + ` FROM payout_transfers WHERE 1 = 1`

	var args []any

	argIdx := 1

	if filter.DeveloperID != nil {
		query += fmt.Sprintf(" AND developer_id = $%d", argIdx)

		args = append(args, *filter.DeveloperID)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)

		args = append(args, string(*filter.Status))
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, payout_reference, source_id LIMIT $%d", argIdx)

	args = append(args, filter.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transfers: %w", mapError(err))
	}
	defer rows.Close()

	var records []*payout.TransferRecord

	for rows.Next() {
		rec, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transfers: %w", err)
	}

	return records, nil
}

// mapError translates Postgres errors the payout service cares about into sentinels.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		if pgErr.ConstraintName == activeSourceConstraint {
			return fmt.Errorf("%w: %s", payout.ErrDuplicatePayout, pgErr.Detail)
		}
	case codeUndefinedTable, codeUndefinedColumn:
		return fmt.Errorf("%w: %s", payout.ErrSchemaMissing, pgErr.Message)
	}

	return err
}

func statusStrings(statuses []payout.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}

	return out
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}

	return &ns.String
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}

	return string(raw)
}
