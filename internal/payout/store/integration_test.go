package store_test

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/genixhq/genix/internal/database"
	"github.com/genixhq/genix/internal/payout"
	"github.com/genixhq/genix/internal/payout/store"
)

// openTestDB connects to GENIX_TEST_DATABASE_URL, applies the schema and
// clears payout rows. The test is skipped when the variable is unset.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("GENIX_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("GENIX_TEST_DATABASE_URL not set")
	}

	db, err := database.New(url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx, db))

	_, err = db.ExecContext(ctx, `TRUNCATE payout_transfers, purchases, consultations, profiles CASCADE`)
	require.NoError(t, err)

	return db
}

func record(devID string, sourceID string, amount string, status payout.Status, ref string) *payout.TransferRecord {
	return &payout.TransferRecord{
		DeveloperID:     devID,
		SourceType:      payout.SourcePurchase,
		SourceID:        sourceID,
		Amount:          decimal.RequireFromString(amount),
		Status:          status,
		PayoutReference: ref,
	}
}

func TestStore_RevenueAndProfiles(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := store.New(db)

	dev := uuid.New()

	_, err := db.ExecContext(ctx, `INSERT INTO profiles (id, role, bank_recipient_code) VALUES ($1, 'developer', 'RCP_bank')`, dev)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `
		INSERT INTO purchases (seller_id, developer_earnings, status, payment_reference, stripe_payment_intent_id, created_at) VALUES
			($1, 100, 'completed', 'ch_1', 'pi_ignored', now() - interval '3 minutes'),
			($1, 50, 'completed', NULL, 'pi_2', now() - interval '2 minutes'),
			($1, 25, 'completed', NULL, NULL, now() - interval '1 minute'),
			($1, 70, 'refunded', NULL, NULL, now())
	`, dev)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO consultations (developer_id, developer_earnings, status) VALUES ($1, NULL, 'completed')`, dev)
	require.NoError(t, err)

	purchases, err := s.ListCompletedPurchases(ctx)
	require.NoError(t, err)
	require.Len(t, purchases, 3)
	assert.Equal(t, dev.String(), purchases[0].RecipientID)
	assert.Equal(t, "100.00", *purchases[0].Earnings)
	assert.Equal(t, "ch_1", purchases[0].PaymentReference)
	assert.Equal(t, "pi_2", purchases[1].PaymentReference)
	assert.Empty(t, purchases[2].PaymentReference)

	consultations, err := s.ListCompletedConsultations(ctx)
	require.NoError(t, err)
	require.Len(t, consultations, 1)
	assert.Nil(t, consultations[0].Earnings)

	profiles, err := s.GetProfiles(ctx, []string{dev.String(), uuid.NewString()})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Nil(t, profiles[dev.String()].PaystackRecipientCode)
	assert.Equal(t, "RCP_bank", *profiles[dev.String()].BankRecipientCode)
}

func TestStore_TransfersAndExclusion(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := store.New(db)

	failed := record("dev1", "p1", "10", payout.StatusFailed, "genix_1_dev1")
	failed.ErrorMessage = new("insufficient balance")

	require.NoError(t, s.CreateTransfers(ctx, []*payout.TransferRecord{failed}))
	assert.NotEqual(t, uuid.Nil, failed.ID)
	assert.False(t, failed.CreatedAt.IsZero())

	paid := []*payout.TransferRecord{
		record("dev1", "p1", "10", payout.StatusPaid, "genix_2_dev1"),
		record("dev1", "p2", "20.50", payout.StatusPaid, "genix_2_dev1"),
	}
	paid[0].TransferResponse = []byte(`{"transfer_code":"TRF_1"}`)
	paid[1].TransferResponse = []byte(`{"transfer_code":"TRF_1"}`)

	require.NoError(t, s.CreateTransfers(ctx, paid))

	keys, err := s.ListExcludedKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"purchase:p1": {}, "purchase:p2": {}}, keys)

	err = s.CreateTransfers(ctx, []*payout.TransferRecord{record("dev1", "p2", "20.50", payout.StatusQueued, "genix_3_dev1")})
	require.ErrorIs(t, err, payout.ErrDuplicatePayout)

	records, err := s.ListTransfers(ctx, payout.ListFilter{DeveloperID: new("dev1"), Status: new(payout.StatusPaid), Limit: 10})
	require.NoError(t, err)
	require.Len(t, records, 2)

	for _, rec := range records {
		assert.Equal(t, payout.StatusPaid, rec.Status)
		assert.JSONEq(t, `{"transfer_code":"TRF_1"}`, string(rec.TransferResponse))
		assert.Nil(t, rec.ErrorMessage)
	}
}

func TestRunLock_SingleFlight(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first := store.NewRunLock(db, "test-run", zap.NewNop())
	second := store.NewRunLock(db, "test-run", zap.NewNop())

	lockCtx, release, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, lockCtx.Err())

	_, _, err = second.Acquire(ctx)
	require.ErrorIs(t, err, payout.ErrRunInProgress)

	release()
	assert.ErrorIs(t, lockCtx.Err(), context.Canceled)

	_, releaseAgain, err := second.Acquire(ctx)
	require.NoError(t, err)
	releaseAgain()
}

func TestRunLock_LogsFailedUnlock(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	core, logs := observer.New(zap.WarnLevel)
	l := store.NewRunLock(db, "test-unlock", zap.New(core))

	_, release, err := l.Acquire(ctx)
	require.NoError(t, err)

	// Kill the session holding the advisory lock so the unlock cannot succeed.
	_, err = db.ExecContext(ctx, `
		SELECT pg_terminate_backend(pid)
		FROM pg_locks
		WHERE locktype = 'advisory' AND granted AND pid <> pg_backend_pid()`)
	require.NoError(t, err)

	release()

	entries := logs.FilterMessage("failed to release payout run lock").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap(), "key")
}
