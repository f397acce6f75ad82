package payout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=payout
type Repository interface {
	ListCompletedPurchases(ctx context.Context) ([]Revenue, error)
	ListCompletedConsultations(ctx context.Context) ([]Revenue, error)
	ListExcludedKeys(ctx context.Context) (map[string]struct{}, error)
	GetProfiles(ctx context.Context, developerIDs []string) (map[string]*Profile, error)
	CreateTransfers(ctx context.Context, records []*TransferRecord) error
	ListTransfers(ctx context.Context, filter ListFilter) ([]*TransferRecord, error)
}

// Transferer initiates a transfer with the payment provider and returns its raw payload.
type Transferer interface {
	Transfer(ctx context.Context, req TransferRequest) (json.RawMessage, error)
}

// Locker serialises payout runs. Acquire returns ErrRunInProgress when another run holds the lock.
// The returned context is cancelled with cause ErrLockLost if ownership is lost before release.
type Locker interface {
	Acquire(ctx context.Context) (lockCtx context.Context, release func(), err error)
}

const (
	transferSource = "balance"

	// persistTimeout bounds the insert that records a group once the provider has answered.
	persistTimeout = 30 * time.Second
)

var minorUnit = decimal.NewFromInt(100)

type Service struct {
	repo       Repository
	transferer Transferer
	locker     Locker
	resolver   *DestinationResolver
	recorder   Recorder
	logger     *zap.Logger
	now        func() time.Time
}

type Option func(*Service)

func WithResolver(r *DestinationResolver) Option {
	return func(s *Service) { s.resolver = r }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, transferer Transferer, locker Locker, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		transferer: transferer,
		locker:     locker,
		resolver:   NewDestinationResolver(nil),
		recorder:   nopRecorder{},
		logger:     zap.NewNop(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CollectEarnings reads completed purchases and consultations and normalizes them.
// Purchases come first, then consultations, each in storage order.
func (s *Service) CollectEarnings(ctx context.Context) ([]EarningItem, error) {
	purchases, err := s.repo.ListCompletedPurchases(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing completed purchases: %w", err)
	}

	consultations, err := s.repo.ListCompletedConsultations(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing completed consultations: %w", err)
	}

	rows := make([]Revenue, 0, len(purchases)+len(consultations))
	rows = append(rows, purchases...)
	rows = append(rows, consultations...)

	return NormalizeRevenue(rows), nil
}

// Pending returns every earning item without an active transfer record.
func (s *Service) Pending(ctx context.Context) ([]EarningItem, error) {
	items, err := s.CollectEarnings(ctx)
	if err != nil {
		return nil, err
	}

	paid, err := s.repo.ListExcludedKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing existing transfers: %w", err)
	}

	return FilterUnpaid(items, paid), nil
}

func (s *Service) Preview(ctx context.Context) (*Preview, error) {
	pending, err := s.Pending(ctx)
	if err != nil {
		return nil, err
	}

	preview := &Preview{
		PendingItems:  len(pending),
		PendingAmount: decimal.Zero,
	}

	developers := make(map[string]struct{})
	for _, item := range pending {
		preview.PendingAmount = preview.PendingAmount.Add(item.Amount)
		developers[item.RecipientID] = struct{}{}
	}

	preview.PendingDevelopers = len(developers)

	return preview, nil
}

// Run executes one payout run. Transfer failures for a developer are recorded and
// the run moves on; read failures abort before any transfer is attempted.
func (s *Service) Run(ctx context.Context, params RunParams) (*Summary, error) {
	ctx, release, err := s.locker.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	started := s.now()

	pending, err := s.Pending(ctx)
	if err != nil {
		return nil, err
	}

	batch := ApplyLimit(pending, NormalizeLimit(params.Limit))

	summary := &Summary{
		Processed: len(batch),
		DryRun:    params.DryRun,
	}

	if len(batch) == 0 {
		return summary, nil
	}

	groups := GroupByRecipient(batch)
	summary.GroupedDevelopers = len(groups)

	ids := make([]string, len(groups))
	for i, g := range groups {
		ids[i] = g.RecipientID
	}

	profiles, err := s.repo.GetProfiles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading developer profiles: %w", err)
	}

	for _, g := range groups {
		if ctx.Err() != nil {
			s.logger.Warn("payout run interrupted",
				zap.String("next_developer_id", g.RecipientID),
				zap.Int("groups_done", len(summary.Results)),
				zap.Error(context.Cause(ctx)),
			)

			return nil, fmt.Errorf("payout run interrupted before developer %s: %w", g.RecipientID, context.Cause(ctx))
		}

		result, records, err := s.dispatch(ctx, g, profiles[g.RecipientID], params.DryRun)
		if err != nil {
			return nil, fmt.Errorf("dispatching payout for developer %s: %w", g.RecipientID, err)
		}

		// Once the provider has answered, the outcome is recorded even if the caller went away.
		persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		err = s.repo.CreateTransfers(persistCtx, records)
		cancel()

		if err != nil {
			s.logger.Error("failed to record transfers",
				zap.String("developer_id", g.RecipientID),
				zap.String("status", string(result.Status)),
				zap.String("payout_reference", result.Reference),
				zap.Error(err),
			)

			return nil, fmt.Errorf("recording transfers for developer %s: %w", g.RecipientID, err)
		}

		s.recorder.ObserveGroup(result.Status, result.Entries)
		s.logger.Info("payout group processed",
			zap.String("developer_id", g.RecipientID),
			zap.String("status", string(result.Status)),
			zap.String("amount", result.Amount.StringFixed(2)),
			zap.Int("entries", result.Entries),
			zap.Bool("dry_run", params.DryRun),
		)

		summary.Results = append(summary.Results, result)
	}

	s.recorder.ObserveRun(params.DryRun, s.now().Sub(started))

	return summary, nil
}

func (s *Service) dispatch(ctx context.Context, g Group, profile *Profile, dryRun bool) (Result, []*TransferRecord, error) {
	state := newTransferState()
	total := g.Total()
	reference := s.reference(g.RecipientID)

	var (
		response json.RawMessage
		errMsg   string
	)

	destination, _, ok := s.resolver.Resolve(profile)

	switch {
	case !ok:
		if err := state.to(StatusManualRequired); err != nil {
			return Result{}, nil, err
		}

		errMsg = fmt.Sprintf("No payout destination configured for developer %s", g.RecipientID)
	case dryRun:
		// Recorded as queued without contacting the provider.
	default:
		if err := state.to(StatusProcessing); err != nil {
			return Result{}, nil, err
		}

		resp, err := s.transferer.Transfer(ctx, TransferRequest{
			Source:    transferSource,
			Reason:    fmt.Sprintf("Genix developer payout (%d earnings)", len(g.Items)),
			Amount:    ToMinorUnits(total),
			Recipient: destination,
			Reference: reference,
		})
		if err != nil {
			if err := state.to(StatusFailed); err != nil {
				return Result{}, nil, err
			}

			errMsg = err.Error()
			if errMsg == "" {
				errMsg = "Transfer failed"
			}
		} else {
			if err := state.to(StatusPaid); err != nil {
				return Result{}, nil, err
			}

			response = resp
		}
	}

	var errPtr *string
	if errMsg != "" {
		errPtr = &errMsg
	}

	records := make([]*TransferRecord, len(g.Items))
	for i, item := range g.Items {
		records[i] = &TransferRecord{
			DeveloperID:      g.RecipientID,
			SourceType:       item.SourceType,
			SourceID:         item.SourceID,
			Amount:           item.Amount,
			Status:           state.current,
			PayoutReference:  reference,
			TransferResponse: response,
			ErrorMessage:     errPtr,
		}
	}

	return Result{
		DeveloperID:  g.RecipientID,
		Amount:       total,
		Entries:      len(g.Items),
		Status:       state.current,
		Reference:    reference,
		ErrorMessage: errMsg,
	}, records, nil
}

// reference is shared by every row of a developer batch. It is not unique across
// concurrent runs; the run lock keeps runs from overlapping.
func (s *Service) reference(developerID string) string {
	prefix := developerID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}

	return fmt.Sprintf("genix_%d_%s", s.now().UnixMilli(), prefix)
}

func (s *Service) ListTransfers(ctx context.Context, filter ListFilter) ([]*TransferRecord, error) {
	filter.Limit = NormalizeLimit(filter.Limit)
	return s.repo.ListTransfers(ctx, filter)
}

// ToMinorUnits converts an amount in major units to the provider's minor unit.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(minorUnit).Round(0).IntPart()
}
