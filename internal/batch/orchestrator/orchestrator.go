// Package orchestrator drives validated, fee-approved recipients through
// payment execution. Execution is strictly sequential: the remote ledger
// holds a per-account lock and rejects concurrent payment attempts from the
// same sending account, so one in-flight payment at a time is a contract,
// not a tuning choice.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"satpay/internal/audit"
	"satpay/internal/batch/config"
	"satpay/internal/batch/metrics"
	"satpay/internal/batch/models"
	"satpay/internal/batch/ports"
	dErrors "satpay/pkg/domain-errors"
	"satpay/pkg/platform/sentinel"
)

// State tracks the lifecycle of one batch execution.
type State string

const (
	StateNotStarted State = "NOT_STARTED"
	StateRunning    State = "RUNNING"
	StateDone       State = "DONE"
)

// Batch executes one validated recipient set. A Batch runs at most once.
type Batch struct {
	id        uuid.UUID
	cfg       config.Config
	ledger    ports.LedgerClient
	fetcher   ports.LnurlFetcher
	clock     ports.Clock
	logger    *slog.Logger
	metrics   *metrics.Metrics
	outcomes  ports.OutcomeStore
	publisher *audit.Publisher
	progress  ports.ProgressFunc

	mu    sync.Mutex
	state State
}

type Option func(*Batch)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Batch) { b.logger = logger }
}

func WithClock(clock ports.Clock) Option {
	return func(b *Batch) {
		if clock != nil {
			b.clock = clock
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Batch) { b.metrics = m }
}

func WithOutcomeStore(store ports.OutcomeStore) Option {
	return func(b *Batch) { b.outcomes = store }
}

func WithAuditPublisher(p *audit.Publisher) Option {
	return func(b *Batch) { b.publisher = p }
}

func WithProgress(fn ports.ProgressFunc) Option {
	return func(b *Batch) { b.progress = fn }
}

func New(cfg config.Config, ledger ports.LedgerClient, fetcher ports.LnurlFetcher, opts ...Option) (*Batch, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger client is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("lnurl fetcher is required")
	}
	b := &Batch{
		id:      uuid.New(),
		cfg:     cfg,
		ledger:  ledger,
		fetcher: fetcher,
		clock:   ports.RealClock{},
		state:   StateNotStarted,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// ID returns the batch identifier.
func (b *Batch) ID() uuid.UUID { return b.id }

// State returns the current lifecycle state.
func (b *Batch) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Run pays every valid recipient in order, one at a time, with a fixed pause
// between attempts. Per-recipient failures are recorded and never abort the
// remainder. Cancelling ctx stops between attempts and returns the partial
// result together with the context error.
func (b *Batch) Run(ctx context.Context, results []models.ValidationResult, estimates []models.FeeEstimate) (*models.BatchResult, error) {
	b.mu.Lock()
	if b.state != StateNotStarted {
		b.mu.Unlock()
		return nil, dErrors.Newf(dErrors.CodeConflict, "batch %s already started", b.id)
	}
	b.state = StateRunning
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.state = StateDone
		b.mu.Unlock()
	}()

	ctx, span := otel.Tracer("satpay/batch").Start(ctx, "execute")
	span.SetAttributes(attribute.String("batch_id", b.id.String()))
	defer span.End()

	payable := make([]models.ValidationResult, 0, len(results))
	for _, r := range results {
		if r.Valid {
			payable = append(payable, r)
		}
	}
	feeByRow := make(map[int]int64, len(estimates))
	for _, e := range estimates {
		feeByRow[e.Recipient.RowNumber] = e.FeeSats
	}

	if b.metrics != nil {
		b.metrics.IncrementBatches()
	}
	b.emit(ctx, "batch_started", map[string]any{"total": len(payable)})

	result := &models.BatchResult{ID: b.id}
	result.Summary.Total = len(payable)
	start := b.clock.Now()

	for i, r := range payable {
		// Cooperative cancellation checkpoint; never interrupts an
		// in-flight payment.
		if err := ctx.Err(); err != nil {
			b.finish(ctx, result, start)
			return result, err
		}
		if i > 0 {
			b.clock.Sleep(ctx, b.cfg.PaymentDelay)
		}

		outcome := b.payOne(ctx, r, feeByRow[r.Recipient.RowNumber])
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Success {
			result.Summary.Successful++
			var sats int64
			if r.Recipient.AmountSats != nil {
				sats = *r.Recipient.AmountSats
			}
			result.Summary.SatsSent += sats
			result.Summary.FeesPaid += outcome.FeeSats
		} else {
			result.Summary.Failed++
			b.emit(ctx, "payment_failed", map[string]any{
				"row":  r.Recipient.RowNumber,
				"code": string(outcome.Err.Code),
			})
		}

		b.record(ctx, outcome)
		b.report(i+1, len(payable), result.Summary)
	}

	b.finish(ctx, result, start)
	return result, nil
}

// payOne dispatches a single payment. The dispatch order is fixed: internal
// wallet route, then synthesized home-domain address for handles, then direct
// Lightning Address, then LNURL invoice. The final arm is unreachable while
// the classifier stays total; it is kept as an invariant check.
func (b *Batch) payOne(ctx context.Context, r models.ValidationResult, feeSats int64) models.PaymentOutcome {
	rec := r.Recipient
	var sats int64
	if rec.AmountSats != nil {
		sats = *rec.AmountSats
	}
	if sats <= 0 {
		return failure(rec, models.ErrPaymentFailed, "amount was never resolved to sats")
	}

	var (
		status string
		err    error
	)
	switch {
	case r.WalletID != "":
		status, err = b.ledger.SendIntraLedger(ctx, r.WalletID, sats, rec.Memo)
		feeSats = 0
	case rec.Kind == models.KindIntraLedger:
		status, err = b.ledger.SendToLnAddress(ctx, rec.Identifier+"@"+b.cfg.HomeDomain(), sats)
		feeSats = 0
	case rec.Kind == models.KindLightningAddress:
		status, err = b.ledger.SendToLnAddress(ctx, rec.Identifier, sats)
	case rec.Kind == models.KindLNURL:
		status, err = b.payViaLnurl(ctx, r, sats)
	default:
		return failure(rec, models.ErrPaymentFailed,
			fmt.Sprintf("unhandled recipient kind %q", rec.Kind))
	}

	if err != nil {
		outcome := failure(rec, classifyPaymentError(err), err.Error())
		b.observe(outcome, sats)
		return outcome
	}

	outcome := models.PaymentOutcome{
		Recipient: rec,
		Success:   true,
		Status:    status,
		FeeSats:   feeSats,
	}
	b.observe(outcome, sats)
	return outcome
}

// payViaLnurl fetches a one-time invoice from the validated callback and pays
// it through the ledger.
func (b *Batch) payViaLnurl(ctx context.Context, r models.ValidationResult, sats int64) (string, error) {
	if r.Callback == nil {
		return "", fmt.Errorf("lnurl recipient has no validated callback")
	}
	invoice, err := b.fetcher.FetchInvoice(ctx, r.Callback.Callback, sats*1000)
	if err != nil {
		return "", err
	}
	return b.ledger.PayInvoice(ctx, invoice)
}

func (b *Batch) finish(ctx context.Context, result *models.BatchResult, start time.Time) {
	if b.metrics != nil {
		b.metrics.ObservePhase("execute", b.clock.Now().Sub(start))
	}
	b.emit(ctx, "batch_completed", map[string]any{
		"successful": result.Summary.Successful,
		"failed":     result.Summary.Failed,
		"sats_sent":  result.Summary.SatsSent,
	})
	if b.logger != nil {
		b.logger.InfoContext(ctx, "batch finished",
			"batch_id", b.id,
			"successful", result.Summary.Successful,
			"failed", result.Summary.Failed,
			"sats_sent", result.Summary.SatsSent,
			"fees_paid", result.Summary.FeesPaid,
		)
	}
}

func (b *Batch) report(completed, total int, summary models.BatchSummary) {
	if b.progress == nil {
		return
	}
	b.progress(models.Progress{
		Completed:  completed,
		Total:      total,
		Successful: summary.Successful,
		Failed:     summary.Failed,
		Percent:    float64(completed) / float64(total) * 100,
	})
}

func (b *Batch) record(ctx context.Context, outcome models.PaymentOutcome) {
	if b.outcomes == nil {
		return
	}
	// Best effort: an audit store hiccup must not fail the batch.
	if err := b.outcomes.Append(ctx, b.id.String(), outcome); err != nil && b.logger != nil {
		b.logger.WarnContext(ctx, "failed to record payment outcome",
			"batch_id", b.id, "row", outcome.Recipient.RowNumber, "error", err)
	}
}

func (b *Batch) emit(ctx context.Context, action string, details map[string]any) {
	if b.publisher == nil {
		return
	}
	if err := b.publisher.Emit(ctx, audit.Event{
		BatchID: b.id.String(),
		Action:  action,
		Details: details,
	}); err != nil && b.logger != nil {
		b.logger.WarnContext(ctx, "failed to emit audit event", "action", action, "error", err)
	}
}

func (b *Batch) observe(outcome models.PaymentOutcome, sats int64) {
	if b.metrics == nil {
		return
	}
	code := ""
	if outcome.Err != nil {
		code = string(outcome.Err.Code)
	}
	b.metrics.ObservePayment(outcome.Success, code, sats, outcome.FeeSats)
}

func failure(rec models.ParsedRecipient, code models.ErrorCode, message string) models.PaymentOutcome {
	return models.PaymentOutcome{
		Recipient: rec,
		Err:       models.NewRecipientError(code, message),
	}
}

func classifyPaymentError(err error) models.ErrorCode {
	switch {
	case dErrors.Is(err, sentinel.ErrInsufficientBalance):
		return models.ErrInsufficientBalance
	case dErrors.Is(err, sentinel.ErrNoRoute):
		return models.ErrNoRoute
	case dErrors.Is(err, sentinel.ErrInvoiceExpired):
		return models.ErrInvoiceExpired
	case dErrors.HasCode(err, dErrors.CodeTimeout):
		return models.ErrTimeout
	case dErrors.HasCode(err, dErrors.CodeUnavailable):
		return models.ErrNetworkError
	default:
		return models.ErrPaymentFailed
	}
}
