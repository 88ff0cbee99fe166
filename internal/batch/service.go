// Package batch composes the payment pipeline: parse, validate, resolve FX,
// estimate fees, guard the balance, execute.
package batch

import (
	"context"
	"fmt"
	"log/slog"

	"satpay/internal/audit"
	"satpay/internal/batch/balance"
	"satpay/internal/batch/config"
	batchcsv "satpay/internal/batch/csv"
	"satpay/internal/batch/fee"
	"satpay/internal/batch/fxrate"
	"satpay/internal/batch/metrics"
	"satpay/internal/batch/models"
	"satpay/internal/batch/orchestrator"
	"satpay/internal/batch/ports"
	"satpay/internal/batch/validate"
	dErrors "satpay/pkg/domain-errors"
)

// Pipeline owns the full batch flow. Construct once, run per upload.
type Pipeline struct {
	cfg       config.Config
	parser    *batchcsv.Parser
	validator *validate.Service
	estimator *fee.Estimator
	resolver  *fxrate.Resolver
	ledger    ports.LedgerClient
	fetcher   ports.LnurlFetcher
	clock     ports.Clock
	logger    *slog.Logger
	metrics   *metrics.Metrics
	outcomes  ports.OutcomeStore
	publisher *audit.Publisher
}

type Option func(*Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

func WithClock(clock ports.Clock) Option {
	return func(p *Pipeline) {
		if clock != nil {
			p.clock = clock
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithFXResolver enables USD row conversion. Without it a batch containing
// USD rows fails before validation.
func WithFXResolver(r *fxrate.Resolver) Option {
	return func(p *Pipeline) { p.resolver = r }
}

func WithOutcomeStore(store ports.OutcomeStore) Option {
	return func(p *Pipeline) { p.outcomes = store }
}

func WithAuditPublisher(pub *audit.Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

func NewPipeline(cfg config.Config, ledger ports.LedgerClient, fetcher ports.LnurlFetcher, opts ...Option) (*Pipeline, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger client is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("lnurl fetcher is required")
	}
	p := &Pipeline{
		cfg:       cfg,
		parser:    batchcsv.NewParser(cfg),
		estimator: fee.NewEstimator(cfg),
		ledger:    ledger,
		fetcher:   fetcher,
		clock:     ports.RealClock{},
	}
	for _, opt := range opts {
		opt(p)
	}

	var err error
	p.validator, err = validate.New(cfg, ledger, fetcher,
		validate.WithLogger(p.logger),
		validate.WithClock(p.clock),
		validate.WithMetrics(p.metrics),
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// RunReport carries the output of every phase that ran.
type RunReport struct {
	Parse      *models.ParseResult      `json:"parse"`
	Validation *models.ValidationReport `json:"validation"`
	Estimates  []models.FeeEstimate     `json:"estimates,omitempty"`
	Breakdown  models.FeeBreakdown      `json:"breakdown"`
	Balance    models.BalanceCheck      `json:"balance"`
	Result     *models.BatchResult      `json:"result,omitempty"`
}

// Parse runs only the parsing phase.
func (p *Pipeline) Parse(raw string) (*models.ParseResult, error) {
	return p.parser.Parse(raw)
}

// Validate parses and validates without touching money.
func (p *Pipeline) Validate(ctx context.Context, raw string) (*RunReport, error) {
	parsed, err := p.prepare(ctx, raw)
	if err != nil {
		return nil, err
	}
	report := &RunReport{Parse: parsed}
	report.Validation = p.validator.ValidateAll(ctx, parsed.Records)
	return report, nil
}

// Estimate runs everything up to the balance guard.
func (p *Pipeline) Estimate(ctx context.Context, raw string, availableSats int64) (*RunReport, error) {
	report, err := p.Validate(ctx, raw)
	if err != nil {
		return nil, err
	}
	report.Estimates, report.Breakdown = p.estimator.EstimateAll(report.Validation.Results)
	report.Balance = balance.Check(report.Breakdown, availableSats)
	return report, nil
}

// Execute runs the full pipeline. The balance guard aborts before the first
// payment when the available balance cannot cover amounts plus estimated
// fees; the report then still carries the shortfall.
func (p *Pipeline) Execute(ctx context.Context, raw string, availableSats int64, progress ports.ProgressFunc) (*RunReport, error) {
	report, err := p.Estimate(ctx, raw, availableSats)
	if err != nil {
		return nil, err
	}
	if !report.Balance.Sufficient {
		return report, dErrors.Newf(dErrors.CodeValidation,
			"insufficient balance: short %d sats", report.Balance.ShortfallSats)
	}

	b, err := orchestrator.New(p.cfg, p.ledger, p.fetcher,
		orchestrator.WithLogger(p.logger),
		orchestrator.WithClock(p.clock),
		orchestrator.WithMetrics(p.metrics),
		orchestrator.WithOutcomeStore(p.outcomes),
		orchestrator.WithAuditPublisher(p.publisher),
		orchestrator.WithProgress(progress),
	)
	if err != nil {
		return report, err
	}

	result, err := b.Run(ctx, report.Validation.Results, report.Estimates)
	report.Result = result
	return report, err
}

// prepare parses the CSV and resolves pending USD conversions so validation
// and fee estimation see concrete sat amounts.
func (p *Pipeline) prepare(ctx context.Context, raw string) (*models.ParseResult, error) {
	parsed, err := p.parser.Parse(raw)
	if err != nil {
		return nil, err
	}
	if parsed.Summary.PendingConversion > 0 {
		if p.resolver == nil {
			return nil, dErrors.New(dErrors.CodeValidation, "batch contains USD rows but no exchange-rate source is configured")
		}
		if err := p.resolver.Resolve(ctx, parsed.Records); err != nil {
			return nil, err
		}
	}
	return parsed, nil
}
