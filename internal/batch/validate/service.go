// Package validate confirms each classified recipient is reachable and within
// payable bounds, one protocol adapter per kind. Individual failures never
// abort the batch; they land in the per-recipient result.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"satpay/internal/batch/config"
	"satpay/internal/batch/lnurl"
	"satpay/internal/batch/metrics"
	"satpay/internal/batch/models"
	"satpay/internal/batch/ports"
	dErrors "satpay/pkg/domain-errors"
	"satpay/pkg/platform/sentinel"
)

var handlePattern = regexp.MustCompile(`^[a-z0-9_]{3,50}$`)

// Service runs recipient validation with bounded concurrency.
type Service struct {
	cfg     config.Config
	ledger  ports.LedgerClient
	fetcher ports.LnurlFetcher
	clock   ports.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(clock ports.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(cfg config.Config, ledger ports.LedgerClient, fetcher ports.LnurlFetcher, opts ...Option) (*Service, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger client is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("lnurl fetcher is required")
	}
	s := &Service{
		cfg:     cfg,
		ledger:  ledger,
		fetcher: fetcher,
		clock:   ports.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ValidateAll validates every record in bounded-width chunks with a pause
// between chunks to stay under third-party rate limits. The join tolerates
// individual adapter failures: a failed call fills its own result slot and
// never cancels siblings.
func (s *Service) ValidateAll(ctx context.Context, records []models.ParsedRecipient) *models.ValidationReport {
	ctx, span := otel.Tracer("satpay/batch").Start(ctx, "validate")
	span.SetAttributes(attribute.Int("recipients", len(records)))
	defer span.End()

	width := s.cfg.ValidationWidth
	if width < 1 {
		width = 1
	}

	results := make([]models.ValidationResult, len(records))
	for start := 0; start < len(records); start += width {
		end := min(start+width, len(records))

		g := new(errgroup.Group)
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i] = s.validateOne(ctx, records[i])
				return nil
			})
		}
		_ = g.Wait() // workers never return errors

		if end < len(records) {
			s.clock.Sleep(ctx, s.cfg.ValidationDelay)
		}
	}

	report := &models.ValidationReport{Results: results}
	report.Summary = summarize(results)

	if s.logger != nil {
		s.logger.InfoContext(ctx, "validation finished",
			"total", report.Summary.Total,
			"valid", report.Summary.Valid,
			"invalid", report.Summary.Invalid,
		)
	}
	return report
}

// validateOne dispatches to the adapter for the recipient's kind. The switch
// is exhaustive over RecipientKind; an unknown kind is an invariant violation
// recorded as an invalid result rather than a panic.
func (s *Service) validateOne(ctx context.Context, rec models.ParsedRecipient) models.ValidationResult {
	var result models.ValidationResult
	switch rec.Kind {
	case models.KindIntraLedger:
		result = s.validateHandle(ctx, rec, rec.Identifier)
	case models.KindLightningAddress:
		result = s.validateLightningAddress(ctx, rec)
	case models.KindLNURL:
		result = s.validateLnurl(ctx, rec)
	default:
		result = invalid(rec, models.ErrInvalidFormat, fmt.Sprintf("unknown recipient kind %q", rec.Kind))
	}

	if s.metrics != nil {
		s.metrics.ObserveValidation(rec.Kind.String(), result.Valid, errCodeLabel(result.Err))
	}
	return result
}

// validateHandle validates an intraledger handle: syntax first, then a remote
// default-wallet lookup.
func (s *Service) validateHandle(ctx context.Context, rec models.ParsedRecipient, handle string) models.ValidationResult {
	if !handlePattern.MatchString(handle) {
		return invalid(rec, models.ErrInvalidFormat, fmt.Sprintf("invalid handle %q", handle))
	}

	walletID, err := s.ledger.DefaultWalletID(ctx, handle)
	if err != nil {
		switch {
		case dErrors.Is(err, sentinel.ErrNotFound):
			return invalid(rec, models.ErrAccountNotFound, fmt.Sprintf("account %q not found", handle))
		case dErrors.HasCode(err, dErrors.CodeTimeout):
			return invalid(rec, models.ErrTimeout, err.Error())
		default:
			return invalid(rec, models.ErrNetworkError, err.Error())
		}
	}

	return models.ValidationResult{Recipient: rec, Valid: true, WalletID: walletID}
}

// validateLightningAddress treats home-domain addresses as internal routes and
// probes everything else over LUD-16.
func (s *Service) validateLightningAddress(ctx context.Context, rec models.ParsedRecipient) models.ValidationResult {
	user, domain, ok := strings.Cut(rec.Identifier, "@")
	if !ok || user == "" || domain == "" {
		return invalid(rec, models.ErrInvalidFormat, fmt.Sprintf("invalid lightning address %q", rec.Identifier))
	}

	if s.cfg.IsHomeDomain(domain) {
		return s.validateHandle(ctx, rec, user)
	}

	return s.fetchAndBound(ctx, rec, lnurl.PayEndpointURL(user, domain))
}

// validateLnurl decodes a raw LNURL and probes the embedded URL.
func (s *Service) validateLnurl(ctx context.Context, rec models.ParsedRecipient) models.ValidationResult {
	decoded, err := s.decode(rec.Identifier)
	if err != nil {
		return invalid(rec, models.ErrInvalidFormat, err.Error())
	}
	if !strings.HasPrefix(strings.ToLower(decoded), "http") {
		return invalid(rec, models.ErrInvalidFormat, fmt.Sprintf("lnurl decodes to non-http URL %q", decoded))
	}
	return s.fetchAndBound(ctx, rec, decoded)
}

// fetchAndBound runs the shared external-route flow: fetch LUD-06 pay
// parameters, then bounds-check the requested amount when it is known.
// Bounds violations are terminal, not retriable network faults.
func (s *Service) fetchAndBound(ctx context.Context, rec models.ParsedRecipient, url string) models.ValidationResult {
	desc, err := s.fetcher.FetchPayParams(ctx, url)
	if err != nil {
		switch {
		case dErrors.HasCode(err, dErrors.CodeTimeout):
			return invalid(rec, models.ErrTimeout, err.Error())
		case dErrors.HasCode(err, dErrors.CodeUnavailable):
			return invalid(rec, models.ErrLnurlUnreachable, err.Error())
		case dErrors.HasCode(err, dErrors.CodeValidation):
			return invalid(rec, models.ErrLnurlInvalidResponse, err.Error())
		default:
			return invalid(rec, models.ErrNetworkError, err.Error())
		}
	}

	if rec.AmountSats != nil {
		msat := *rec.AmountSats * 1000
		if msat < desc.MinSendable {
			return invalid(rec, models.ErrAmountBelowMin,
				fmt.Sprintf("%d msat is below the %d msat minimum", msat, desc.MinSendable))
		}
		if msat > desc.MaxSendable {
			return invalid(rec, models.ErrAmountAboveMax,
				fmt.Sprintf("%d msat is above the %d msat maximum", msat, desc.MaxSendable))
		}
	}

	return models.ValidationResult{Recipient: rec, Valid: true, Callback: desc}
}

// decode honors the configured leniency toward missing checksum validation.
func (s *Service) decode(raw string) (string, error) {
	if s.cfg.LenientLnurl {
		return lnurl.DecodeLenient(raw)
	}
	return lnurl.Decode(raw)
}

func invalid(rec models.ParsedRecipient, code models.ErrorCode, message string) models.ValidationResult {
	return models.ValidationResult{
		Recipient: rec,
		Err:       models.NewRecipientError(code, message),
	}
}

func summarize(results []models.ValidationResult) models.ValidationSummary {
	summary := models.ValidationSummary{
		Total:  len(results),
		ByCode: map[models.ErrorCode]int{},
		ByKind: map[models.RecipientKind]int{},
	}
	for _, r := range results {
		if r.Valid {
			summary.Valid++
			continue
		}
		summary.Invalid++
		if r.Err != nil {
			summary.ByCode[r.Err.Code]++
		}
		summary.ByKind[r.Recipient.Kind]++
	}
	return summary
}

func errCodeLabel(err *models.RecipientError) string {
	if err == nil {
		return ""
	}
	return string(err.Code)
}
