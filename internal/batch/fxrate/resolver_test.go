package fxrate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"satpay/internal/batch/models"
	dErrors "satpay/pkg/domain-errors"
)

// =============================================================================
// Fakes
// =============================================================================

type stubSource struct {
	rate  float64
	err   error
	calls int
}

func (s *stubSource) SatsPerUSD(ctx context.Context) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.rate, nil
}

func usdRow(row int, dollars float64) models.ParsedRecipient {
	return models.ParsedRecipient{
		RowNumber:       row,
		Kind:            models.KindIntraLedger,
		Identifier:      "alice",
		RequestedAmount: dollars,
		Currency:        models.CurrencyUSD,
	}
}

func satsRow(row int, amount int64) models.ParsedRecipient {
	return models.ParsedRecipient{
		RowNumber:       row,
		Kind:            models.KindIntraLedger,
		Identifier:      "bob",
		RequestedAmount: float64(amount),
		AmountSats:      &amount,
		Currency:        models.CurrencySats,
	}
}

// =============================================================================
// Resolver Test Suite
// =============================================================================

type ResolverSuite struct {
	suite.Suite
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) TestNew() {
	s.Run("nil source returns error", func() {
		_, err := New(nil)
		s.Error(err)
	})
}

func (s *ResolverSuite) TestResolve() {
	ctx := context.Background()

	s.Run("fills usd rows at a single rate", func() {
		source := &stubSource{rate: 1000} // 1000 sats per dollar
		r, err := New(source)
		s.Require().NoError(err)

		records := []models.ParsedRecipient{
			usdRow(2, 25),
			satsRow(3, 500),
			usdRow(4, 0.5),
		}
		s.Require().NoError(r.Resolve(ctx, records))

		s.Require().NotNil(records[0].AmountSats)
		s.Equal(int64(25_000), *records[0].AmountSats)
		s.Equal(int64(500), *records[1].AmountSats)
		s.Equal(int64(500), *records[2].AmountSats)
		s.Equal(1, source.calls)
	})

	s.Run("rounds to the nearest sat", func() {
		source := &stubSource{rate: 1000.4}
		r, err := New(source)
		s.Require().NoError(err)

		records := []models.ParsedRecipient{usdRow(2, 1)}
		s.Require().NoError(r.Resolve(ctx, records))
		s.Equal(int64(1000), *records[0].AmountSats)
	})

	s.Run("no usd rows never touches the source", func() {
		source := &stubSource{rate: 1000}
		r, err := New(source)
		s.Require().NoError(err)

		records := []models.ParsedRecipient{satsRow(2, 500)}
		s.Require().NoError(r.Resolve(ctx, records))
		s.Zero(source.calls)
	})

	s.Run("source failure maps to unavailable", func() {
		source := &stubSource{err: fmt.Errorf("exchange down")}
		r, err := New(source)
		s.Require().NoError(err)

		err = r.Resolve(ctx, []models.ParsedRecipient{usdRow(2, 25)})
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("non-positive rate is rejected", func() {
		source := &stubSource{rate: -1}
		r, err := New(source)
		s.Require().NoError(err)

		err = r.Resolve(ctx, []models.ParsedRecipient{usdRow(2, 25)})
		s.Error(err)
	})
}

// =============================================================================
// HTTP Source Test Suite
// =============================================================================

type HTTPSourceSuite struct {
	suite.Suite
}

func TestHTTPSourceSuite(t *testing.T) {
	suite.Run(t, new(HTTPSourceSuite))
}

func (s *HTTPSourceSuite) TestSatsPerUSD() {
	ctx := context.Background()

	s.Run("inverts dollars per btc into sats per dollar", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"price_usd":50000}`))
		}))
		s.T().Cleanup(srv.Close)

		rate, err := NewHTTPSource(srv.URL, time.Second).SatsPerUSD(ctx)
		s.Require().NoError(err)
		s.InDelta(2000, rate, 1e-9) // 1e8 / 50,000
	})

	s.Run("non-200 status fails", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		s.T().Cleanup(srv.Close)

		_, err := NewHTTPSource(srv.URL, time.Second).SatsPerUSD(ctx)
		s.Error(err)
	})

	s.Run("non-positive price fails", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"price_usd":0}`))
		}))
		s.T().Cleanup(srv.Close)

		_, err := NewHTTPSource(srv.URL, time.Second).SatsPerUSD(ctx)
		s.Error(err)
	})
}
