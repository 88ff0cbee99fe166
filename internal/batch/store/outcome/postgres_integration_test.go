//go:build integration

package outcome

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"satpay/internal/batch/models"
	"satpay/pkg/testutil/containers"
)

// =============================================================================
// Postgres Outcome Store Integration Suite
// =============================================================================
// Run with: go test -tags integration ./internal/batch/store/outcome/...

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgresStore(s.pg.Pool)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pg.Pool.Exec(context.Background(), "TRUNCATE payment_outcomes")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	amount := int64(1000)

	success := models.PaymentOutcome{
		Recipient: models.ParsedRecipient{
			RowNumber:  2,
			Original:   "hermann",
			Kind:       models.KindIntraLedger,
			Identifier: "hermann",
			AmountSats: &amount,
			Currency:   models.CurrencySats,
		},
		Success: true,
		Status:  "SUCCESS",
	}
	failed := models.PaymentOutcome{
		Recipient: models.ParsedRecipient{
			RowNumber:  3,
			Original:   "satoshi@example.com",
			Kind:       models.KindLightningAddress,
			Identifier: "satoshi@example.com",
			AmountSats: &amount,
			Currency:   models.CurrencySats,
		},
		FeeSats: 0,
		Err:     models.NewRecipientError(models.ErrNoRoute, "unable to find a route"),
	}

	s.Require().NoError(s.store.Append(ctx, "batch-1", success))
	s.Require().NoError(s.store.Append(ctx, "batch-1", failed))
	s.Require().NoError(s.store.Append(ctx, "batch-2", success))

	got, err := s.store.ListByBatch(ctx, "batch-1")
	s.Require().NoError(err)
	s.Require().Len(got, 2)

	s.True(got[0].Success)
	s.Equal("SUCCESS", got[0].Status)
	s.Equal("hermann", got[0].Recipient.Identifier)
	s.Require().NotNil(got[0].Recipient.AmountSats)
	s.Equal(int64(1000), *got[0].Recipient.AmountSats)

	s.False(got[1].Success)
	s.Require().NotNil(got[1].Err)
	s.Equal(models.ErrNoRoute, got[1].Err.Code)
	s.Equal("unable to find a route", got[1].Err.Message)
}

func (s *PostgresStoreSuite) TestListUnknownBatch() {
	got, err := s.store.ListByBatch(context.Background(), "missing")
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *PostgresStoreSuite) TestOrderIsInsertionOrder() {
	ctx := context.Background()
	for row := 2; row <= 6; row++ {
		amount := int64(row * 100)
		s.Require().NoError(s.store.Append(ctx, "batch-ord", models.PaymentOutcome{
			Recipient: models.ParsedRecipient{
				RowNumber: row, Kind: models.KindIntraLedger,
				Identifier: "alice", AmountSats: &amount, Currency: models.CurrencySats,
			},
			Success: true,
			Status:  "SUCCESS",
		}))
	}

	got, err := s.store.ListByBatch(ctx, "batch-ord")
	s.Require().NoError(err)
	s.Require().Len(got, 5)
	for i, o := range got {
		s.Equal(i+2, o.Recipient.RowNumber)
	}
}
