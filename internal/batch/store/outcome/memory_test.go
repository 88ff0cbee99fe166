package outcome

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"satpay/internal/batch/models"
)

// =============================================================================
// Memory Outcome Store Test Suite
// =============================================================================

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
}

func outcome(row int, success bool) models.PaymentOutcome {
	o := models.PaymentOutcome{
		Recipient: models.ParsedRecipient{
			RowNumber:  row,
			Kind:       models.KindIntraLedger,
			Identifier: "hermann",
		},
		Success: success,
	}
	if success {
		o.Status = "SUCCESS"
	} else {
		o.Err = models.NewRecipientError(models.ErrNoRoute, "no route")
	}
	return o
}

func (s *MemoryStoreSuite) TestAppendAndList() {
	ctx := context.Background()

	s.Run("appends preserve order per batch", func() {
		s.Require().NoError(s.store.Append(ctx, "batch-1", outcome(2, true)))
		s.Require().NoError(s.store.Append(ctx, "batch-1", outcome(3, false)))
		s.Require().NoError(s.store.Append(ctx, "batch-2", outcome(2, true)))

		got, err := s.store.ListByBatch(ctx, "batch-1")
		s.Require().NoError(err)
		s.Require().Len(got, 2)
		s.Equal(2, got[0].Recipient.RowNumber)
		s.Equal(3, got[1].Recipient.RowNumber)
		s.Equal(models.ErrNoRoute, got[1].Err.Code)
	})

	s.Run("unknown batch lists empty", func() {
		got, err := s.store.ListByBatch(ctx, "nope")
		s.Require().NoError(err)
		s.Empty(got)
	})

	s.Run("listed slice is a copy", func() {
		s.Require().NoError(s.store.Append(ctx, "batch-3", outcome(2, true)))
		got, _ := s.store.ListByBatch(ctx, "batch-3")
		got[0].Recipient.Identifier = "mutated"

		again, _ := s.store.ListByBatch(ctx, "batch-3")
		s.Equal("hermann", again[0].Recipient.Identifier)
	})
}

func (s *MemoryStoreSuite) TestConcurrentAppends() {
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(row int) {
			defer wg.Done()
			_ = s.store.Append(ctx, "batch-c", outcome(row, true))
		}(i + 2)
	}
	wg.Wait()

	got, err := s.store.ListByBatch(ctx, "batch-c")
	s.Require().NoError(err)
	s.Len(got, 50)
}
