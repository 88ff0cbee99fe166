package balance

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"satpay/internal/batch/models"
)

// =============================================================================
// Balance Guard Test Suite
// =============================================================================

type GuardSuite struct {
	suite.Suite
}

func TestGuardSuite(t *testing.T) {
	suite.Run(t, new(GuardSuite))
}

func (s *GuardSuite) TestCheck() {
	breakdown := models.FeeBreakdown{TotalSats: 10_000, TotalFeeSats: 30}

	s.Run("surplus is sufficient with remaining", func() {
		check := Check(breakdown, 15_000)
		s.True(check.Sufficient)
		s.Equal(int64(10_030), check.RequiredSats)
		s.Equal(int64(4_970), check.RemainingSats)
		s.Zero(check.ShortfallSats)
	})

	s.Run("exact balance is sufficient", func() {
		check := Check(breakdown, 10_030)
		s.True(check.Sufficient)
		s.Zero(check.RemainingSats)
	})

	s.Run("one sat short is insufficient", func() {
		check := Check(breakdown, 10_029)
		s.False(check.Sufficient)
		s.Equal(int64(1), check.ShortfallSats)
		s.Zero(check.RemainingSats)
	})

	s.Run("fees count toward the requirement", func() {
		check := Check(breakdown, 10_000)
		s.False(check.Sufficient)
		s.Equal(int64(30), check.ShortfallSats)
	})

	s.Run("empty batch needs nothing", func() {
		check := Check(models.FeeBreakdown{}, 0)
		s.True(check.Sufficient)
		s.Zero(check.RequiredSats)
	})
}
