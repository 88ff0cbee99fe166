package derrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

// =============================================================================
// Domain Errors Test Suite
// =============================================================================

type ErrorsSuite struct {
	suite.Suite
}

func TestErrorsSuite(t *testing.T) {
	suite.Run(t, new(ErrorsSuite))
}

func (s *ErrorsSuite) TestError() {
	s.Run("message includes the code", func() {
		err := New(CodeValidation, "csv is required")
		s.Equal("validation_error: csv is required", err.Error())
	})

	s.Run("wrapped cause appears in the message", func() {
		cause := fmt.Errorf("connection refused")
		err := Wrap(cause, CodeUnavailable, "ledger unreachable")
		s.Contains(err.Error(), "connection refused")
		s.True(errors.Is(err, cause))
	})

	s.Run("newf formats", func() {
		err := Newf(CodeValidation, "batch exceeds %d rows", 1000)
		s.Equal("batch exceeds 1000 rows", err.Message)
	})
}

func (s *ErrorsSuite) TestHasCode() {
	s.Run("matches the direct code", func() {
		s.True(HasCode(New(CodeTimeout, "slow"), CodeTimeout))
		s.False(HasCode(New(CodeTimeout, "slow"), CodeNotFound))
	})

	s.Run("matches through fmt wrapping", func() {
		err := fmt.Errorf("while validating: %w", New(CodeTimeout, "slow"))
		s.True(HasCode(err, CodeTimeout))
	})

	s.Run("matches nested domain errors", func() {
		inner := New(CodeTimeout, "slow")
		outer := Wrap(inner, CodeUnavailable, "gave up")
		s.True(HasCode(outer, CodeUnavailable))
		s.True(HasCode(outer, CodeTimeout))
	})

	s.Run("plain errors carry no code", func() {
		s.False(HasCode(fmt.Errorf("plain"), CodeInternal))
	})
}

func (s *ErrorsSuite) TestCodeOf() {
	s.Equal(CodeConflict, CodeOf(New(CodeConflict, "already started")))
	s.Equal(CodeInternal, CodeOf(fmt.Errorf("plain")))
	s.Equal(CodeTimeout, CodeOf(fmt.Errorf("w: %w", New(CodeTimeout, "slow"))))
}
