package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
)

// =============================================================================
// JWT Validator Test Suite
// =============================================================================

type ValidatorSuite struct {
	suite.Suite
	validator *Validator
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

func (s *ValidatorSuite) SetupTest() {
	s.validator = NewValidator("test-signing-key")
}

func (s *ValidatorSuite) TestValidateToken() {
	s.Run("round-trips issued tokens", func() {
		token, err := s.validator.Issue("op-1", time.Minute)
		s.Require().NoError(err)

		claims, err := s.validator.ValidateToken(token)
		s.Require().NoError(err)
		s.Equal("op-1", claims.OperatorID)
	})

	s.Run("rejects tokens signed with another key", func() {
		other := NewValidator("different-key")
		token, err := other.Issue("op-1", time.Minute)
		s.Require().NoError(err)

		_, err = s.validator.ValidateToken(token)
		s.Error(err)
	})

	s.Run("rejects expired tokens", func() {
		token, err := s.validator.Issue("op-1", -time.Minute)
		s.Require().NoError(err)

		_, err = s.validator.ValidateToken(token)
		s.Error(err)
	})

	s.Run("rejects tokens without a subject", func() {
		raw := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
			"exp": time.Now().Add(time.Minute).Unix(),
		})
		token, err := raw.SignedString([]byte("test-signing-key"))
		s.Require().NoError(err)

		_, err = s.validator.ValidateToken(token)
		s.Error(err)
	})

	s.Run("rejects the none algorithm", func() {
		raw := gojwt.NewWithClaims(gojwt.SigningMethodNone, gojwt.MapClaims{
			"sub": "op-1",
			"exp": time.Now().Add(time.Minute).Unix(),
		})
		token, err := raw.SignedString(gojwt.UnsafeAllowNoneSignatureType)
		s.Require().NoError(err)

		_, err = s.validator.ValidateToken(token)
		s.Error(err)
	})

	s.Run("rejects garbage", func() {
		_, err := s.validator.ValidateToken("not.a.token")
		s.Error(err)
	})
}
