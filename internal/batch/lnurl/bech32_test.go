package lnurl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "satpay/pkg/domain-errors"
)

// Published LUD-01 example: encodes the URL below with a valid checksum.
const (
	knownLnurl = "lnurl1dp68gurn8ghj7um9wfmxjcm99e3k7mf0v9cxj0m385ekvcenxc6r2c35xvukxefcv5mkvv34x5ekzd3ev56nyd3hxqurzepexejxxepnxscrvwfnv9nxzcn9xq6xyefhvgcxxcmyxymnserxfq5fns"
	knownURL   = "https://service.com/api?q=3fc3645b439ce8e7f2553a69e5267081d96dcd340693afabe04be7b0ccd178df"
)

// =============================================================================
// Bech32 Decoder Test Suite
// =============================================================================

type Bech32Suite struct {
	suite.Suite
}

func TestBech32Suite(t *testing.T) {
	suite.Run(t, new(Bech32Suite))
}

func (s *Bech32Suite) TestDecode() {
	s.Run("decodes a valid lowercase lnurl", func() {
		url, err := Decode(knownLnurl)
		s.Require().NoError(err)
		s.Equal(knownURL, url)
	})

	s.Run("decodes a valid uppercase lnurl", func() {
		url, err := Decode(strings.ToUpper(knownLnurl))
		s.Require().NoError(err)
		s.Equal(knownURL, url)
	})

	s.Run("rejects mixed case", func() {
		mixed := "Lnurl" + knownLnurl[5:]
		_, err := Decode(mixed)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejects a corrupted checksum", func() {
		corrupted := knownLnurl[:len(knownLnurl)-1] + "q"
		_, err := Decode(corrupted)
		s.Error(err)
		s.Contains(err.Error(), "checksum")
	})

	s.Run("rejects a corrupted payload", func() {
		b := []byte(knownLnurl)
		b[20] = 'q'
		if knownLnurl[20] == 'q' {
			b[20] = 'p'
		}
		_, err := Decode(string(b))
		s.Error(err)
	})

	s.Run("rejects invalid charset characters", func() {
		_, err := Decode("lnurl1dp68gurb") // 'b' is not in the bech32 charset
		s.Error(err)
	})

	s.Run("rejects input without separator", func() {
		_, err := Decode("notbech32atall")
		s.Error(err)
	})

	s.Run("rejects input too short for a checksum", func() {
		_, err := Decode("lnurl1abc")
		s.Error(err)
	})
}

func (s *Bech32Suite) TestDecodeLenient() {
	s.Run("accepts a corrupted checksum", func() {
		corrupted := knownLnurl[:len(knownLnurl)-1] + "q"
		url, err := DecodeLenient(corrupted)
		s.Require().NoError(err)
		s.Equal(knownURL, url)
	})

	s.Run("still rejects invalid charset characters", func() {
		_, err := DecodeLenient("lnurl1dp68gurb")
		s.Error(err)
	})
}
