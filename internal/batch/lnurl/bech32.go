// Package lnurl implements the LNURL-pay bootstrap: bech32 decoding of raw
// LNURLs (LUD-01) and the payRequest flow against external services (LUD-06).
package lnurl

import (
	"strings"

	dErrors "satpay/pkg/domain-errors"
)

const charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

var gen = [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}

// Decode decodes a bech32-encoded LNURL to its embedded URL, verifying the
// trailing checksum. Corrupted input fails here rather than resolving to a
// plausible-looking but wrong URL.
func Decode(lnurl string) (string, error) {
	return decode(lnurl, true)
}

// DecodeLenient decodes without checksum verification, preserving the
// behavior of wallets that emit LNURLs with corrupt trailing characters.
func DecodeLenient(lnurl string) (string, error) {
	return decode(lnurl, false)
}

func decode(lnurl string, verifyChecksum bool) (string, error) {
	if strings.ToLower(lnurl) != lnurl && strings.ToUpper(lnurl) != lnurl {
		return "", dErrors.New(dErrors.CodeInvalidInput, "lnurl mixes upper and lower case")
	}
	s := strings.ToLower(lnurl)

	sep := strings.LastIndex(s, "1")
	if sep < 1 || sep+7 > len(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "lnurl missing separator or checksum")
	}
	hrp, dataPart := s[:sep], s[sep+1:]

	data := make([]byte, 0, len(dataPart))
	for _, c := range dataPart {
		v := strings.IndexRune(charset, c)
		if v == -1 {
			return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid bech32 character %q", c)
		}
		data = append(data, byte(v))
	}

	if verifyChecksum && !verify(hrp, data) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "lnurl checksum mismatch")
	}

	payload, err := regroup(data[:len(data)-6])
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// regroup packs 5-bit groups into bytes, discarding final padding bits.
func regroup(data []byte) ([]byte, error) {
	var acc, bits uint32
	out := make([]byte, 0, len(data)*5/8)
	for _, v := range data {
		acc = acc<<5 | uint32(v)
		bits += 5
		for bits >= 8 {
			bits -= 8
			out = append(out, byte(acc>>bits&0xff))
		}
	}
	if bits >= 5 || acc<<(8-bits)&0xff != 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid bech32 padding")
	}
	return out, nil
}

func verify(hrp string, data []byte) bool {
	return polymod(append(hrpExpand(hrp), data...)) == 1
}

func hrpExpand(hrp string) []byte {
	out := make([]byte, 0, len(hrp)*2+1)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]>>5)
	}
	out = append(out, 0)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]&0x1f)
	}
	return out
}

func polymod(values []byte) uint32 {
	chk := uint32(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i := 0; i < 5; i++ {
			if top>>uint(i)&1 == 1 {
				chk ^= gen[i]
			}
		}
	}
	return chk
}
