package csv

import (
	"strings"

	"satpay/internal/batch/models"
)

// Classify assigns a recipient kind and canonicalizes the identifier. It is
// total over non-empty strings: every input maps to exactly one kind.
//
// Decision order:
//  1. "lnurl" prefix (case-insensitive): LNURL. The bech32 payload is kept
//     verbatim, never lowercased, so a mixed-case input fails checksum
//     verification later instead of silently decoding to the wrong URL.
//  2. exactly one "@" with a dotted domain on the right: Lightning Address,
//     fully lowercased.
//  3. anything else: intraledger handle, leading "@" stripped, lowercased.
func Classify(raw string) (models.RecipientKind, string) {
	s := strings.TrimSpace(raw)

	if len(s) >= 5 && strings.EqualFold(s[:5], "lnurl") {
		return models.KindLNURL, s
	}

	if user, domain, ok := splitAddress(s); ok {
		return models.KindLightningAddress, strings.ToLower(user + "@" + domain)
	}

	handle := strings.TrimPrefix(s, "@")
	return models.KindIntraLedger, strings.ToLower(handle)
}

// splitAddress reports whether s looks like user@domain with a dotted domain.
func splitAddress(s string) (user, domain string, ok bool) {
	if strings.Count(s, "@") != 1 {
		return "", "", false
	}
	user, domain, _ = strings.Cut(s, "@")
	if user == "" || domain == "" {
		return "", "", false
	}
	dot := strings.Index(domain, ".")
	if dot <= 0 || dot == len(domain)-1 {
		return "", "", false
	}
	return user, domain, true
}
