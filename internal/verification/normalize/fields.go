package normalize

import "strings"

// FieldTable maps lower-case raw field keys to display labels.
type FieldTable map[string]string

// VerificationFields labels identity documents. aadhaard_card is a misspelling
// found in stored documents.
var VerificationFields = FieldTable{
	"aadhaar_card":      "AADHAAR CARD",
	"aadhaard_card":     "AADHAAR CARD",
	"pan_card":          "PAN CARD",
	"passport":          "PASSPORT",
	"driving_license":   "DRIVING LICENSE",
	"voter_id":          "VOTER ID",
	"birth_certificate": "BIRTH CERTIFICATE",
}

// TrustScoreFields labels trust-score details.
var TrustScoreFields = FieldTable{
	"name":         "NAME",
	"photo":        "PHOTO",
	"phone_number": "PHONE NUMBER",
}

// DisplayName looks key up case-insensitively and falls back to
// FallbackDisplayName for unknown keys.
func (t FieldTable) DisplayName(key string) string {
	if label, ok := t[strings.ToLower(key)]; ok {
		return label
	}
	return FallbackDisplayName(key)
}

// FallbackDisplayName upper-cases key and turns underscores into spaces.
func FallbackDisplayName(key string) string {
	return strings.ReplaceAll(strings.ToUpper(key), "_", " ")
}
