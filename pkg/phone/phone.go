// Package phone validates phone numbers and formats them as E.164.
package phone

import (
	"strings"

	"github.com/ttacon/libphonenumber"

	dErrors "trustverify/pkg/domain-errors"
)

// DefaultRegion is assumed for numbers written without a country code.
const DefaultRegion = "IN"

// Normalize parses raw in region and returns it in E.164 form.
func Normalize(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if region == "" {
		region = DefaultRegion
	}
	num, err := libphonenumber.Parse(raw, strings.ToUpper(region))
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return "", dErrors.New(dErrors.CodeValidation, "phone must be a valid phone number")
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}
