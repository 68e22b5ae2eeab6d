// Package normalize folds raw document values onto the canonical status
// buckets and raw field keys onto display labels.
package normalize

import (
	"strings"

	"trustverify/internal/verification/models"
)

// Outcome is a normalized four-state verification status.
type Outcome struct {
	Status     models.Status
	IsVerified bool
}

// BinaryOutcome is a normalized trust-score status.
type BinaryOutcome struct {
	Status     models.Status
	IsVerified bool
	Score      int
}

var verificationSynonyms = map[string]models.Status{
	"verified":    models.StatusVerified,
	"approved":    models.StatusVerified,
	"complete":    models.StatusVerified,
	"pending":     models.StatusPending,
	"processing":  models.StatusPending,
	"in_progress": models.StatusPending,
	"rejected":    models.StatusRejected,
	"failed":      models.StatusRejected,
	"denied":      models.StatusRejected,
}

func canonical(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Normalize maps a raw status onto VERIFIED, PENDING, REJECTED or NOT VERIFIED.
// Anything unrecognised is NOT VERIFIED: only a known positive value verifies.
func Normalize(raw string) Outcome {
	status, ok := verificationSynonyms[canonical(raw)]
	if !ok {
		status = models.StatusNotVerified
	}
	return Outcome{Status: status, IsVerified: status == models.StatusVerified}
}

// NormalizeBinary is the trust-score variant: only "verified" scores.
// It deliberately does not recognise the PENDING/REJECTED synonyms.
func NormalizeBinary(raw string) BinaryOutcome {
	if canonical(raw) == "verified" {
		return BinaryOutcome{Status: models.StatusVerified, IsVerified: true, Score: 1}
	}
	return BinaryOutcome{Status: models.StatusNotVerified}
}
