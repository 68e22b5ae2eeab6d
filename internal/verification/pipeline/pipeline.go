// Package pipeline turns a flat map of raw field statuses into a sorted list
// of typed items. The verification and trust-score read paths are the same
// pipeline with different tables and item shapes.
package pipeline

import (
	"math"
	"slices"
	"strings"

	"trustverify/internal/verification/models"
	"trustverify/internal/verification/normalize"
)

// Config parameterises Run for one item shape.
type Config[T any] struct {
	Fields   normalize.FieldTable
	Build    func(label, rawStatus string) T
	Verified func(T) bool
	Label    func(T) string
}

// Run maps every entry through the display table and item builder, then sorts.
// Keys are visited in lexical order so items sharing a label keep a stable
// relative order across runs.
func Run[T any](cfg Config[T], entries map[string]string) []T {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	items := make([]T, 0, len(keys))
	for _, k := range keys {
		items = append(items, cfg.Build(cfg.Fields.DisplayName(k), entries[k]))
	}
	Sort(cfg, items)
	return items
}

// Sort orders verified items first, then by label ascending. It is stable, so
// sorting an already sorted slice is a no-op.
func Sort[T any](cfg Config[T], items []T) {
	slices.SortStableFunc(items, func(a, b T) int {
		va, vb := cfg.Verified(a), cfg.Verified(b)
		if va != vb {
			if va {
				return -1
			}
			return 1
		}
		return strings.Compare(cfg.Label(a), cfg.Label(b))
	})
}

// Verification builds four-state document items.
var Verification = Config[models.VerificationItem]{
	Fields: normalize.VerificationFields,
	Build: func(label, raw string) models.VerificationItem {
		out := normalize.Normalize(raw)
		return models.VerificationItem{Document: label, Status: out.Status, IsVerified: out.IsVerified}
	},
	Verified: func(i models.VerificationItem) bool { return i.IsVerified },
	Label:    func(i models.VerificationItem) string { return i.Document },
}

// TrustScore builds binary scored items.
var TrustScore = Config[models.TrustScoreItem]{
	Fields: normalize.TrustScoreFields,
	Build: func(label, raw string) models.TrustScoreItem {
		out := normalize.NormalizeBinary(raw)
		return models.TrustScoreItem{Detail: label, Status: out.Status, Score: out.Score, IsVerified: out.IsVerified}
	},
	Verified: func(i models.TrustScoreItem) bool { return i.IsVerified },
	Label:    func(i models.TrustScoreItem) string { return i.Detail },
}

// OverallScore is round(100 * sum(score) / count), or 0 for no items.
func OverallScore(items []models.TrustScoreItem) int {
	if len(items) == 0 {
		return 0
	}
	total := 0
	for _, item := range items {
		total += item.Score
	}
	return int(math.Round(100 * float64(total) / float64(len(items))))
}
