package models

// Status is a canonical verification status bucket.
type Status string

const (
	StatusVerified    Status = "VERIFIED"
	StatusPending     Status = "PENDING"
	StatusRejected    Status = "REJECTED"
	StatusNotVerified Status = "NOT VERIFIED"
)

// VerificationItem is one document's outcome. IsVerified is true iff Status
// is VERIFIED; construct through the normalizer to keep that invariant.
type VerificationItem struct {
	Document   string `json:"document"`
	Status     Status `json:"status"`
	IsVerified bool   `json:"isVerified"`
}

// TrustScoreItem is one binary trust-score detail. Score is 1 when verified,
// otherwise 0.
type TrustScoreItem struct {
	Detail     string `json:"detail"`
	Status     Status `json:"status"`
	Score      int    `json:"score"`
	IsVerified bool   `json:"isVerified"`
}

// Source tags which tier of the trust-score fallback chain produced a result.
type Source string

const (
	SourceUser     Source = "user"
	SourceDefault  Source = "default"
	SourceFallback Source = "fallback"
)

// VerificationResult is the envelope returned by the verification aggregator.
// Callers branch on Success; Kind is for logging and metrics only.
type VerificationResult struct {
	Success bool               `json:"success"`
	Data    []VerificationItem `json:"data"`
	Error   string             `json:"error,omitempty"`
	Kind    ErrorKind          `json:"-"`
}

// TrustScoreResult is the envelope returned by the trust-score aggregator.
type TrustScoreResult struct {
	Success      bool             `json:"success"`
	Data         []TrustScoreItem `json:"data"`
	OverallScore int              `json:"overallScore"`
	Source       Source           `json:"source"`
	Error        string           `json:"error,omitempty"`
}

// VerificationSuccess wraps items in a successful envelope.
func VerificationSuccess(items []VerificationItem) VerificationResult {
	if items == nil {
		items = []VerificationItem{}
	}
	return VerificationResult{Success: true, Data: items}
}

// VerificationFailure builds a failed envelope carrying kind's message.
func VerificationFailure(kind ErrorKind) VerificationResult {
	return VerificationResult{Success: false, Error: kind.Message(), Kind: kind}
}
