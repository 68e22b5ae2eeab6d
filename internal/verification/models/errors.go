package models

// ErrorKind is the normalized failure taxonomy of the verification read path.
type ErrorKind string

const (
	ErrorInvalidIdentifier ErrorKind = "invalid_identifier"
	ErrorNotFound          ErrorKind = "not_found"
	ErrorInvalidFormat     ErrorKind = "invalid_format"
	ErrorNetwork           ErrorKind = "network_error"
	ErrorTimeout           ErrorKind = "request_timeout"
	ErrorNotAuthenticated  ErrorKind = "not_authenticated"
	ErrorUnknown           ErrorKind = "unknown_error"
)

var errorMessages = map[ErrorKind]string{
	ErrorInvalidIdentifier: "Invalid identifier",
	ErrorNotFound:          "Verification data not found",
	ErrorInvalidFormat:     "Invalid verification data format",
	ErrorNetwork:           "Network error while fetching verification data",
	ErrorTimeout:           "Request timed out",
	ErrorNotAuthenticated:  "User not authenticated",
	ErrorUnknown:           "Failed to fetch verification data",
}

// Message is the human-readable text placed in the result envelope.
func (k ErrorKind) Message() string {
	if msg, ok := errorMessages[k]; ok {
		return msg
	}
	return errorMessages[ErrorUnknown]
}

// Fatal reports whether the failure means the caller's request itself is bad,
// as opposed to data simply being unavailable. Callers use it to decide if
// showing the default dataset is reasonable.
func (k ErrorKind) Fatal() bool {
	return k == ErrorInvalidIdentifier || k == ErrorNotAuthenticated
}
