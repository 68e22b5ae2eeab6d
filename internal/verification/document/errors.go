package document

import (
	"errors"
	"fmt"

	"trustverify/internal/verification/models"
)

// Error kinds a fetch can fail with. They are the verification error taxonomy
// restricted to what the document layer can observe.
const (
	KindInvalidIdentifier = models.ErrorInvalidIdentifier
	KindNotFound          = models.ErrorNotFound
	KindInvalidFormat     = models.ErrorInvalidFormat
	KindNetwork           = models.ErrorNetwork
	KindTimeout           = models.ErrorTimeout
	KindUnknown           = models.ErrorUnknown
)

// FetchError wraps document store failures with a normalized category.
type FetchError struct {
	Kind       models.ErrorKind
	Identifier string
	Underlying error
}

func (e *FetchError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("document %q [%s]: %v", e.Identifier, e.Kind, e.Underlying)
	}
	return fmt.Sprintf("document %q [%s]", e.Identifier, e.Kind)
}

func (e *FetchError) Unwrap() error {
	return e.Underlying
}

// KindOf extracts the category from err, defaulting to unknown.
func KindOf(err error) models.ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
