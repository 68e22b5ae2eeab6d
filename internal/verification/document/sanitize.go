package document

import "strings"

// MaxIdentifierLength bounds a sanitized identifier.
const MaxIdentifierLength = 50

// SanitizeIdentifier rejects dot-relative input outright (a leading "." or any
// ".."), then strips every character outside [A-Za-z0-9_-]. Separators are
// stripped like any other character. The result must be non-empty and at most
// MaxIdentifierLength long.
func SanitizeIdentifier(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, ".") || strings.Contains(trimmed, "..") {
		return "", &FetchError{Kind: KindInvalidIdentifier, Identifier: raw}
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	for _, r := range trimmed {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	id := b.String()
	if id == "" || len(id) > MaxIdentifierLength {
		return "", &FetchError{Kind: KindInvalidIdentifier, Identifier: raw}
	}
	return id, nil
}
