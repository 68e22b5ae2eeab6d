// Package document reads per-user JSON documents from the document store and
// validates their shape before anything downstream sees them.
package document

import (
	"encoding/json"
	"errors"
)

// DefaultIdentifier names the shared fallback document.
const DefaultIdentifier = "default"

// TrustScoreSection is the key of the nested trust-score object.
const TrustScoreSection = "trustscore"

// Document is a decoded top-level JSON object.
type Document map[string]any

var errNotObject = errors.New("document is not a JSON object")

// Decode parses body and requires the top level to be a JSON object.
func Decode(body []byte) (Document, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return Document(obj), nil
}

// StringEntries keeps only the string-valued top-level entries.
func (d Document) StringEntries() map[string]string {
	return stringEntries(d)
}

// Section returns the string-valued entries of a nested object. ok is false
// when the key is missing or does not hold an object.
func (d Document) Section(key string) (map[string]string, bool) {
	nested, ok := d[key].(map[string]any)
	if !ok {
		return nil, false
	}
	return stringEntries(nested), true
}

func stringEntries(obj map[string]any) map[string]string {
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
