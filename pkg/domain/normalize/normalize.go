// Package normalize turns the known specification document layouts into the
// canonical catalog schema.
package normalize

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/felixgeelhaar/specaudit/pkg/domain/catalog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ParseDocument decodes JSON text into a generic document value.
func ParseDocument(data []byte) (any, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, &parseError{cause: err}
	}
	// Reject trailing content such as a second document.
	if dec.More() {
		return nil, &parseError{cause: errTrailingData}
	}
	if doc == nil {
		return nil, &parseError{cause: errNullDocument}
	}
	return doc, nil
}

// Normalize builds the audit input for a parsed document and an MCAT name.
// It is a pure function of its arguments.
func Normalize(doc any, mcatName string) (*catalog.AuditInput, error) {
	name := strings.TrimSpace(mcatName)
	if name == "" {
		return nil, ErrMissingName
	}
	if doc == nil {
		return nil, ErrMissingFile
	}

	specs, err := Classify(doc).Specs(name)
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, ErrNoSpecificationsFound
	}

	return &catalog.AuditInput{
		MCATName:       name,
		Specifications: specs,
	}, nil
}

// Preview counts the specifications a freshly loaded document appears to
// hold, before any name check. It never fails.
func Preview(doc any) int {
	if truthyField(doc, "finalized_specs") {
		finalized := mustField(doc, "finalized_specs")
		count := 0
		for _, ft := range finalizedTiers {
			count += len(list(mustField(mustField(finalized, ft.key), "specs")))
		}
		return count
	}
	if specs, ok := mustField(doc, "Specifications").([]any); ok {
		return len(specs)
	}
	if entries, ok := doc.([]any); ok {
		return len(entries)
	}
	if truthyField(doc, "specifications") {
		return len(list(mustField(doc, "specifications")))
	}
	return 0
}

// sameCategory compares category names case-insensitively. A Caser holds
// state, so each comparison gets its own.
func sameCategory(a, b string) bool {
	lower := cases.Lower(language.Und)
	return lower.String(a) == lower.String(b)
}
