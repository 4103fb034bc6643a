// Package directory defines the doctor and hospital listings.
package directory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Strob0t/Karuna/internal/domain"
)

// Doctor is a practitioner listing.
type Doctor struct {
	ID             string  `json:"_id"`
	Location       string  `json:"location"`
	Name           string  `json:"name"`
	Specialization string  `json:"specialization"`
	Rating         float64 `json:"rating"`
	Contact        string  `json:"contact,omitempty"`
	Website        string  `json:"website,omitempty"`
}

// Hospital has the same shape as Doctor but lives in its own collection.
type Hospital struct {
	ID             string  `json:"_id"`
	Location       string  `json:"location"`
	Name           string  `json:"name"`
	Specialization string  `json:"specialization"`
	Rating         float64 `json:"rating"`
	Contact        string  `json:"contact,omitempty"`
	Website        string  `json:"website,omitempty"`
}

// NameQuery is the body of a search-by-name request.
type NameQuery struct {
	Name string `json:"name"`
}

// SpecializationQuery is the body of a search-by-specialization request.
// Specialization is either a string or an array of strings.
type SpecializationQuery struct {
	Specialization json.RawMessage `json:"specialization"`
}

// GeneralPractice lists the specialization values that answer a request
// for a general physician.
var GeneralPractice = []string{"General practitioner", "Doctor"}

var orSplit = regexp.MustCompile(`\s+or\s+`)

// SpecFilter selects doctors by specialization. Exactly one field is set.
type SpecFilter struct {
	// In matches specialization values exactly.
	In []string
	// AnyOf matches when any term is a case-insensitive substring.
	AnyOf []string
}

// ParseSpecialization builds a filter from the raw request value.
//
// A string is split on " or "; a term equal to "general physician" selects
// GeneralPractice, otherwise the terms are matched loosely. An array selects
// its values exactly.
func ParseSpecialization(raw json.RawMessage) (SpecFilter, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return SpecFilter{}, fmt.Errorf("specialization is required: %w", domain.ErrValidation)
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return SpecFilter{}, fmt.Errorf("specialization: %w", domain.ErrValidation)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return SpecFilter{}, fmt.Errorf("specialization is required: %w", domain.ErrValidation)
		}
		terms := orSplit.Split(s, -1)
		for i, term := range terms {
			terms[i] = strings.TrimSpace(term)
			if strings.EqualFold(terms[i], "general physician") {
				return SpecFilter{In: GeneralPractice}, nil
			}
		}
		return SpecFilter{AnyOf: terms}, nil
	case '[':
		var values []string
		if err := json.Unmarshal(raw, &values); err != nil {
			return SpecFilter{}, fmt.Errorf("specialization must be a string or a list of strings: %w", domain.ErrValidation)
		}
		return SpecFilter{In: values}, nil
	default:
		return SpecFilter{}, fmt.Errorf("specialization must be a string or a list of strings: %w", domain.ErrValidation)
	}
}
