// Package medicine defines the generic-drug catalogue entry.
package medicine

import (
	"cmp"
	"slices"
)

// Medicine is one catalogue entry.
type Medicine struct {
	ID          string  `json:"_id"`
	SrNo        int     `json:"srNo"`
	DrugCode    string  `json:"drugCode"`
	GenericName string  `json:"genericName"`
	UnitSize    string  `json:"unitSize"`
	MRP         float64 `json:"mrp"`
}

// PrescriptionQuery is the body of a prescription lookup.
type PrescriptionQuery struct {
	Prescription []string `json:"prescription"`
}

// MatchesPerName caps how many catalogue entries are returned per prescribed name.
const MatchesPerName = 2

// Shortest returns up to n entries with the shortest generic names. Ties keep
// their catalogue order.
func Shortest(meds []Medicine, n int) []Medicine {
	sorted := slices.Clone(meds)
	slices.SortStableFunc(sorted, func(a, b Medicine) int {
		return cmp.Compare(len(a.GenericName), len(b.GenericName))
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
