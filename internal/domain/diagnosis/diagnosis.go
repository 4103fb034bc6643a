// Package diagnosis defines the structured symptom assessment returned to users.
package diagnosis

// Medication is a suggested over-the-counter remedy.
type Medication struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Result is the assessment produced for a symptom description.
type Result struct {
	Diagnosis          string       `json:"diagnosis"`
	Medications        []Medication `json:"medications"`
	Prescription       []string     `json:"prescription"`
	Specialist         string       `json:"specialist"`
	DietarySuggestions []string     `json:"dietary_suggestions"`
	Disclaimer         string       `json:"disclaimer"`
}

// Request is the body of a diagnosis request. Symptoms is kept raw so a
// non-string value can be rejected.
type Request struct {
	Symptoms any `json:"symptoms"`
}
