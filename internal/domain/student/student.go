// Package student defines the academic record served by the student lookup.
package student

// SGPA holds per-semester grade point averages.
type SGPA struct {
	Sem1 *float64 `json:"sem1,omitempty"`
	Sem2 *float64 `json:"sem2,omitempty"`
	Sem3 *float64 `json:"sem3,omitempty"`
	Sem4 *float64 `json:"sem4,omitempty"`
	Sem5 *float64 `json:"sem5,omitempty"`
	Sem6 *float64 `json:"sem6,omitempty"`
	Sem7 *float64 `json:"sem7,omitempty"`
	Sem8 *float64 `json:"sem8,omitempty"`
}

// Student is one academic record.
type Student struct {
	ID         string `json:"_id,omitempty"`
	OverallSNo int    `json:"overall_s_no,omitempty"`
	SNo        int    `json:"s_no,omitempty"`
	Course     string `json:"course,omitempty"`
	Branch     string `json:"branch"`
	Year       int    `json:"year"`
	RollNo     int64  `json:"rollNo"`
	EnrollNo   int64  `json:"enrollNo,omitempty"`
	Name       string `json:"name"`
	DOB        string `json:"DOB,omitempty"`
	SGPA       SGPA   `json:"SGPA"`
}

// Listing is the cached response of the student lookup.
type Listing struct {
	Success bool      `json:"success"`
	Count   int       `json:"count"`
	Data    []Student `json:"data"`
}

// Validate reports the first missing required field, or "" when the record
// is complete enough to import.
func (s *Student) Validate() string {
	switch {
	case s.Name == "":
		return "name"
	case s.Branch == "":
		return "branch"
	case s.Year == 0:
		return "year"
	case s.RollNo == 0:
		return "rollNo"
	}
	return ""
}
