package model

import (
	"errors"
	"strings"
)

// ErrNoDefendants marks a record whose defendant clause yielded no valid name
var ErrNoDefendants = errors.New("no defendants")

// Gender is the resolved gender of a person
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// Person is a defendant or a witness named in a record.
// Empty strings stand for absent values and are omitted on output.
type Person struct {
	Forenames  string `json:"forenames"`
	Surname    string `json:"surname"`
	Residence  string `json:"residence,omitempty"`
	Occupation string `json:"occupation,omitempty"`
	Gender     Gender `json:"gender,omitempty"`
}

// FullName joins forenames and surname
func (p Person) FullName() string {
	return strings.TrimSpace(p.Forenames + " " + p.Surname)
}

// Case is the structured form of one summary-conviction record
type Case struct {
	Date            string   `json:"date,omitempty"` // ISO 8601, YYYY-MM-DD
	Offence         string   `json:"offence,omitempty"`
	OffenceLocation string   `json:"offence_location,omitempty"`
	Court           string   `json:"court,omitempty"`
	Division        string   `json:"division,omitempty"`
	Defendants      []Person `json:"defendants"`
	InvolvedPersons []Person `json:"involved_persons,omitempty"`
}

// Parsed reports whether at least one defendant was found
func (c *Case) Parsed() bool {
	return c != nil && len(c.Defendants) > 0
}

// Validate reports a case without defendants or a person missing a name
func (c *Case) Validate() error {
	if !c.Parsed() {
		return ErrNoDefendants
	}
	for _, p := range append(append([]Person(nil), c.Defendants...), c.InvolvedPersons...) {
		if p.Forenames == "" || p.Surname == "" {
			return errors.New("person without forenames or surname")
		}
	}
	return nil
}
