// Package fhir maps stored records onto minimal HL7 FHIR R4 resources.
//
// Only identity fields are exported: name, birth date and medical record
// number. Diagnosis, address and insurance data never appear in a
// resource.
package fhir

import (
	"strconv"

	"github.com/nerrad567/medrecord-core/internal/patient"
)

// ContentType is the media type of FHIR JSON responses.
const ContentType = "application/fhir+json"

// MRNSystem is the identifier system for medical record numbers.
const MRNSystem = "urn:mrn"

// HumanName is a FHIR HumanName carrying only the text form.
type HumanName struct {
	Text string `json:"text"`
}

// Identifier is a FHIR Identifier.
type Identifier struct {
	System string `json:"system"`
	Value  string `json:"value"`
}

// Patient is a minimal FHIR Patient resource.
type Patient struct {
	ResourceType string       `json:"resourceType"`
	ID           string       `json:"id"`
	Name         []HumanName  `json:"name"`
	BirthDate    string       `json:"birthDate"`
	Identifier   []Identifier `json:"identifier"`
}

// FromPatient builds the FHIR resource for p.
func FromPatient(p *patient.Patient) Patient {
	return Patient{
		ResourceType: "Patient",
		ID:           strconv.FormatInt(p.ID, 10),
		Name:         []HumanName{{Text: p.FullName()}},
		BirthDate:    p.Birthdate,
		Identifier:   []Identifier{{System: MRNSystem, Value: p.MRN}},
	}
}
