package patient

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Validation limits.
const (
	MaxDiagnosisLength = 2000
	MaxQueryLength     = 50
	MaxSearchResults   = 50
	maxNameLength      = 100
	maxMRNLength       = 32
	birthdateLayout    = time.DateOnly
)

// NormaliseDiagnosis trims a diagnosis and checks it is 1..2000 characters.
func NormaliseDiagnosis(diagnosis string) (string, error) {
	diagnosis = strings.TrimSpace(diagnosis)
	if diagnosis == "" {
		return "", fmt.Errorf("%w: diagnosis cannot be empty", ErrInvalidDiagnosis)
	}
	if utf8.RuneCountInString(diagnosis) > MaxDiagnosisLength {
		return "", fmt.Errorf("%w: diagnosis exceeds %d characters", ErrInvalidDiagnosis, MaxDiagnosisLength)
	}
	return diagnosis, nil
}

// NormaliseQuery trims a search query and checks it is 1..50 characters.
func NormaliseQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", fmt.Errorf("%w: query cannot be empty", ErrInvalidQuery)
	}
	if utf8.RuneCountInString(q) > MaxQueryLength {
		return "", fmt.Errorf("%w: query too long (max %d chars)", ErrInvalidQuery, MaxQueryLength)
	}
	return q, nil
}

// escapeLike escapes the LIKE wildcards in s using backslash as the escape
// character, so user input always matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// ValidatePatient checks the fields required to create a patient.
func ValidatePatient(p *Patient) error {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.MRN = strings.TrimSpace(p.MRN)

	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("%w: first and last name are required", ErrInvalidPatient)
	}
	if len(p.FirstName) > maxNameLength || len(p.LastName) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidPatient, maxNameLength)
	}
	if p.MRN == "" || len(p.MRN) > maxMRNLength {
		return fmt.Errorf("%w: mrn must be 1-%d characters", ErrInvalidPatient, maxMRNLength)
	}
	if _, err := time.Parse(birthdateLayout, p.Birthdate); err != nil {
		return fmt.Errorf("%w: birthdate must be YYYY-MM-DD", ErrInvalidPatient)
	}
	return nil
}
