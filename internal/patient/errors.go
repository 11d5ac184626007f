package patient

import "errors"

var (
	// ErrPatientNotFound is returned when a patient ID does not exist.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrMRNExists is returned when creating a patient with a duplicate MRN.
	ErrMRNExists = errors.New("medical record number already exists")

	// ErrInvalidDiagnosis is returned when a diagnosis fails validation.
	ErrInvalidDiagnosis = errors.New("invalid diagnosis")

	// ErrInvalidQuery is returned when a search query fails validation.
	ErrInvalidQuery = errors.New("invalid search query")

	// ErrInvalidPatient is returned when a new patient record fails validation.
	ErrInvalidPatient = errors.New("invalid patient")
)
