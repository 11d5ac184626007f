package patient

import "time"

// Patient is a stored patient record.
type Patient struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Birthdate   string    `json:"birthdate"` // YYYY-MM-DD
	MRN         string    `json:"mrn"`
	Diagnosis   string    `json:"-"`
	Address     string    `json:"-"`
	InsuranceID string    `json:"-"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// FullName returns "first last".
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Summary is the search projection of a patient.
type Summary struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
