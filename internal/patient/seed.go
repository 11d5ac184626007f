package patient

import (
	"context"
	"fmt"
	"log/slog"
)

// demoPatients are fictional records for local development.
var demoPatients = []Patient{
	{FirstName: "Anna", LastName: "Schmidt", Birthdate: "1985-04-12", MRN: "MRN-100001", Diagnosis: "Hypertension, stage 1", Address: "Hauptstrasse 1, Berlin", InsuranceID: "A123456789"},
	{FirstName: "Lukas", LastName: "Weber", Birthdate: "1972-11-03", MRN: "MRN-100002", Diagnosis: "Type 2 diabetes mellitus", Address: "Bahnhofstrasse 7, Hamburg", InsuranceID: "B987654321"},
	{FirstName: "Mia", LastName: "Fischer", Birthdate: "1999-01-25", MRN: "MRN-100003", Diagnosis: "Seasonal allergic rhinitis", Address: "Gartenweg 3, Munich", InsuranceID: "C112233445"},
	{FirstName: "Jonas", LastName: "Becker", Birthdate: "1960-07-30", MRN: "MRN-100004", Diagnosis: "Chronic obstructive pulmonary disease", Address: "Lindenallee 12, Cologne", InsuranceID: "D556677889"},
}

// SeedDemo creates the demo patients when the table is empty and returns
// their ids. It is a no-op on a non-empty table.
func SeedDemo(ctx context.Context, repo Repository, logger *slog.Logger) ([]int64, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(demoPatients))
	for _, p := range demoPatients {
		if err := repo.Create(ctx, &p); err != nil {
			return nil, fmt.Errorf("seeding patient %s: %w", p.MRN, err)
		}
		ids = append(ids, p.ID)
	}

	logger.Info("demo patients seeded", "count", len(ids))
	return ids, nil
}
