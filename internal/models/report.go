package models

// CoverageSummary aggregates vaccination coverage across active employees.
type CoverageSummary struct {
	ActiveEmployees     int64   `json:"active_employees"`
	TotalDoses          int64   `json:"total_doses"`
	VaccinatedEmployees int64   `json:"vaccinated_employees"`
	CoveragePercent     float64 `json:"coverage_percent"`
}

// MonthlyDoses is the number of doses applied in one calendar month (YYYY-MM).
type MonthlyDoses struct {
	Month string `json:"month"`
	Doses int64  `json:"doses"`
}

// VaccineDoses is the number of doses applied per vaccine.
type VaccineDoses struct {
	Vaccine string `json:"vaccine"`
	Doses   int64  `json:"doses"`
}
