package model

// ResilienceSummary is the result of a full engine run, consumed by
// reporting.
type ResilienceSummary struct {
	RunID string `json:"run_id"`

	// MeanSurvivalByDuration and MinSurvivalByDuration aggregate the
	// fuel-bounded survival matrix across all outage start times.
	MeanSurvivalByDuration []float64 `json:"mean_survival_by_duration"`
	MinSurvivalByDuration  []float64 `json:"min_survival_by_duration"`

	// FinalDurationSurvival is the survival probability at the maximum
	// outage duration for every start time.
	FinalDurationSurvival []float64 `json:"final_duration_survival"`

	// MonthlyQuartiles holds the 0/25/50/75/100 percentiles of
	// FinalDurationSurvival for each calendar month.
	MonthlyQuartiles [][]float64 `json:"monthly_quartiles"`

	// FuelSurvivalByDuration is the mean of the deterministic
	// fuel-limited survival bound across start times.
	FuelSurvivalByDuration []float64 `json:"fuel_survival_by_duration"`

	// TotalFuelUsed is the fuel consumed per start time and generator
	// type when riding through the maximum outage duration.
	TotalFuelUsed [][]float64 `json:"total_fuel_used"`
}
