package eligibility

// Params defines all configurable constants of the scoring algorithm.
type Params struct {
	// MaxFactor caps each of the four sub-scores.
	MaxFactor float64

	// FullDownPaymentPct is the mean down-payment percentage that earns MaxFactor.
	FullDownPaymentPct float64

	// OptimalTermYears is the mean contract term with no stability penalty.
	OptimalTermYears float64
	// StabilityPenaltyPerYear is subtracted per year of distance from OptimalTermYears.
	StabilityPenaltyPerYear float64

	// PointsPerSimulation is awarded for each simulation in the collection.
	PointsPerSimulation float64

	// AdviceThreshold: a sub-score below it produces an advisory.
	AdviceThreshold float64

	// Level thresholds on the rounded total.
	ExcellentFrom int
	HighFrom      int
	MediumFrom    int
}

// DefaultParams returns the policy values used by the application.
func DefaultParams() Params {
	return Params{
		MaxFactor:               25,
		FullDownPaymentPct:      30,
		OptimalTermYears:        20,
		StabilityPenaltyPerYear: 2,
		PointsPerSimulation:     5,
		AdviceThreshold:         15,
		ExcellentFrom:           80,
		HighFrom:                60,
		MediumFrom:              40,
	}
}
