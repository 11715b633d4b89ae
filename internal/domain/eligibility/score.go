// Package eligibility scores a user's planning history. The score is advisory
// and never persisted; it is recomputed from the full simulation collection on
// every request.
package eligibility

import (
	"math"

	"github.com/phrazzld/amora-planner/internal/domain"
)

// Level is the categorical band of a score.
type Level string

// Score bands, lowest to highest.
const (
	LevelLow       Level = "baixo"
	LevelMedium    Level = "médio"
	LevelHigh      Level = "alto"
	LevelExcellent Level = "excelente"
)

// Advisory messages.
const (
	AdviceDownPayment = "Considere aumentar o percentual de entrada para melhorar as condições do financiamento"
	AdviceVolume      = "Crie mais simulações para explorar diferentes cenários"
	AdviceStability   = "Avalie prazos de financiamento entre 15-25 anos para melhor equilíbrio"
	AdviceConsistency = "Mantenha consistência nos valores de entrada para demonstrar planejamento"
	AdviceExcellent   = "Excelente planejamento! Continue monitorando o mercado imobiliário"
)

// OnboardingAdvice is returned for an empty collection.
var OnboardingAdvice = []string{
	"Crie sua primeira simulação para começar a avaliar seu perfil",
	"Explore diferentes cenários de financiamento",
	"Considere diferentes valores de entrada",
}

// Factors are the four sub-scores, each rounded to the nearest integer in [0, MaxFactor].
type Factors struct {
	DownPayment int `json:"averageDownPayment"`
	Stability   int `json:"contractStability"`
	Volume      int `json:"simulationCount"`
	Consistency int `json:"planningConsistency"`
}

// Score is the result of Calculate.
type Score struct {
	Value           int      `json:"score"`
	Level           Level    `json:"level"`
	Factors         Factors  `json:"factors"`
	Recommendations []string `json:"recommendations"`
}

// Calculate scores sims with the given params.
//
// Algorithm:
//   - down payment: mean pct / FullDownPaymentPct × MaxFactor, capped
//   - stability: MaxFactor − StabilityPenaltyPerYear × |mean years − OptimalTermYears|, floored at 0
//   - volume: PointsPerSimulation per simulation, capped
//   - consistency: MaxFactor − population variance of pct, floored at 0
//
// The total is the rounded sum of the unrounded sub-scores. Advisories are
// driven by the unrounded sub-scores too; the rounded values are only reported.
// An empty collection short-circuits to a zero score with onboarding advice.
func Calculate(sims []domain.Simulation, params Params) Score {
	if len(sims) == 0 {
		return Score{
			Value:           0,
			Level:           LevelLow,
			Recommendations: append([]string(nil), OnboardingAdvice...),
		}
	}

	n := float64(len(sims))
	var sumPct, sumYears float64
	pcts := make([]float64, len(sims))
	for i, s := range sims {
		pct, _ := s.DownPaymentPct.Float64()
		pcts[i] = pct
		sumPct += pct
		sumYears += float64(s.TermYears)
	}
	meanPct := sumPct / n
	meanYears := sumYears / n

	var sqDiff float64
	for _, pct := range pcts {
		sqDiff += (pct - meanPct) * (pct - meanPct)
	}
	variance := sqDiff / n

	down := math.Min(params.MaxFactor, meanPct/params.FullDownPaymentPct*params.MaxFactor)
	stability := math.Max(0, params.MaxFactor-math.Abs(meanYears-params.OptimalTermYears)*params.StabilityPenaltyPerYear)
	volume := math.Min(params.MaxFactor, n*params.PointsPerSimulation)
	consistency := math.Max(0, params.MaxFactor-variance)

	total := roundHalfUp(down + stability + volume + consistency)

	var advice []string
	if down < params.AdviceThreshold {
		advice = append(advice, AdviceDownPayment)
	}
	if volume < params.AdviceThreshold {
		advice = append(advice, AdviceVolume)
	}
	if stability < params.AdviceThreshold {
		advice = append(advice, AdviceStability)
	}
	if consistency < params.AdviceThreshold {
		advice = append(advice, AdviceConsistency)
	}
	if len(advice) == 0 {
		advice = append(advice, AdviceExcellent)
	}

	return Score{
		Value: total,
		Level: levelFor(total, params),
		Factors: Factors{
			DownPayment: roundHalfUp(down),
			Stability:   roundHalfUp(stability),
			Volume:      roundHalfUp(volume),
			Consistency: roundHalfUp(consistency),
		},
		Recommendations: advice,
	}
}

func levelFor(total int, params Params) Level {
	switch {
	case total >= params.ExcellentFrom:
		return LevelExcellent
	case total >= params.HighFrom:
		return LevelHigh
	case total >= params.MediumFrom:
		return LevelMedium
	default:
		return LevelLow
	}
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
