package pool

import (
	"math"
	"math/rand"

	"github.com/radieske/live-matches-poc/pkg/contracts/events"
)

// Range é o intervalo válido (fechado) de uma odd/probabilidade
type Range struct {
	Min float64
	Max float64
}

// Contains verifica se v está dentro do intervalo
func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

var (
	MoneylineRange      = Range{Min: 1.10, Max: 10.00}
	DoubleChanceRange   = Range{Min: 1.05, Max: 5.00}
	OverUnderRange      = Range{Min: 1.10, Max: 3.00}
	WinProbabilityRange = Range{Min: 0.10, Max: 0.90}
)

// OddsField associa um campo de mercado ao seu intervalo
type OddsField struct {
	Name  string
	Range Range
	Ptr   *float64
}

// OddsFields lista os nove campos de mercado de m
func OddsFields(m *events.Match) []OddsField {
	return []OddsField{
		{"home_win_probability", WinProbabilityRange, &m.HomeWinProbability},
		{"betting_1x2_home_win", MoneylineRange, &m.Betting1x2HomeWin},
		{"betting_1x2_draw", MoneylineRange, &m.Betting1x2Draw},
		{"betting_1x2_away_win", MoneylineRange, &m.Betting1x2AwayWin},
		{"betting_double_chance_home_win_draw", DoubleChanceRange, &m.BettingDoubleChanceHomeWinDraw},
		{"betting_double_chance_away_win_draw", DoubleChanceRange, &m.BettingDoubleChanceAwayWinDraw},
		{"betting_double_chance_home_win_away_win", DoubleChanceRange, &m.BettingDoubleChanceHomeWinAwayWin},
		{"betting_over_under_2_5_goals_over", OverUnderRange, &m.BettingOverUnder25GoalsOver},
		{"betting_over_under_2_5_goals_under", OverUnderRange, &m.BettingOverUnder25GoalsUnder},
	}
}

// rollOdds sorteia de novo os nove campos, cada um no seu intervalo
func rollOdds(m *events.Match, rng *rand.Rand) {
	for _, f := range OddsFields(m) {
		*f.Ptr = randomFloat(rng, f.Range)
	}
}

// randomFloat sorteia em [Min, Max) e arredonda para 2 casas
func randomFloat(rng *rand.Rand, r Range) float64 {
	v := rng.Float64()*(r.Max-r.Min) + r.Min
	return math.Round(v*100) / 100
}
