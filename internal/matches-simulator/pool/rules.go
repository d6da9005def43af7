package pool

import (
	"math/rand"
	"time"

	"github.com/radieske/live-matches-poc/pkg/contracts/events"
)

const (
	// acima disso a partida reinicia com placar zerado
	matchDuration = 30 * time.Minute
	// placar 0x0 depois disso ganha o primeiro gol
	firstGoalAfter = 5 * time.Minute
	// placar abaixo de lowScoreLimit depois disso ganha mais um gol
	lowScoreAfter = 10 * time.Minute
	lowScoreLimit = 3

	startTimeStep = 10 * time.Minute
)

var startOffsets = []time.Duration{10 * time.Minute, 20 * time.Minute, 30 * time.Minute}

// RandomStartTime recua 10, 20 ou 30 minutos a partir de now e trunca
// para a fronteira de 10 minutos (UTC), sem segundos.
func RandomStartTime(now time.Time, rng *rand.Rand) time.Time {
	offset := startOffsets[rng.Intn(len(startOffsets))]
	return now.Add(-offset).UTC().Truncate(startTimeStep)
}

// applyTick aplica a regra de um tick sobre m, usando now como relógio
func applyTick(m *events.Match, now time.Time, rng *rand.Rand) {
	elapsed := now.Sub(m.StartTime)

	if elapsed > matchDuration {
		m.StartTime = RandomStartTime(now, rng)
		m.Team1Score = 0
		m.Team2Score = 0
	} else {
		total := m.Team1Score + m.Team2Score
		if total == 0 && elapsed > firstGoalAfter {
			scoreOne(m, rng)
			total = m.Team1Score + m.Team2Score
		}
		if total < lowScoreLimit && elapsed > lowScoreAfter {
			scoreOne(m, rng)
		}
	}

	rollOdds(m, rng)
}

// scoreOne soma um gol a um dos dois times, com chance igual
func scoreOne(m *events.Match, rng *rand.Rand) {
	if rng.Float64() < 0.5 {
		m.Team1Score++
	} else {
		m.Team2Score++
	}
}
