// Package pool guarda o conjunto autoritativo de partidas simuladas.
//
// Pool não é seguro para uso concorrente: só o engine, numa única goroutine,
// chama MutateSubset. Tudo que sai do pool é cópia.
package pool

import (
	"math/rand"
	"time"

	"github.com/radieske/live-matches-poc/pkg/contracts/events"
)

// nomes usados quando o pool de nomes vem vazio
const (
	fallbackTeam1 = "Team A"
	fallbackTeam2 = "Team B"
)

// Config define o tamanho do pool e as modalidades sorteadas
type Config struct {
	Count  int
	Sports []events.Sport
}

// Pool mantém as partidas indexadas pelo id (denso a partir de 0)
type Pool struct {
	matches []events.Match
	rng     *rand.Rand
	scratch []int // índices reaproveitados entre ticks
}

// New cria e popula o pool com cfg.Count partidas
func New(cfg Config, names []string, rng *rand.Rand, now time.Time) *Pool {
	count := cfg.Count
	if count < 0 {
		count = 0
	}
	sports := cfg.Sports
	if len(sports) == 0 {
		sports = events.AllSports
	}

	p := &Pool{
		matches: make([]events.Match, 0, count),
		rng:     rng,
	}
	created := now.UTC()
	for i := 0; i < count; i++ {
		team1, team2 := p.pickTeams(names)
		m := events.Match{
			ID:         int64(i),
			Team1Name:  team1,
			Team2Name:  team2,
			Team1Score: rng.Intn(3),
			Team2Score: rng.Intn(3),
			Sport:      sports[rng.Intn(len(sports))],
			StartTime:  RandomStartTime(now, rng),
			Status:     events.StatusLive,
			CreatedAt:  created,
			UpdatedAt:  created,
		}
		rollOdds(&m, rng)
		p.matches = append(p.matches, m)
	}

	p.scratch = make([]int, count)
	for i := range p.scratch {
		p.scratch[i] = i
	}
	return p
}

// pickTeams sorteia dois nomes distintos.
// 0 nomes: placeholders fixos; 1 nome: os dois times usam o mesmo.
func (p *Pool) pickTeams(names []string) (string, string) {
	switch len(names) {
	case 0:
		return fallbackTeam1, fallbackTeam2
	case 1:
		return names[0], names[0]
	}
	i := p.rng.Intn(len(names))
	j := p.rng.Intn(len(names) - 1)
	if j >= i {
		j++
	}
	return names[i], names[j]
}

// Len devolve a quantidade de partidas
func (p *Pool) Len() int { return len(p.matches) }

// Get devolve uma cópia da partida id
func (p *Pool) Get(id int64) (events.Match, bool) {
	if id < 0 || id >= int64(len(p.matches)) {
		return events.Match{}, false
	}
	return p.matches[id], true
}

// SnapshotAll devolve cópias de todas as partidas, na ordem dos ids
func (p *Pool) SnapshotAll() []events.Match {
	return events.CopyBatch(p.matches)
}

// MutateSubset sorteia min(k, Len()) partidas distintas, aplica a regra do
// tick e devolve cópias apenas das que mudaram de fato (comparação campo a campo).
func (p *Pool) MutateSubset(now time.Time, k int) []events.Match {
	idx := p.pick(k)
	if len(idx) == 0 {
		return nil
	}

	stamp := now.UTC()
	var changed []events.Match
	for _, i := range idx {
		m := &p.matches[i]
		before := *m
		applyTick(m, now, p.rng)
		if m.SameState(before) {
			continue
		}
		m.UpdatedAt = stamp
		changed = append(changed, *m)
	}
	return changed
}

// pick faz um Fisher-Yates parcial sobre scratch: os k primeiros índices
// são uma amostra uniforme sem reposição.
func (p *Pool) pick(k int) []int {
	n := len(p.scratch)
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	for i := 0; i < k; i++ {
		j := i + p.rng.Intn(n-i)
		p.scratch[i], p.scratch[j] = p.scratch[j], p.scratch[i]
	}
	return p.scratch[:k]
}
