// Package matchview mantém uma visão local de partidas a partir de lotes
// (snapshot ou diff): mapa id -> partida mais recente e a lista ordenada de
// ids visíveis, atualizados juntos numa única operação de merge.
package matchview

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/radieske/live-matches-poc/pkg/contracts/events"
)

// ErrMalformedPayload indica um payload fora do formato {"data":{"data":[...]}}
var ErrMalformedPayload = errors.New("matchview: malformed payload")

// MergeResult resume o efeito de um lote
type MergeResult struct {
	Upserted int
	Removed  int
	Visible  int
}

// Store é seguro para uso concorrente; merges são serializados pelo lock.
type Store struct {
	mu      sync.RWMutex
	matches map[int64]events.Match
	ids     []int64
	visible map[int64]struct{}
}

// New cria uma visão vazia
func New() *Store {
	return &Store{
		matches: make(map[int64]events.Match),
		visible: make(map[int64]struct{}),
	}
}

// Merge aplica um lote: upsert de todas as partidas, remoção das que estão
// em estado terminal e recálculo dos ids visíveis, sem duplicatas.
//
// O mapa nunca guarda partidas terminais depois de um merge, então só as
// partidas do lote podem ter virado terminais; verificar o lote equivale a
// varrer o mapa inteiro.
func (s *Store) Merge(batch []events.Match) MergeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range batch {
		s.matches[m.ID] = m
	}

	deleted := make(map[int64]struct{})
	for _, m := range batch {
		if cur, ok := s.matches[m.ID]; ok && cur.Status.Terminal() {
			delete(s.matches, m.ID)
			deleted[m.ID] = struct{}{}
		}
	}

	if len(deleted) > 0 {
		kept := s.ids[:0]
		for _, id := range s.ids {
			if _, gone := deleted[id]; gone {
				delete(s.visible, id)
				continue
			}
			kept = append(kept, id)
		}
		s.ids = kept
	}

	for _, m := range batch {
		if _, ok := s.matches[m.ID]; !ok {
			continue
		}
		if _, ok := s.visible[m.ID]; ok {
			continue
		}
		s.visible[m.ID] = struct{}{}
		s.ids = append(s.ids, m.ID)
	}

	return MergeResult{Upserted: len(batch), Removed: len(deleted), Visible: len(s.ids)}
}

// ApplyPayload decodifica o envelope e faz o merge. Payload inválido não
// altera a visão.
func (s *Store) ApplyPayload(raw []byte) (events.Kind, MergeResult, error) {
	env, err := DecodeEnvelope(raw)
	if err != nil {
		return "", MergeResult{}, err
	}
	return env.Type, s.Merge(env.Data.Data), nil
}

// wireEnvelope usa RawMessage para distinguir "data.data" ausente de lista vazia
type wireEnvelope struct {
	Type events.Kind `json:"type"`
	Data *struct {
		Data json.RawMessage `json:"data"`
	} `json:"data"`
}

// DecodeEnvelope valida o formato e devolve o envelope.
// Campos desconhecidos são ignorados.
func DecodeEnvelope(raw []byte) (events.Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(raw, &w); err != nil {
		return events.Envelope{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if w.Data == nil || len(w.Data.Data) == 0 || w.Data.Data[0] != '[' {
		return events.Envelope{}, fmt.Errorf("%w: data.data is not an array", ErrMalformedPayload)
	}
	var batch []events.Match
	if err := json.Unmarshal(w.Data.Data, &batch); err != nil {
		return events.Envelope{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return events.Envelope{Type: w.Type, Data: events.Batch{Data: batch}}, nil
}

// VisibleIDs devolve uma cópia da lista de ids visíveis, na ordem de merge
func (s *Store) VisibleIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]int64(nil), s.ids...)
}

// Get devolve a versão mais recente da partida id
func (s *Store) Get(id int64) (events.Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	return m, ok
}

// Len devolve quantas partidas estão visíveis
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Snapshot devolve cópias das partidas visíveis, na ordem de VisibleIDs
func (s *Store) Snapshot() []events.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]events.Match, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.matches[id])
	}
	return out
}
