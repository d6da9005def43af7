package events

import "time"

// Kind distingue o snapshot inicial das atualizações incrementais
type Kind string

const (
	KindInitial Kind = "initial"
	KindUpdate  Kind = "update"
)

// Batch é o corpo aninhado do envelope: {"data": [...]}
type Batch struct {
	Data []Match `json:"data"`
}

// Envelope é o payload enviado pelo WebSocket e pelo canal Redis.
// O cliente lê envelope.data.data como a lista de partidas.
type Envelope struct {
	Type   Kind      `json:"type"`
	Data   Batch     `json:"data"`
	SentAt time.Time `json:"sent_at"`
}

// NewEnvelope monta o envelope de um lote
func NewEnvelope(kind Kind, batch []Match, now time.Time) Envelope {
	if batch == nil {
		batch = []Match{}
	}
	return Envelope{Type: kind, Data: Batch{Data: batch}, SentAt: now.UTC()}
}
