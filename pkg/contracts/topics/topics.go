package topics

import "strconv"

const (
	// Kafka: um registro por mensagem, chave = id da partida
	MatchesUpdates = "matches_updates"

	// Redis Pub/Sub: envelopes prontos para o relay WebSocket
	MatchesBroadcastChannel = "matches_updates_broadcast"

	// Header Kafka com o tipo do lote (initial | update)
	HeaderKind = "kind"

	// Redis: prefixo da chave com o estado atual de cada partida
	CurrentMatchKeyPrefix = "matches:current:"
)

// CurrentMatchKey monta a chave Redis do estado atual da partida id
func CurrentMatchKey(id int64) string {
	return CurrentMatchKeyPrefix + strconv.FormatInt(id, 10)
}
