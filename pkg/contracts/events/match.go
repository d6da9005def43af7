package events

import "time"

// Sport identifica a modalidade de uma partida
type Sport string

const (
	SportFootball   Sport = "football"
	SportBasketball Sport = "basketball"
	SportHockey     Sport = "hockey"
	SportTennis     Sport = "tennis"
	SportBaseball   Sport = "baseball"
)

// AllSports é o catálogo fixo de modalidades usado pelo simulador
var AllSports = []Sport{SportFootball, SportBasketball, SportHockey, SportTennis, SportBaseball}

// Status representa o ciclo de vida de uma partida
type Status string

const (
	StatusLive     Status = "live"
	StatusFinished Status = "finished"
)

// Terminal indica se a partida deve sair da visão do cliente
func (s Status) Terminal() bool { return s == StatusFinished }

// Match é o registro publicado nos tópicos/canais de partidas e enviado via WebSocket
type Match struct {
	ID         int64     `json:"id"`
	Team1Name  string    `json:"team1_name"`
	Team2Name  string    `json:"team2_name"`
	Team1Score int       `json:"team1_score"`
	Team2Score int       `json:"team2_score"`
	Sport      Sport     `json:"sport"`
	StartTime  time.Time `json:"start_time"`
	Status     Status    `json:"status"`

	HomeWinProbability                float64 `json:"home_win_probability"`
	Betting1x2HomeWin                 float64 `json:"betting_1x2_home_win"`
	Betting1x2Draw                    float64 `json:"betting_1x2_draw"`
	Betting1x2AwayWin                 float64 `json:"betting_1x2_away_win"`
	BettingDoubleChanceHomeWinDraw    float64 `json:"betting_double_chance_home_win_draw"`
	BettingDoubleChanceAwayWinDraw    float64 `json:"betting_double_chance_away_win_draw"`
	BettingDoubleChanceHomeWinAwayWin float64 `json:"betting_double_chance_home_win_away_win"`
	BettingOverUnder25GoalsOver       float64 `json:"betting_over_under_2_5_goals_over"`
	BettingOverUnder25GoalsUnder      float64 `json:"betting_over_under_2_5_goals_under"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SameState compara campo a campo o estado de jogo e de mercado.
// CreatedAt/UpdatedAt são metadados e ficam de fora.
func (m Match) SameState(o Match) bool {
	return m.ID == o.ID &&
		m.Team1Name == o.Team1Name &&
		m.Team2Name == o.Team2Name &&
		m.Team1Score == o.Team1Score &&
		m.Team2Score == o.Team2Score &&
		m.Sport == o.Sport &&
		m.StartTime.Equal(o.StartTime) &&
		m.Status == o.Status &&
		m.HomeWinProbability == o.HomeWinProbability &&
		m.Betting1x2HomeWin == o.Betting1x2HomeWin &&
		m.Betting1x2Draw == o.Betting1x2Draw &&
		m.Betting1x2AwayWin == o.Betting1x2AwayWin &&
		m.BettingDoubleChanceHomeWinDraw == o.BettingDoubleChanceHomeWinDraw &&
		m.BettingDoubleChanceAwayWinDraw == o.BettingDoubleChanceAwayWinDraw &&
		m.BettingDoubleChanceHomeWinAwayWin == o.BettingDoubleChanceHomeWinAwayWin &&
		m.BettingOverUnder25GoalsOver == o.BettingOverUnder25GoalsOver &&
		m.BettingOverUnder25GoalsUnder == o.BettingOverUnder25GoalsUnder
}

// CopyBatch devolve uma cópia independente do lote.
// Match só tem campos por valor, então copiar o slice basta.
func CopyBatch(batch []Match) []Match {
	if batch == nil {
		return nil
	}
	out := make([]Match, len(batch))
	copy(out, batch)
	return out
}
