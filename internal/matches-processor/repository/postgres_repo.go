package repository

import (
	"context"
	"database/sql"

	"github.com/radieske/live-matches-poc/pkg/contracts/events"
)

// PostgresRepo mantém a projeção do estado atual das partidas (matches_current)
// DB: conexão com o banco de dados
type PostgresRepo struct {
	DB *sql.DB
}

// NewPostgresRepo retorna uma instância de repositório Postgres
func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// Schema da projeção; também usado pelo matches-service na leitura
const Schema = `
	CREATE TABLE IF NOT EXISTS matches_current (
	  id                                      BIGINT PRIMARY KEY,
	  team1_name                              TEXT NOT NULL,
	  team2_name                              TEXT NOT NULL,
	  team1_score                             INT NOT NULL,
	  team2_score                             INT NOT NULL,
	  sport                                   TEXT NOT NULL,
	  start_time                              TIMESTAMPTZ NOT NULL,
	  status                                  TEXT NOT NULL,
	  home_win_probability                    DOUBLE PRECISION NOT NULL,
	  betting_1x2_home_win                    DOUBLE PRECISION NOT NULL,
	  betting_1x2_draw                        DOUBLE PRECISION NOT NULL,
	  betting_1x2_away_win                    DOUBLE PRECISION NOT NULL,
	  betting_double_chance_home_win_draw     DOUBLE PRECISION NOT NULL,
	  betting_double_chance_away_win_draw     DOUBLE PRECISION NOT NULL,
	  betting_double_chance_home_win_away_win DOUBLE PRECISION NOT NULL,
	  betting_over_under_2_5_goals_over       DOUBLE PRECISION NOT NULL,
	  betting_over_under_2_5_goals_under      DOUBLE PRECISION NOT NULL,
	  created_at                              TIMESTAMPTZ NOT NULL,
	  updated_at                              TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS matches_current_sport_idx ON matches_current (sport);
`

// EnsureSchema cria a tabela se ainda não existir
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, Schema)
	return err
}

// UpsertCurrent insere ou atualiza o estado atual da partida
// Utiliza ON CONFLICT para evitar duplicidade por id
func (r *PostgresRepo) UpsertCurrent(ctx context.Context, m events.Match) error {
	const q = `
		INSERT INTO matches_current
		  (id, team1_name, team2_name, team1_score, team2_score, sport, start_time, status,
		   home_win_probability, betting_1x2_home_win, betting_1x2_draw, betting_1x2_away_win,
		   betting_double_chance_home_win_draw, betting_double_chance_away_win_draw,
		   betting_double_chance_home_win_away_win, betting_over_under_2_5_goals_over,
		   betting_over_under_2_5_goals_under, created_at, updated_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		ON CONFLICT (id) DO UPDATE SET
		  team1_name  = EXCLUDED.team1_name,
		  team2_name  = EXCLUDED.team2_name,
		  team1_score = EXCLUDED.team1_score,
		  team2_score = EXCLUDED.team2_score,
		  sport       = EXCLUDED.sport,
		  start_time  = EXCLUDED.start_time,
		  status      = EXCLUDED.status,
		  home_win_probability                    = EXCLUDED.home_win_probability,
		  betting_1x2_home_win                    = EXCLUDED.betting_1x2_home_win,
		  betting_1x2_draw                        = EXCLUDED.betting_1x2_draw,
		  betting_1x2_away_win                    = EXCLUDED.betting_1x2_away_win,
		  betting_double_chance_home_win_draw     = EXCLUDED.betting_double_chance_home_win_draw,
		  betting_double_chance_away_win_draw     = EXCLUDED.betting_double_chance_away_win_draw,
		  betting_double_chance_home_win_away_win = EXCLUDED.betting_double_chance_home_win_away_win,
		  betting_over_under_2_5_goals_over       = EXCLUDED.betting_over_under_2_5_goals_over,
		  betting_over_under_2_5_goals_under      = EXCLUDED.betting_over_under_2_5_goals_under,
		  updated_at  = EXCLUDED.updated_at
	`
	_, err := r.DB.ExecContext(ctx, q,
		m.ID, m.Team1Name, m.Team2Name, m.Team1Score, m.Team2Score, string(m.Sport), m.StartTime, string(m.Status),
		m.HomeWinProbability, m.Betting1x2HomeWin, m.Betting1x2Draw, m.Betting1x2AwayWin,
		m.BettingDoubleChanceHomeWinDraw, m.BettingDoubleChanceAwayWinDraw,
		m.BettingDoubleChanceHomeWinAwayWin, m.BettingOverUnder25GoalsOver,
		m.BettingOverUnder25GoalsUnder, m.CreatedAt, m.UpdatedAt,
	)
	return err
}

// DeleteCurrent remove a partida encerrada da projeção
func (r *PostgresRepo) DeleteCurrent(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM matches_current WHERE id = $1`, id)
	return err
}
