package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/radieske/live-matches-poc/pkg/contracts/events"
)

var ErrNotFound = errors.New("match not found")

type ReadRepo struct {
	DB *sql.DB
}

// ListFilter restringe a listagem; Limit <= 0 devolve tudo
type ListFilter struct {
	Sport events.Sport
	Limit int
}

const columns = `
	id, team1_name, team2_name, team1_score, team2_score, sport, start_time, status,
	home_win_probability, betting_1x2_home_win, betting_1x2_draw, betting_1x2_away_win,
	betting_double_chance_home_win_draw, betting_double_chance_away_win_draw,
	betting_double_chance_home_win_away_win, betting_over_under_2_5_goals_over,
	betting_over_under_2_5_goals_under, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(s scanner) (events.Match, error) {
	var m events.Match
	err := s.Scan(
		&m.ID, &m.Team1Name, &m.Team2Name, &m.Team1Score, &m.Team2Score, &m.Sport, &m.StartTime, &m.Status,
		&m.HomeWinProbability, &m.Betting1x2HomeWin, &m.Betting1x2Draw, &m.Betting1x2AwayWin,
		&m.BettingDoubleChanceHomeWinDraw, &m.BettingDoubleChanceAwayWinDraw,
		&m.BettingDoubleChanceHomeWinAwayWin, &m.BettingOverUnder25GoalsOver,
		&m.BettingOverUnder25GoalsUnder, &m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}

// ListMatches lista as partidas ao vivo ordenadas por id
func (r *ReadRepo) ListMatches(ctx context.Context, f ListFilter) ([]events.Match, error) {
	var (
		q    strings.Builder
		args []any
	)
	q.WriteString("SELECT" + columns + "\n\tFROM matches_current")
	if f.Sport != "" {
		args = append(args, string(f.Sport))
		fmt.Fprintf(&q, "\n\tWHERE sport = $%d", len(args))
	}
	q.WriteString("\n\tORDER BY id")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&q, "\n\tLIMIT $%d", len(args))
	}

	rows, err := r.DB.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []events.Match{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMatch busca uma partida pelo id; ErrNotFound se não existir
func (r *ReadRepo) GetMatch(ctx context.Context, id int64) (events.Match, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT"+columns+"\n\tFROM matches_current\n\tWHERE id = $1", id)
	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound
	}
	return m, err
}
