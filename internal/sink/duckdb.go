// Package sink is the reference implementation of the persistence
// collaborator: it lands results, trades and progress in an embedded
// DuckDB database and can export the tables to parquet. The simulation
// core only depends on the writer interfaces, so any other store can
// replace this one.
package sink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/tradearena/arena/internal/logger"
	"github.com/tradearena/arena/internal/types"
	"github.com/tradearena/arena/pkg/errors"
)

// DuckDBSink stores per-agent results and round progress in an
// in-memory DuckDB database. Safe for concurrent use.
type DuckDBSink struct {
	db  *sql.DB
	sq  squirrel.StatementBuilderType
	log *logger.Logger
	mu  sync.Mutex
}

func NewDuckDBSink(log *logger.Logger) (*DuckDBSink, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSinkInitFailed, "opening DuckDB connection", err)
	}
	return &DuckDBSink{
		db:  db,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		log: log,
	}, nil
}

// Initialize creates the result, trade, series and progress tables.
func (s *DuckDBSink) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS results (
			agent_id TEXT PRIMARY KEY,
			final_equity DOUBLE,
			total_return_pct DOUBLE,
			max_drawdown_pct DOUBLE,
			sharpe DOUBLE,
			calmar DOUBLE,
			sortino DOUBLE,
			win_rate_pct DOUBLE,
			profit_factor DOUBLE,
			alpha DOUBLE,
			beta DOUBLE,
			information_ratio DOUBLE,
			total_trades INTEGER,
			survival_ticks INTEGER,
			is_killed BOOLEAN,
			kill_reason TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			agent_id TEXT,
			tick INTEGER,
			timestamp TIMESTAMP,
			action TEXT,
			price DOUBLE,
			executed_price DOUBLE,
			size DOUBLE,
			cost DOUBLE,
			pnl DOUBLE,
			equity_after DOUBLE,
			reason TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS series (
			agent_id TEXT,
			name TEXT,
			tick INTEGER,
			timestamp TIMESTAMP,
			value DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS progress (
			progress_pct INTEGER,
			agents_processed INTEGER,
			total_agents INTEGER,
			updated_at TIMESTAMP
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(errors.ErrCodeSinkInitFailed, "creating sink tables", err)
		}
	}
	return nil
}

// WriteProgress appends one progress row.
func (s *DuckDBSink) WriteProgress(ctx context.Context, progress types.RoundProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, args, err := s.sq.
		Insert("progress").
		Columns("progress_pct", "agents_processed", "total_agents", "updated_at").
		Values(progress.ProgressPct, progress.AgentsProcessed, progress.TotalAgents, time.Now().UTC()).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeSinkWriteFailed, "building progress insert", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeSinkWriteFailed, "writing progress", err)
	}
	return nil
}

// WriteResult persists one agent's result record, its trades and its
// chart series in a single transaction.
func (s *DuckDBSink) WriteResult(ctx context.Context, result types.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSinkWriteFailed, "starting result transaction", err)
	}

	agentID := result.AgentID.String()

	query, args, err := s.sq.
		Insert("results").
		Columns(
			"agent_id", "final_equity", "total_return_pct", "max_drawdown_pct",
			"sharpe", "calmar", "sortino", "win_rate_pct", "profit_factor",
			"alpha", "beta", "information_ratio",
			"total_trades", "survival_ticks", "is_killed", "kill_reason",
		).
		Values(
			agentID, result.FinalEquity, result.TotalReturnPct, result.MaxDrawdownPct,
			nullableFloat(result.Sharpe), nullableFloat(result.Calmar), nullableFloat(result.Sortino),
			nullableFloat(result.WinRatePct), nullableFloat(result.ProfitFactor),
			nullableFloat(result.Alpha), nullableFloat(result.Beta), nullableFloat(result.InformationRatio),
			result.TotalTrades, result.SurvivalTicks, result.IsKilled, result.KillReason,
		).
		ToSql()
	if err != nil {
		tx.Rollback()
		return errors.Wrap(errors.ErrCodeSinkWriteFailed, "building result insert", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		tx.Rollback()
		return errors.Wrapf(errors.ErrCodeSinkWriteFailed, err, "writing result for agent %s", agentID)
	}

	for _, trade := range result.Trades {
		query, args, err := s.sq.
			Insert("trades").
			Columns(
				"agent_id", "tick", "timestamp", "action", "price", "executed_price",
				"size", "cost", "pnl", "equity_after", "reason",
			).
			Values(
				agentID, trade.Tick, nullableTime(trade.Timestamp), string(trade.Action),
				trade.Price, trade.ExecutedPrice, trade.Size, trade.Cost,
				trade.Pnl, trade.EquityAfter, trade.Reason,
			).
			ToSql()
		if err != nil {
			tx.Rollback()
			return errors.Wrap(errors.ErrCodeSinkWriteFailed, "building trade insert", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			tx.Rollback()
			return errors.Wrapf(errors.ErrCodeSinkWriteFailed, err, "writing trade for agent %s", agentID)
		}
	}

	if err := s.writeSeries(ctx, tx, agentID, "equity_curve", result.EquityCurve); err != nil {
		tx.Rollback()
		return err
	}
	if err := s.writeSeries(ctx, tx, agentID, "cumulative_alpha", result.CumulativeAlpha); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrapf(errors.ErrCodeSinkWriteFailed, err, "committing result for agent %s", agentID)
	}

	if s.log != nil {
		s.log.Debug("result persisted",
			zap.String("agent", agentID),
			zap.Int("trades", len(result.Trades)))
	}
	return nil
}

// marketSeriesID is the reserved series owner for round-level data such
// as the instrument price path and the benchmark return series.
const marketSeriesID = "market"

// WriteMarketSeries persists a round-level chart series shared by all
// agents, keyed under the reserved market owner.
func (s *DuckDBSink) WriteMarketSeries(ctx context.Context, name string, points []types.ChartPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSinkWriteFailed, "starting market series transaction", err)
	}
	if err := s.writeSeries(ctx, tx, marketSeriesID, name, points); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(errors.ErrCodeSinkWriteFailed, err, "committing %s series", name)
	}
	return nil
}

func (s *DuckDBSink) writeSeries(ctx context.Context, tx *sql.Tx, agentID, name string, points []types.ChartPoint) error {
	for _, p := range points {
		query, args, err := s.sq.
			Insert("series").
			Columns("agent_id", "name", "tick", "timestamp", "value").
			Values(agentID, name, p.Tick, nullableTime(p.Timestamp), p.Value).
			ToSql()
		if err != nil {
			return errors.Wrap(errors.ErrCodeSinkWriteFailed, "building series insert", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return errors.Wrapf(errors.ErrCodeSinkWriteFailed, err, "writing %s series for agent %s", name, agentID)
		}
	}
	return nil
}

// LeaderboardRow is one line of the final-equity ranking.
type LeaderboardRow struct {
	AgentID     string
	FinalEquity float64
	TotalReturn float64
	IsKilled    bool
}

// Leaderboard returns agents ranked by final equity, best first.
func (s *DuckDBSink) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, args, err := s.sq.
		Select("agent_id", "final_equity", "total_return_pct", "is_killed").
		From("results").
		OrderBy("final_equity DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSinkQueryFailed, "building leaderboard query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSinkQueryFailed, "querying leaderboard", err)
	}
	defer rows.Close()

	var leaderboard []LeaderboardRow
	for rows.Next() {
		var row LeaderboardRow
		if err := rows.Scan(&row.AgentID, &row.FinalEquity, &row.TotalReturn, &row.IsKilled); err != nil {
			return nil, errors.Wrap(errors.ErrCodeSinkQueryFailed, "scanning leaderboard row", err)
		}
		leaderboard = append(leaderboard, row)
	}
	return leaderboard, rows.Err()
}

// TradesForAgent returns the number of persisted trades for one agent.
func (s *DuckDBSink) TradesForAgent(ctx context.Context, agentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, args, err := s.sq.
		Select("COUNT(*)").
		From("trades").
		Where(squirrel.Eq{"agent_id": agentID}).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeSinkQueryFailed, "building trade count query", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeSinkQueryFailed, err, "counting trades for agent %s", agentID)
	}
	return count, nil
}

// Export writes every table to parquet files under dir.
func (s *DuckDBSink) Export(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeSinkExportError, "creating export directory", err)
	}

	for _, table := range []string{"results", "trades", "series", "progress"} {
		path := filepath.Join(dir, table+".parquet")
		stmt := fmt.Sprintf("COPY %s TO '%s' (FORMAT PARQUET)", table, path)
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrapf(errors.ErrCodeSinkExportError, err, "exporting %s", table)
		}
	}
	return nil
}

// Close releases the database.
func (s *DuckDBSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return errors.Wrap(errors.ErrCodeSinkWriteFailed, "closing sink database", err)
	}
	return nil
}
