package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/maturity-cli/internal/db"
	"github.com/sells-group/maturity-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	benchmarksTable       = "benchmarks"
	benchmarkHistoryTable = "benchmark_history"
)

var benchmarkHistoryColumns = []string{"key", "sample_size", "overall", "dimensions", "recorded_at"}

const pgAssessmentColumns = `id, version, language, status, opt_in, company, answers, scores, created_at, updated_at, completed_at`

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"insert_assessment":   `INSERT INTO assessments (` + pgAssessmentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
	"save_answers":        `UPDATE assessments SET answers = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
	"complete_assessment": `UPDATE assessments SET scores = $1, status = $2, completed_at = $3, updated_at = $3 WHERE id = $4`,
	"get_assessment":      `SELECT ` + pgAssessmentColumns + ` FROM assessments WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns, minConns := int32(10), int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS assessments (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	version      TEXT NOT NULL,
	language     TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'in_progress',
	opt_in       BOOLEAN NOT NULL DEFAULT false,
	company      JSONB NOT NULL,
	answers      JSONB NOT NULL,
	scores       JSONB,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_assessments_status ON assessments(status);
CREATE INDEX IF NOT EXISTS idx_assessments_sector ON assessments((company->>'sector'));

CREATE TABLE IF NOT EXISTS benchmarks (
	key          TEXT PRIMARY KEY,
	position     INTEGER NOT NULL,
	sector       TEXT NOT NULL,
	company_size TEXT NOT NULL,
	region       TEXT NOT NULL DEFAULT '',
	sample_size  INTEGER NOT NULL,
	overall      JSONB NOT NULL,
	dimensions   JSONB NOT NULL,
	last_updated TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS benchmark_history (
	key         TEXT NOT NULL,
	sample_size INTEGER NOT NULL,
	overall     JSONB NOT NULL,
	dimensions  JSONB NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_benchmark_history_key ON benchmark_history(key, recorded_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateAssessment(ctx context.Context, a *model.Assessment) (*model.Assessment, error) {
	out := prepareAssessment(a, uuid.New().String(), time.Now().UTC())

	company, answers, scores, err := marshalAssessment(out)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create assessment")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO assessments (`+pgAssessmentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		out.ID, out.Version, out.Language, string(out.Status), out.OptIn,
		company, answers, scores, out.CreatedAt, out.UpdatedAt, out.CompletedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert assessment %s", out.ID)
	}
	return out, nil
}

func (s *PostgresStore) SaveAnswers(ctx context.Context, id string, answers model.AnswerMap) error {
	_, data, _, err := marshalAssessment(&model.Assessment{Answers: answers})
	if err != nil {
		return eris.Wrap(err, "postgres: save answers")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE assessments SET answers = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		data, time.Now().UTC(), id, string(model.AssessmentInProgress),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save answers %s", id)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists int
	err = s.pool.QueryRow(ctx, `SELECT 1 FROM assessments WHERE id = $1`, id).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return eris.Wrapf(ErrNotFound, "assessment %s", id)
	}
	if err != nil {
		return eris.Wrapf(err, "postgres: save answers %s", id)
	}
	return eris.Wrapf(ErrCompleted, "assessment %s", id)
}

func (s *PostgresStore) CompleteAssessment(ctx context.Context, id string, scores *model.Scores, at time.Time) error {
	_, _, data, err := marshalAssessment(&model.Assessment{Scores: scores})
	if err != nil {
		return eris.Wrap(err, "postgres: complete assessment")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE assessments SET scores = $1, status = $2, completed_at = $3, updated_at = $3 WHERE id = $4`,
		data, string(model.AssessmentCompleted), at.UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete assessment %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "assessment %s", id)
	}
	return nil
}

func (s *PostgresStore) GetAssessment(ctx context.Context, id string) (*model.Assessment, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgAssessmentColumns+` FROM assessments WHERE id = $1`, id)
	a, err := scanPgAssessment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get assessment %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get assessment %s", id)
	}
	return a, nil
}

func (s *PostgresStore) ListAssessments(ctx context.Context, filter AssessmentFilter) ([]model.Assessment, error) {
	query := `SELECT ` + pgAssessmentColumns + ` FROM assessments WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Sector != "" {
		query += fmt.Sprintf(` AND company->>'sector' = $%d`, argIdx)
		args = append(args, filter.Sector)
		argIdx++
	}
	if filter.OptInOnly {
		query += ` AND opt_in`
	}
	query += ` ORDER BY created_at, id`
	if lim := filter.limit(); lim > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, lim)
		argIdx++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list assessments")
	}
	defer rows.Close()

	var out []model.Assessment
	for rows.Next() {
		a, err := scanPgAssessment(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan assessment")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list assessments iterate")
}

// UpsertBenchmarks replaces cohort rows by key and appends a snapshot of each
// entry to the history table. Both writes share one transaction.
func (s *PostgresStore) UpsertBenchmarks(ctx context.Context, entries []model.BenchmarkData) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	if err := checkBenchmarkKeys(entries); err != nil {
		return 0, err
	}

	rows := make([][]any, 0, len(entries))
	history := make([][]any, 0, len(entries))
	now := time.Now().UTC()
	for i, e := range entries {
		row, err := benchmarkRow(i, e)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: upsert benchmarks")
		}
		rows = append(rows, row)
		history = append(history, []any{e.Key, e.SampleSize, row[6], row[7], now})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert benchmarks: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	n, err := db.UpsertTx(ctx, tx, db.UpsertConfig{
		Table:        benchmarksTable,
		Columns:      benchmarkColumns,
		ConflictKeys: []string{"key"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert benchmarks")
	}
	if _, err := db.AppendRows(ctx, tx, benchmarkHistoryTable, benchmarkHistoryColumns, history); err != nil {
		return 0, eris.Wrap(err, "postgres: record benchmark history")
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: upsert benchmarks: commit tx")
	}
	return n, nil
}

func (s *PostgresStore) ListBenchmarks(ctx context.Context) ([]model.BenchmarkData, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key, sector, company_size, region, sample_size, overall, dimensions, last_updated
		 FROM benchmarks ORDER BY position, key`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list benchmarks")
	}
	defer rows.Close()

	var out []model.BenchmarkData
	for rows.Next() {
		var e model.BenchmarkData
		var overall, dims []byte
		if err := rows.Scan(&e.Key, &e.Sector, &e.CompanySize, &e.Region, &e.SampleSize, &overall, &dims, &e.LastUpdated); err != nil {
			return nil, eris.Wrap(err, "postgres: scan benchmark")
		}
		if err := unmarshalBenchmarkStats(overall, dims, &e); err != nil {
			return nil, eris.Wrap(err, "postgres: list benchmarks")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list benchmarks iterate")
}

func scanPgAssessment(row pgx.Row) (*model.Assessment, error) {
	var a model.Assessment
	var status string
	var company, answers []byte
	var scores *[]byte

	err := row.Scan(&a.ID, &a.Version, &a.Language, &status, &a.OptIn,
		&company, &answers, &scores, &a.CreatedAt, &a.UpdatedAt, &a.CompletedAt)
	if err != nil {
		return nil, err
	}
	a.Status = model.AssessmentStatus(status)

	var scoreData []byte
	if scores != nil {
		scoreData = *scores
	}
	if err := unmarshalAssessment(&a, company, answers, scoreData); err != nil {
		return nil, err
	}
	return &a, nil
}
