package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite" // driver

	"github.com/sells-group/maturity-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS assessments (
	id           TEXT PRIMARY KEY,
	version      TEXT NOT NULL,
	language     TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'in_progress',
	opt_in       INTEGER NOT NULL DEFAULT 0,
	company      TEXT NOT NULL,
	answers      TEXT NOT NULL,
	scores       TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS benchmarks (
	key          TEXT PRIMARY KEY,
	position     INTEGER NOT NULL,
	sector       TEXT NOT NULL,
	company_size TEXT NOT NULL,
	region       TEXT NOT NULL DEFAULT '',
	sample_size  INTEGER NOT NULL,
	overall      TEXT NOT NULL,
	dimensions   TEXT NOT NULL,
	last_updated DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assessments_status ON assessments(status);
CREATE INDEX IF NOT EXISTS idx_assessments_sector ON assessments(json_extract(company, '$.sector'));
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateAssessment(ctx context.Context, a *model.Assessment) (*model.Assessment, error) {
	out := prepareAssessment(a, uuid.New().String(), time.Now().UTC())

	company, answers, scores, err := marshalAssessment(out)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: create assessment")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assessments (id, version, language, status, opt_in, company, answers, scores, created_at, updated_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		out.ID, out.Version, out.Language, string(out.Status), out.OptIn,
		string(company), string(answers), nullString(scores),
		out.CreatedAt, out.UpdatedAt, nullTime(out.CompletedAt),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert assessment %s", out.ID)
	}
	return out, nil
}

func (s *SQLiteStore) SaveAnswers(ctx context.Context, id string, answers model.AnswerMap) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal answers")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE assessments SET answers = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(data), time.Now().UTC(), id, string(model.AssessmentInProgress),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save answers %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n > 0 {
		return nil
	}
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM assessments WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return eris.Wrapf(ErrNotFound, "assessment %s", id)
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: save answers %s", id)
	}
	return eris.Wrapf(ErrCompleted, "assessment %s", id)
}

func (s *SQLiteStore) CompleteAssessment(ctx context.Context, id string, scores *model.Scores, at time.Time) error {
	data, err := json.Marshal(scores)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal scores")
	}
	at = at.UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE assessments SET scores = ?, status = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
		string(data), string(model.AssessmentCompleted), at, at, id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete assessment %s", id)
	}
	return checkRowsAffected(res, "assessment", id)
}

const sqliteAssessmentColumns = `id, version, language, status, opt_in, company, answers, scores, created_at, updated_at, completed_at`

func (s *SQLiteStore) GetAssessment(ctx context.Context, id string) (*model.Assessment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteAssessmentColumns+` FROM assessments WHERE id = ?`, id)
	a, err := scanAssessment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: assessment %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get assessment %s", id)
	}
	return a, nil
}

func (s *SQLiteStore) ListAssessments(ctx context.Context, filter AssessmentFilter) ([]model.Assessment, error) {
	query := `SELECT ` + sqliteAssessmentColumns + ` FROM assessments WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Sector != "" {
		query += ` AND json_extract(company, '$.sector') = ?`
		args = append(args, filter.Sector)
	}
	if filter.OptInOnly {
		query += ` AND opt_in = 1`
	}
	query += ` ORDER BY created_at, id`
	if lim := filter.limit(); lim > 0 {
		query += ` LIMIT ?`
		args = append(args, lim)
	} else if filter.Offset > 0 {
		query += ` LIMIT -1`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list assessments")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan assessment")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list assessments iterate")
}

func (s *SQLiteStore) UpsertBenchmarks(ctx context.Context, entries []model.BenchmarkData) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	if err := checkBenchmarkKeys(entries); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin benchmarks tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO benchmarks (key, position, sector, company_size, region, sample_size, overall, dimensions, last_updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			position = excluded.position, sector = excluded.sector, company_size = excluded.company_size,
			region = excluded.region, sample_size = excluded.sample_size, overall = excluded.overall,
			dimensions = excluded.dimensions, last_updated = excluded.last_updated`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare benchmark upsert")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for i, e := range entries {
		row, err := benchmarkRow(i, e)
		if err != nil {
			return 0, err
		}
		for j, v := range row {
			if b, ok := v.([]byte); ok {
				row[j] = string(b)
			}
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert benchmark %s", e.Key)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit benchmarks")
	}
	return n, nil
}

func (s *SQLiteStore) ListBenchmarks(ctx context.Context) ([]model.BenchmarkData, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, sector, company_size, region, sample_size, overall, dimensions, last_updated
		 FROM benchmarks ORDER BY position, key`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list benchmarks")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.BenchmarkData
	for rows.Next() {
		var e model.BenchmarkData
		var overall, dims string
		if err := rows.Scan(&e.Key, &e.Sector, &e.CompanySize, &e.Region, &e.SampleSize, &overall, &dims, &e.LastUpdated); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan benchmark")
		}
		if err := unmarshalBenchmarkStats([]byte(overall), []byte(dims), &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list benchmarks iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAssessment(row scannable) (*model.Assessment, error) {
	var a model.Assessment
	var company, answers string
	var scores sql.NullString
	var completed sql.NullTime

	err := row.Scan(&a.ID, &a.Version, &a.Language, &a.Status, &a.OptIn,
		&company, &answers, &scores, &a.CreatedAt, &a.UpdatedAt, &completed)
	if err != nil {
		return nil, err
	}
	var scoreData []byte
	if scores.Valid {
		scoreData = []byte(scores.String)
	}
	if err := unmarshalAssessment(&a, []byte(company), []byte(answers), scoreData); err != nil {
		return nil, err
	}
	if completed.Valid {
		t := completed.Time
		a.CompletedAt = &t
	}
	return &a, nil
}

func nullString(b []byte) sql.NullString {
	if b == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
