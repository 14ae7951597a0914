package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// ErrNotFound is returned when a run or actor does not exist.
var ErrNotFound = errors.New("store: not found")

// Run represents a row in the runs table.
type Run struct {
	ID          string  `json:"id"`
	Source      string  `json:"source"`
	Shape       string  `json:"shape"`
	Algorithm   string  `json:"algorithm"`
	Params      string  `json:"params,omitempty"` // JSON object
	Metric      string  `json:"metric"`
	Nodes       int     `json:"nodes"`
	Edges       int     `json:"edges"`
	Communities int     `json:"communities"`
	Modularity  float64 `json:"modularity"`
	CreatedAt   string  `json:"created_at"`
}

// RunCommunity represents a row in the run_communities table.
type RunCommunity struct {
	RunID       string `json:"run_id"`
	CommunityID int    `json:"community_id"`
	Size        int    `json:"size"`
}

// ActorStat represents a row in the actor_stats table.
type ActorStat struct {
	ID               int64   `json:"id"`
	RunID            string  `json:"run_id"`
	Actor            string  `json:"actor"`
	CommunityID      int     `json:"community_id"`
	Degree           int     `json:"degree"`
	PageRank         float64 `json:"pagerank"`
	DegreeCentrality float64 `json:"degree_centrality"`
	Closeness        float64 `json:"closeness"`
	Betweenness      float64 `json:"betweenness"`
	Triangles        int     `json:"triangles"`
	Clustering       float64 `json:"clustering"`
}

// Vector returns the metric vector stored in vec_actor_stats.
func (a ActorStat) Vector() []float32 {
	return []float32{
		float32(a.PageRank),
		float32(a.DegreeCentrality),
		float32(a.Closeness),
		float32(a.Betweenness),
		float32(a.Clustering),
	}
}

// SimilarActor is an actor with its L2 distance to a query actor.
type SimilarActor struct {
	ActorStat
	Distance float64 `json:"distance"`
}

// Store wraps the SQLite database for the run log.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema including the sqlite-vec virtual table.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL(VectorDims)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}

	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// --- Run operations ---

// InsertRun records a finished run with its community sizes and per-actor
// measures in a single transaction. Actor IDs are ignored and assigned by
// the database.
func (s *Store) InsertRun(ctx context.Context, run Run, communities []RunCommunity, actors []ActorStat) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, source, shape, algorithm, params, metric, nodes, edges, communities, modularity)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID, run.Source, run.Shape, run.Algorithm, nullString(run.Params), run.Metric,
			run.Nodes, run.Edges, run.Communities, run.Modularity); err != nil {
			return fmt.Errorf("inserting run: %w", err)
		}

		commStmt, err := tx.PrepareContext(ctx,
			"INSERT INTO run_communities (run_id, community_id, size) VALUES (?, ?, ?)")
		if err != nil {
			return err
		}
		defer commStmt.Close()
		for _, c := range communities {
			if _, err := commStmt.ExecContext(ctx, run.ID, c.CommunityID, c.Size); err != nil {
				return fmt.Errorf("inserting community %d: %w", c.CommunityID, err)
			}
		}

		statStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO actor_stats (run_id, actor, community_id, degree, pagerank,
				degree_centrality, closeness, betweenness, triangles, clustering)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer statStmt.Close()

		vecStmt, err := tx.PrepareContext(ctx,
			"INSERT INTO vec_actor_stats (stat_id, embedding) VALUES (?, ?)")
		if err != nil {
			return err
		}
		defer vecStmt.Close()

		for _, a := range actors {
			res, err := statStmt.ExecContext(ctx, run.ID, a.Actor, a.CommunityID, a.Degree,
				a.PageRank, a.DegreeCentrality, a.Closeness, a.Betweenness, a.Triangles, a.Clustering)
			if err != nil {
				return fmt.Errorf("inserting stats for %q: %w", a.Actor, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			if _, err := vecStmt.ExecContext(ctx, id, serializeFloat32(a.Vector())); err != nil {
				return fmt.Errorf("inserting vector for %q: %w", a.Actor, err)
			}
		}
		return nil
	})
}

const runColumns = `id, source, shape, algorithm, params, metric, nodes, edges, communities, modularity, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	r := &Run{}
	var params sql.NullString
	var modularity sql.NullFloat64
	if err := row.Scan(&r.ID, &r.Source, &r.Shape, &r.Algorithm, &params, &r.Metric,
		&r.Nodes, &r.Edges, &r.Communities, &modularity, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Params = params.String
	r.Modularity = modularity.Float64
	return r, nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return r, err
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// RunCommunities returns the community sizes of a run, largest first.
func (s *Store) RunCommunities(ctx context.Context, runID string) ([]RunCommunity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, community_id, size FROM run_communities
		WHERE run_id = ? ORDER BY size DESC, community_id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunCommunity
	for rows.Next() {
		var c RunCommunity
		if err := rows.Scan(&c.RunID, &c.CommunityID, &c.Size); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const statColumns = `a.id, a.run_id, a.actor, a.community_id, a.degree, a.pagerank,
	a.degree_centrality, a.closeness, a.betweenness, a.triangles, a.clustering`

func scanStat(row scanner, extra ...any) (ActorStat, error) {
	var a ActorStat
	dest := []any{&a.ID, &a.RunID, &a.Actor, &a.CommunityID, &a.Degree, &a.PageRank,
		&a.DegreeCentrality, &a.Closeness, &a.Betweenness, &a.Triangles, &a.Clustering}
	err := row.Scan(append(dest, extra...)...)
	return a, err
}

// ActorStats returns the per-actor measures of a run in insertion order.
func (s *Store) ActorStats(ctx context.Context, runID string) ([]ActorStat, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+statColumns+" FROM actor_stats a WHERE a.run_id = ? ORDER BY a.id", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActorStat
	for rows.Next() {
		a, err := scanStat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SimilarActors returns up to k actors of the same run whose metric
// vectors are nearest to actor's, by L2 distance. The actor itself is
// excluded.
func (s *Store) SimilarActors(ctx context.Context, runID, actor string, k int) ([]SimilarActor, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM actor_stats WHERE run_id = ? AND actor = ?", runID, actor).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("actor %q in run %s: %w", actor, runID, ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+statColumns+`, vec_distance_l2(v.embedding, qv.embedding) AS distance
		FROM actor_stats a
		JOIN vec_actor_stats v ON v.stat_id = a.id
		JOIN actor_stats q ON q.run_id = a.run_id AND q.actor = ?
		JOIN vec_actor_stats qv ON qv.stat_id = q.id
		WHERE a.run_id = ? AND a.actor != ?
		ORDER BY distance, a.actor
		LIMIT ?
	`, actor, runID, actor, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SimilarActor
	for rows.Next() {
		var d float64
		a, err := scanStat(rows, &d)
		if err != nil {
			return nil, err
		}
		out = append(out, SimilarActor{ActorStat: a, Distance: d})
	}
	return out, rows.Err()
}

// DeleteRun removes a run and everything recorded for it.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		// vec0 tables take no part in foreign-key cascades.
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM vec_actor_stats WHERE stat_id IN (
				SELECT id FROM actor_stats WHERE run_id = ?
			)`, id); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("run %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// DBStats holds counts of key database objects.
type DBStats struct {
	Runs        int `json:"runs"`
	Communities int `json:"communities"`
	Actors      int `json:"actors"`
	Vectors     int `json:"vectors"`
}

// DBStats returns counts of runs, communities, actor rows and vectors.
func (s *Store) DBStats(ctx context.Context) (*DBStats, error) {
	stats := &DBStats{}
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM runs", &stats.Runs},
		{"SELECT COUNT(*) FROM run_communities", &stats.Communities},
		{"SELECT COUNT(*) FROM actor_stats", &stats.Actors},
		{"SELECT COUNT(*) FROM vec_actor_stats", &stats.Vectors},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("counting %s: %w", q.query, err)
		}
	}
	return stats, nil
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// serializeFloat32 converts a float32 slice to little-endian bytes for sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
