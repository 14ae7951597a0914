package store

import "fmt"

// VectorDims is the length of the per-actor metric vector: pagerank,
// degree centrality, closeness, betweenness and clustering.
const VectorDims = 5

// schemaSQL returns the DDL for all tables. dims controls the vec0
// virtual table dimension.
func schemaSQL(dims int) string {
	return fmt.Sprintf(`
-- One row per finished pipeline run
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    shape TEXT NOT NULL,
    algorithm TEXT NOT NULL,
    params JSON,
    metric TEXT NOT NULL,
    nodes INTEGER NOT NULL,
    edges INTEGER NOT NULL,
    communities INTEGER NOT NULL,
    modularity REAL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Community-size table per run
CREATE TABLE IF NOT EXISTS run_communities (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    community_id INTEGER NOT NULL,
    size INTEGER NOT NULL,
    PRIMARY KEY (run_id, community_id)
);

-- Per-actor measures per run
CREATE TABLE IF NOT EXISTS actor_stats (
    id INTEGER PRIMARY KEY,
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    actor TEXT NOT NULL,
    community_id INTEGER NOT NULL,
    degree INTEGER NOT NULL,
    pagerank REAL NOT NULL,
    degree_centrality REAL NOT NULL,
    closeness REAL NOT NULL,
    betweenness REAL NOT NULL,
    triangles INTEGER NOT NULL,
    clustering REAL NOT NULL,
    UNIQUE(run_id, actor)
);

-- Metric vectors via sqlite-vec
CREATE VIRTUAL TABLE IF NOT EXISTS vec_actor_stats USING vec0(
    stat_id INTEGER PRIMARY KEY,
    embedding float[%d]
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_actor_stats_run ON actor_stats(run_id);
CREATE INDEX IF NOT EXISTS idx_run_communities_run ON run_communities(run_id);
`, dims)
}
