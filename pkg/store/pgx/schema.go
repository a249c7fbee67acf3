package pgx

import "context"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS graph_nodes (
		label TEXT NOT NULL,
		id TEXT NOT NULL,
		base_label TEXT NOT NULL DEFAULT '',
		props JSONB NOT NULL DEFAULT '{}',
		PRIMARY KEY (label, id)
	)`,
	`CREATE TABLE IF NOT EXISTS graph_relationships (
		source_label TEXT NOT NULL,
		source_id TEXT NOT NULL,
		target_label TEXT NOT NULL,
		target_id TEXT NOT NULL,
		type TEXT NOT NULL,
		props JSONB NOT NULL DEFAULT '{}',
		PRIMARY KEY (source_label, source_id, target_label, target_id, type)
	)`,
	`CREATE TABLE IF NOT EXISTS graph_sources (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		chunk_index INT NOT NULL,
		metadata JSONB NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE IF NOT EXISTS graph_mentions (
		source_id TEXT NOT NULL,
		node_label TEXT NOT NULL,
		node_id TEXT NOT NULL,
		PRIMARY KEY (source_id, node_label, node_id)
	)`,
}

// EnsureSchema creates the graph tables if they do not exist yet. The
// schema is a single fixed shape, so there is no migration history.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.conn.Exec(ctx, stmt); err != nil {
			return wrapPgErr(err)
		}
	}
	return nil
}
