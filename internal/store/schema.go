package store

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// CoreSchema contains the table definitions for the branch-partitioned
// entity-relation graph: branches, entities, observations, relations,
// keywords, cross_references, plus ambient schema_version/store_metrics
// tables, grounded on the teacher's schema.go table-and-index layout.
const CoreSchema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- =============================================================================
-- BRANCHES TABLE
-- =============================================================================
CREATE TABLE IF NOT EXISTS branches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	purpose TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- =============================================================================
-- ENTITIES TABLE
-- =============================================================================
CREATE TABLE IF NOT EXISTS entities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	branch_id INTEGER NOT NULL,
	status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active','deprecated','archived','draft')),
	status_reason TEXT NOT NULL DEFAULT '',
	original_content TEXT NOT NULL DEFAULT '',
	optimized_content TEXT NOT NULL DEFAULT '',
	token_count INTEGER NOT NULL DEFAULT 0,
	compression_ratio REAL NOT NULL DEFAULT 1.0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_accessed DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (name, branch_id),
	FOREIGN KEY (branch_id) REFERENCES branches(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_entities_name ON entities(name);
CREATE INDEX IF NOT EXISTS idx_entities_branch_id ON entities(branch_id);
CREATE INDEX IF NOT EXISTS idx_entities_status ON entities(status);
CREATE INDEX IF NOT EXISTS idx_entities_entity_type ON entities(entity_type);
CREATE INDEX IF NOT EXISTS idx_entities_last_accessed ON entities(last_accessed);

-- =============================================================================
-- OBSERVATIONS TABLE
-- =============================================================================
CREATE TABLE IF NOT EXISTS observations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	entity_id INTEGER NOT NULL,
	content TEXT NOT NULL,
	optimized_content TEXT NOT NULL DEFAULT '',
	sequence_order INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (entity_id, sequence_order),
	FOREIGN KEY (entity_id) REFERENCES entities(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_observations_entity_id ON observations(entity_id);

-- =============================================================================
-- RELATIONS TABLE
-- =============================================================================
CREATE TABLE IF NOT EXISTS relations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	from_entity_id INTEGER NOT NULL,
	to_entity_id INTEGER NOT NULL,
	relation_type TEXT NOT NULL,
	branch_id INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (from_entity_id, to_entity_id, relation_type),
	FOREIGN KEY (from_entity_id) REFERENCES entities(id) ON DELETE CASCADE,
	FOREIGN KEY (to_entity_id) REFERENCES entities(id) ON DELETE CASCADE,
	FOREIGN KEY (branch_id) REFERENCES branches(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_relations_from_entity_id ON relations(from_entity_id);
CREATE INDEX IF NOT EXISTS idx_relations_to_entity_id ON relations(to_entity_id);
CREATE INDEX IF NOT EXISTS idx_relations_relation_type ON relations(relation_type);

-- =============================================================================
-- KEYWORDS TABLE
-- =============================================================================
CREATE TABLE IF NOT EXISTS keywords (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	keyword TEXT NOT NULL,
	entity_id INTEGER NOT NULL,
	weight REAL NOT NULL DEFAULT 1.0,
	context TEXT NOT NULL DEFAULT '',
	FOREIGN KEY (entity_id) REFERENCES entities(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_keywords_keyword ON keywords(keyword);
CREATE INDEX IF NOT EXISTS idx_keywords_entity_id ON keywords(entity_id);

-- =============================================================================
-- CROSS_REFERENCES TABLE
-- Stored by target name (not id) so targets may be added later.
-- =============================================================================
CREATE TABLE IF NOT EXISTS cross_references (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	from_entity_id INTEGER NOT NULL,
	target_branch_id INTEGER NOT NULL,
	target_entity_name TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (from_entity_id, target_branch_id, target_entity_name),
	FOREIGN KEY (from_entity_id) REFERENCES entities(id) ON DELETE CASCADE,
	FOREIGN KEY (target_branch_id) REFERENCES branches(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_cross_references_from_entity_id ON cross_references(from_entity_id);

-- =============================================================================
-- STORE METRICS TABLE (ambient observability, never read by core logic)
-- =============================================================================
CREATE TABLE IF NOT EXISTS store_metrics (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	operation TEXT NOT NULL,
	duration_ms REAL NOT NULL,
	row_count INTEGER NOT NULL DEFAULT 0,
	recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_store_metrics_operation ON store_metrics(operation);
`

// FTS5Schema contains the full-text search configuration: a standalone
// FTS5 virtual table mirroring (name, entity_type, optimized_content) of
// Entity, kept in sync by insert/update/delete triggers (invariant 3).
const FTS5Schema = `
CREATE VIRTUAL TABLE IF NOT EXISTS entities_fts USING fts5(
	name,
	entity_type,
	optimized_content,
	content='',
	tokenize='unicode61'
);

CREATE TRIGGER IF NOT EXISTS entities_fts_insert AFTER INSERT ON entities BEGIN
	INSERT INTO entities_fts(rowid, name, entity_type, optimized_content)
	VALUES (new.id, new.name, new.entity_type, new.optimized_content);
END;

CREATE TRIGGER IF NOT EXISTS entities_fts_delete AFTER DELETE ON entities BEGIN
	INSERT INTO entities_fts(entities_fts, rowid, name, entity_type, optimized_content)
	VALUES ('delete', old.id, old.name, old.entity_type, old.optimized_content);
END;

CREATE TRIGGER IF NOT EXISTS entities_fts_update AFTER UPDATE ON entities BEGIN
	INSERT INTO entities_fts(entities_fts, rowid, name, entity_type, optimized_content)
	VALUES ('delete', old.id, old.name, old.entity_type, old.optimized_content);
	INSERT INTO entities_fts(rowid, name, entity_type, optimized_content)
	VALUES (new.id, new.name, new.entity_type, new.optimized_content);
END;
`
