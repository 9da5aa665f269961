// ABOUTME: SQLite database schema for transcript chunk trees
// ABOUTME: Creates the transcripts and chunks tables with their indexes
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- One row per ingested transcript
CREATE TABLE IF NOT EXISTS transcripts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    source TEXT,
    guest_name TEXT,
    summary TEXT,
    chunk_count INTEGER DEFAULT 0,
    level_counts TEXT,
    degraded INTEGER DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Chunk tree nodes; parent_id is filled in after every node has an id
CREATE TABLE IF NOT EXISTS chunks (
    id TEXT PRIMARY KEY,
    transcript_id TEXT NOT NULL REFERENCES transcripts(id) ON DELETE CASCADE,
    parent_id TEXT,
    level TEXT NOT NULL,
    sequence_index INTEGER NOT NULL,
    text TEXT NOT NULL,
    full_text TEXT,
    start_time TEXT,
    end_time TEXT,
    speaker TEXT,
    topic_boundary INTEGER DEFAULT 0,
    title TEXT,
    theme TEXT,
    summary TEXT,
    guest_name TEXT,
    vector BLOB NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (transcript_id, sequence_index)
);

CREATE INDEX IF NOT EXISTS idx_chunks_transcript ON chunks(transcript_id);
CREATE INDEX IF NOT EXISTS idx_chunks_level ON chunks(level);
CREATE INDEX IF NOT EXISTS idx_chunks_parent ON chunks(parent_id);
CREATE INDEX IF NOT EXISTS idx_transcripts_created ON transcripts(created_at);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
