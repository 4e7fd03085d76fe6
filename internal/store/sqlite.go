package store

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA cache_size = -64000;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS conversations (
    id          TEXT PRIMARY KEY,
    source      TEXT NOT NULL,
    title       TEXT NOT NULL DEFAULT '',
    create_time REAL NOT NULL DEFAULT 0,
    update_time REAL NOT NULL DEFAULT 0,
    starred     INTEGER NOT NULL DEFAULT 0,
    pair_count  INTEGER NOT NULL DEFAULT 0,
    payload     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    conversation_id TEXT NOT NULL,
    seq             INTEGER NOT NULL,
    message_id      TEXT NOT NULL,
    pair_index      INTEGER NOT NULL,
    role            TEXT NOT NULL,
    kind            TEXT NOT NULL DEFAULT 'text',
    ts              REAL NOT NULL DEFAULT 0,
    text            TEXT NOT NULL,
    PRIMARY KEY (conversation_id, seq)
);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    text,
    content=messages,
    content_rowid=rowid,
    tokenize='unicode61'
);

CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, text) VALUES('delete', old.rowid, old.text);
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, text) VALUES('delete', old.rowid, old.text);
    INSERT INTO messages_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);
`

// schemaVersion should be bumped whenever the messages rows derived from a
// payload change shape, so existing databases get their search rows rebuilt.
const schemaVersion = "1"

// Message row kinds.
const (
	KindText     = "text"
	KindThinking = "thinking"
	KindArtifact = "artifact"
)

// SQLite keeps each conversation as a JSON payload plus one searchable row
// per message text, thinking block and artifact.
type SQLite struct {
	db   *sql.DB
	path string
}

func OpenSQLite(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "create db dir")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "init schema")
	}

	s := &SQLite{db: db, path: dbPath}
	if err := s.migrateSchemaVersion(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrateSchemaVersion() error {
	var ver string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err == nil && ver == schemaVersion {
		return nil
	}

	convs, err := s.LoadAll()
	if err != nil {
		return errors.Wrap(err, "migrate: load payloads")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "migrate")
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages"); err != nil {
		return errors.Wrap(err, "migrate: clear messages")
	}
	for i := range convs {
		if err := insertMessages(tx, &convs[i]); err != nil {
			return errors.Wrapf(err, "migrate: reindex %s", convs[i].ID)
		}
	}
	if _, err := tx.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion); err != nil {
		return errors.Wrap(err, "migrate: write version")
	}
	return errors.Wrap(tx.Commit(), "migrate: commit")
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// Raw exposes the handle for full-text queries.
func (s *SQLite) Raw() *sql.DB {
	return s.db
}

func (s *SQLite) Path() string {
	return s.path
}

func (s *SQLite) LoadAll() ([]parse.Conversation, error) {
	rows, err := s.db.Query("SELECT payload FROM conversations ORDER BY update_time DESC, id ASC")
	if err != nil {
		return nil, errors.Wrap(err, "load conversations")
	}
	defer rows.Close()

	var convs []parse.Conversation
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, errors.Wrap(err, "scan conversation")
		}
		var c parse.Conversation
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			return nil, errors.Wrap(err, "decode conversation payload")
		}
		convs = append(convs, c)
	}
	return convs, errors.Wrap(rows.Err(), "load conversations")
}

func (s *SQLite) Get(id string) (*parse.Conversation, error) {
	var payload string
	err := s.db.QueryRow("SELECT payload FROM conversations WHERE id = ?", id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get conversation %s", id)
	}
	var c parse.Conversation
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, errors.Wrapf(err, "decode conversation %s", id)
	}
	return &c, nil
}

func (s *SQLite) SaveAll(convs []parse.Conversation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin save")
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages"); err != nil {
		return errors.Wrap(err, "clear messages")
	}
	if _, err := tx.Exec("DELETE FROM conversations"); err != nil {
		return errors.Wrap(err, "clear conversations")
	}

	stmt, err := tx.Prepare(
		`INSERT INTO conversations (id, source, title, create_time, update_time, starred, pair_count, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return errors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	for i := range convs {
		c := &convs[i]
		payload, err := json.Marshal(c)
		if err != nil {
			return errors.Wrapf(err, "encode conversation %s", c.ID)
		}
		if _, err := stmt.Exec(c.ID, string(c.Source), c.Title, c.CreateTime, c.UpdateTime,
			c.Starred, len(c.Pairs), string(payload)); err != nil {
			return errors.Wrapf(err, "insert conversation %s", c.ID)
		}
		if err := insertMessages(tx, c); err != nil {
			return errors.Wrapf(err, "index conversation %s", c.ID)
		}
	}
	return errors.Wrap(tx.Commit(), "commit save")
}

func (s *SQLite) Clear() error {
	return s.SaveAll(nil)
}

func insertMessages(tx *sql.Tx, c *parse.Conversation) error {
	stmt, err := tx.Prepare(
		`INSERT INTO messages (conversation_id, seq, message_id, pair_index, role, kind, ts, text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	seq := 0
	add := func(p parse.Pair, m parse.Message, kind, text string) error {
		if text == "" {
			return nil
		}
		seq++
		_, err := stmt.Exec(c.ID, seq, m.ID, p.Index, string(m.Role), kind, m.Timestamp, text)
		return err
	}
	for _, p := range c.Pairs {
		if err := add(p, p.Question, KindText, p.Question.Content); err != nil {
			return err
		}
		for _, a := range p.Answers {
			if err := add(p, a, KindThinking, a.Thinking); err != nil {
				return err
			}
			if err := add(p, a, KindText, a.Content); err != nil {
				return err
			}
			for _, art := range a.Artifacts {
				if err := add(p, a, KindArtifact, art.Content); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *SQLite) Stats() (Stats, error) {
	st := Stats{Backend: "sqlite", Path: s.path}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&st.Conversations); err != nil {
		return st, errors.Wrap(err, "count conversations")
	}
	if err := s.db.QueryRow("SELECT COUNT(DISTINCT conversation_id || '/' || message_id) FROM messages").Scan(&st.Messages); err != nil {
		return st, errors.Wrap(err, "count messages")
	}
	return st, nil
}
