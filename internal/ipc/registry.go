// Package ipc implements the sub-agent message bus and shared key/value
// store: a small SQLite database shared by every agent working in the
// same workspace, used for presence, direct/broadcast messaging, and a
// flat shared_state table.
package ipc

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure-Go driver, no cgo
)

// Registry is a handle to the shared IPC database, scoped to one agent
// identity derived from the workspace directory.
type Registry struct {
	db      *sql.DB
	agentID string
	role    string
}

// Open opens (creating if necessary) the IPC database at dbPath and
// derives this process's agent identity from workspaceDir.
func Open(dbPath, workspaceDir, role string) (*Registry, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open ipc db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", p, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	r := &Registry{
		db:      db,
		agentID: deriveAgentID(workspaceDir),
		role:    role,
	}
	if err := r.register(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// AgentID returns this process's derived identity.
func (r *Registry) AgentID() string { return r.agentID }

func createSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS agents (
			agent_id TEXT PRIMARY KEY,
			role TEXT,
			status TEXT DEFAULT 'online',
			metadata TEXT,
			last_seen INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			from_agent TEXT NOT NULL,
			to_agent TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			read INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS shared_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			owner TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// deriveAgentID derives a stable, non-spoofable identity from the
// workspace directory path so two processes in the same workspace always
// agree on who "self" is.
func deriveAgentID(workspaceDir string) string {
	canonical := filepath.Clean(workspaceDir)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// register upserts this agent's "online" row, preserving any existing
// role/metadata if the row already exists.
func (r *Registry) register() error {
	now := nowEpoch()
	res, err := r.db.Exec(
		`UPDATE agents SET status = 'online', last_seen = ?1 WHERE agent_id = ?2`,
		now, r.agentID,
	)
	if err != nil {
		return fmt.Errorf("update agent row: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		_, err := r.db.Exec(
			`INSERT INTO agents (agent_id, role, status, metadata, last_seen) VALUES (?1, ?2, 'online', '', ?3)`,
			r.agentID, r.role, now,
		)
		if err != nil {
			return fmt.Errorf("insert agent row: %w", err)
		}
	}
	return nil
}

// Heartbeat updates this agent's last_seen timestamp. Call it at the
// start of every tool execution so staleness queries stay accurate.
func (r *Registry) Heartbeat() error {
	_, err := r.db.Exec(`UPDATE agents SET last_seen = ?1 WHERE agent_id = ?2`, nowEpoch(), r.agentID)
	return err
}

// Close removes this agent's presence row and closes the database handle.
func (r *Registry) Close() error {
	_, _ = r.db.Exec(`DELETE FROM agents WHERE agent_id = ?1`, r.agentID)
	return r.db.Close()
}

func nowEpoch() int64 {
	return time.Now().Unix()
}
