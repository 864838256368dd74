package ipc

import (
	"encoding/json"
	"fmt"
)

// AgentInfo is one row returned by ListAgents.
type AgentInfo struct {
	AgentID  string `json:"agent_id"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	LastSeen int64  `json:"last_seen"`
}

// ListAgents returns every agent seen within the last stalenessSecs
// seconds.
func (r *Registry) ListAgents(stalenessSecs int64) ([]AgentInfo, error) {
	if err := r.Heartbeat(); err != nil {
		return nil, err
	}
	cutoff := nowEpoch() - stalenessSecs
	rows, err := r.db.Query(
		`SELECT agent_id, role, status, last_seen FROM agents WHERE last_seen >= ?1`, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var agents []AgentInfo
	for rows.Next() {
		var a AgentInfo
		if err := rows.Scan(&a.AgentID, &a.Role, &a.Status, &a.LastSeen); err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// Send inserts a message for toAgent (a specific agent id, or "*" to
// broadcast). from_agent is always this registry's derived identity and
// is never taken from caller-supplied arguments, so a message can never be
// spoofed as coming from another agent.
func (r *Registry) Send(toAgent, payload string) error {
	if err := r.Heartbeat(); err != nil {
		return err
	}
	if toAgent == "" || payload == "" {
		return fmt.Errorf("to_agent and payload are required")
	}
	_, err := r.db.Exec(
		`INSERT INTO messages (from_agent, to_agent, payload, created_at, read) VALUES (?1, ?2, ?3, ?4, 0)`,
		r.agentID, toAgent, payload, nowEpoch(),
	)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// InboxMessage is one message returned from Inbox.
type InboxMessage struct {
	From      string `json:"from_agent"`
	To        string `json:"to_agent"`
	Payload   string `json:"payload"`
	CreatedAt int64  `json:"created_at"`
}

// Inbox returns every unread message addressed to this agent directly or
// broadcast to "*", oldest first, then marks direct messages as read.
// Broadcasts are never marked read by this call, so every agent sees every
// broadcast on every poll.
func (r *Registry) Inbox() ([]InboxMessage, error) {
	if err := r.Heartbeat(); err != nil {
		return nil, err
	}
	rows, err := r.db.Query(
		`SELECT from_agent, to_agent, payload, created_at FROM messages
		 WHERE (to_agent = ?1 OR to_agent = '*') AND read = 0
		 ORDER BY created_at ASC`,
		r.agentID,
	)
	if err != nil {
		return nil, fmt.Errorf("query inbox: %w", err)
	}
	var messages []InboxMessage
	for rows.Next() {
		var m InboxMessage
		if err := rows.Scan(&m.From, &m.To, &m.Payload, &m.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if _, err := r.db.Exec(`UPDATE messages SET read = 1 WHERE to_agent = ?1 AND read = 0`, r.agentID); err != nil {
		return nil, fmt.Errorf("mark inbox read: %w", err)
	}
	return messages, nil
}

// StateEntry is one row returned by StateGet.
type StateEntry struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Owner     string `json:"owner"`
	UpdatedAt int64  `json:"updated_at"`
}

// StateGet looks up key in shared_state. A missing key is reported via
// found=false, not an error — "not found" is a normal outcome, not a
// failure.
func (r *Registry) StateGet(key string) (entry StateEntry, found bool, err error) {
	if err := r.Heartbeat(); err != nil {
		return StateEntry{}, false, err
	}
	row := r.db.QueryRow(`SELECT value, owner, updated_at FROM shared_state WHERE key = ?1`, key)
	var e StateEntry
	e.Key = key
	if err := row.Scan(&e.Value, &e.Owner, &e.UpdatedAt); err != nil {
		return StateEntry{}, false, nil
	}
	return e, true, nil
}

// StateSet upserts key with value. owner is always this registry's
// derived identity, never caller-supplied, mirroring Send's anti-spoofing
// invariant.
func (r *Registry) StateSet(key, value string) error {
	if err := r.Heartbeat(); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("key is required")
	}
	_, err := r.db.Exec(
		`INSERT INTO shared_state (key, value, owner, updated_at) VALUES (?1, ?2, ?3, ?4)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, owner = excluded.owner, updated_at = excluded.updated_at`,
		key, value, r.agentID, nowEpoch(),
	)
	if err != nil {
		return fmt.Errorf("set shared state: %w", err)
	}
	return nil
}

// MarshalAgents is a small helper for tool wrappers that return
// pretty-printed JSON.
func MarshalAgents(agents []AgentInfo) ([]byte, error) {
	return json.MarshalIndent(agents, "", "  ")
}
