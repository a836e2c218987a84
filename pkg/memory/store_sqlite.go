package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the canonical persistent cognitive state storage.
type SQLiteStore struct {
	db      *sql.DB
	weights Weights
}

// NewSQLiteStore creates/opens the state database at path. The weight
// scheme is fixed at construction and applied to every recorded evaluation.
func NewSQLiteStore(path string, weights Weights) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state db dir: %w", storageErr(err))
	}

	// foreign_keys is a per-connection pragma; setting it in the DSN keeps
	// referential enforcement on even if the pool recycles the connection.
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", storageErr(err))
	}
	// Single-writer-per-session model. One shared connection avoids writer
	// lock contention with SQLite under concurrent goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, weights: weights.Normalized()}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Weights returns the normalized scheme the store folds evaluations with.
func (s *SQLiteStore) Weights() Weights {
	return s.weights
}

func (s *SQLiteStore) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA temp_store=MEMORY;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_uuid TEXT PRIMARY KEY,
			mutation_level INTEGER NOT NULL DEFAULT 0,
			created_at_ms INTEGER NOT NULL,
			updated_at_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_uuid TEXT NOT NULL REFERENCES sessions(session_uuid),
			role TEXT NOT NULL CHECK (role IN ('user','assistant','system')),
			content TEXT NOT NULL,
			created_at_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS messages_session_idx ON messages(session_uuid, id);`,
		`CREATE TABLE IF NOT EXISTS reasoning_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_uuid TEXT NOT NULL REFERENCES sessions(session_uuid),
			raw_reasoning TEXT NOT NULL,
			compressed_reasoning TEXT,
			traits_json TEXT,
			created_at_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS reasoning_session_idx ON reasoning_snapshots(session_uuid, id);`,
		`CREATE TABLE IF NOT EXISTS evaluations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_uuid TEXT NOT NULL REFERENCES sessions(session_uuid),
			accuracy REAL NOT NULL,
			clarity REAL NOT NULL,
			depth REAL NOT NULL,
			originality REAL NOT NULL,
			overall REAL NOT NULL,
			created_at_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS evaluations_session_idx ON evaluations(session_uuid, id);`,
		`CREATE TABLE IF NOT EXISTS session_traits (
			session_uuid TEXT PRIMARY KEY REFERENCES sessions(session_uuid),
			creativity REAL NOT NULL,
			abstraction REAL NOT NULL,
			verbosity REAL NOT NULL,
			formality REAL NOT NULL,
			last_mutation_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS trait_revisions (
			id TEXT PRIMARY KEY,
			session_uuid TEXT NOT NULL REFERENCES sessions(session_uuid),
			evaluation_id INTEGER NOT NULL DEFAULT 0,
			overall REAL NOT NULL DEFAULT 0,
			traits_before_json TEXT NOT NULL,
			traits_after_json TEXT NOT NULL,
			created_at_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS trait_revisions_session_idx ON trait_revisions(session_uuid, created_at_ms DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init sqlite schema failed on %q: %w", trimSQL(stmt), storageErr(err))
		}
	}
	return nil
}

func trimSQL(stmt string) string {
	line := strings.TrimSpace(stmt)
	if len(line) > 96 {
		return line[:96] + "..."
	}
	return line
}

func nowMS() int64 { return time.Now().UnixMilli() }

// storageErr tags anything outside the validation taxonomy as ErrStorage so
// callers can classify driver failures with errors.Is. Already-classified
// errors pass through untouched.
func storageErr(err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidRole) ||
		errors.Is(err, ErrInvalidScore) || errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

// sessionExistsTx is the referential pre-check every turn-scoped write runs
// inside its transaction, so a missing session surfaces as ErrNotFound
// instead of a driver-specific constraint error.
func sessionExistsTx(ctx context.Context, tx *sql.Tx, sessionID string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE session_uuid = ?`, sessionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("session %q: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check session: %w", storageErr(err))
	}
	return nil
}

// EnsureSession returns the session with the given id, creating it (and its
// neutral trait profile) when absent. An empty id generates a fresh UUID.
func (s *SQLiteStore) EnsureSession(ctx context.Context, id string) (Session, error) {
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}
	now := nowMS()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, fmt.Errorf("ensure session begin tx: %w", storageErr(err))
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO sessions(session_uuid, mutation_level, created_at_ms, updated_at_ms)
VALUES(?, 0, ?, ?)
ON CONFLICT(session_uuid) DO NOTHING`, id, now, now); err != nil {
		return Session{}, fmt.Errorf("ensure session insert: %w", storageErr(err))
	}

	defaults := DefaultTraits()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO session_traits(session_uuid, creativity, abstraction, verbosity, formality, last_mutation_ms)
VALUES(?, ?, ?, ?, ?, ?)
ON CONFLICT(session_uuid) DO NOTHING`,
		id, defaults.Creativity, defaults.Abstraction, defaults.Verbosity, defaults.Formality, now); err != nil {
		return Session{}, fmt.Errorf("ensure session traits: %w", storageErr(err))
	}

	var out Session
	row := tx.QueryRowContext(ctx, `
SELECT session_uuid, mutation_level, created_at_ms, updated_at_ms
FROM sessions WHERE session_uuid = ?`, id)
	if err := row.Scan(&out.ID, &out.MutationLevel, &out.CreatedAtMS, &out.UpdatedAtMS); err != nil {
		return Session{}, fmt.Errorf("ensure session read: %w", storageErr(err))
	}

	if err := tx.Commit(); err != nil {
		return Session{}, fmt.Errorf("ensure session commit: %w", storageErr(err))
	}
	return out, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (Session, error) {
	var out Session
	row := s.db.QueryRowContext(ctx, `
SELECT session_uuid, mutation_level, created_at_ms, updated_at_ms
FROM sessions WHERE session_uuid = ?`, id)
	if err := row.Scan(&out.ID, &out.MutationLevel, &out.CreatedAtMS, &out.UpdatedAtMS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, fmt.Errorf("session %q: %w", id, ErrNotFound)
		}
		return Session{}, fmt.Errorf("get session: %w", storageErr(err))
	}
	return out, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT session_uuid, mutation_level, created_at_ms, updated_at_ms
FROM sessions
ORDER BY updated_at_ms DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", storageErr(err))
	}
	defer rows.Close()

	out := make([]Session, 0, limit)
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.MutationLevel, &sess.CreatedAtMS, &sess.UpdatedAtMS); err != nil {
			return nil, fmt.Errorf("scan session: %w", storageErr(err))
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", storageErr(err))
	}
	return out, nil
}

// Touch refreshes the session's updated_at timestamp.
func (s *SQLiteStore) Touch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE sessions SET updated_at_ms = ? WHERE session_uuid = ?`, nowMS(), id)
	if err != nil {
		return fmt.Errorf("touch session: %w", storageErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	return nil
}

// BumpMutation atomically increments the session's mutation counter and
// returns the new level.
func (s *SQLiteStore) BumpMutation(ctx context.Context, id string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("bump mutation begin tx: %w", storageErr(err))
	}
	defer func() { _ = tx.Rollback() }()

	level, err := bumpMutationTx(ctx, tx, id)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("bump mutation commit: %w", storageErr(err))
	}
	return level, nil
}

func bumpMutationTx(ctx context.Context, tx *sql.Tx, id string) (int, error) {
	res, err := tx.ExecContext(ctx, `
UPDATE sessions
SET mutation_level = mutation_level + 1, updated_at_ms = ?
WHERE session_uuid = ?`, nowMS(), id)
	if err != nil {
		return 0, fmt.Errorf("bump mutation: %w", storageErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	var level int
	row := tx.QueryRowContext(ctx, `SELECT mutation_level FROM sessions WHERE session_uuid = ?`, id)
	if err := row.Scan(&level); err != nil {
		return 0, fmt.Errorf("bump mutation read: %w", storageErr(err))
	}
	return level, nil
}

// AppendMessage validates and appends one dialogue message.
func (s *SQLiteStore) AppendMessage(ctx context.Context, sessionID string, role Role, content string) (Message, error) {
	if !role.Valid() {
		return Message{}, fmt.Errorf("role %q: %w", role, ErrInvalidRole)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Message{}, fmt.Errorf("append message begin tx: %w", storageErr(err))
	}
	defer func() { _ = tx.Rollback() }()

	msg, err := appendMessageTx(ctx, tx, sessionID, role, content)
	if err != nil {
		return Message{}, err
	}
	if err := tx.Commit(); err != nil {
		return Message{}, fmt.Errorf("append message commit: %w", storageErr(err))
	}
	return msg, nil
}

func appendMessageTx(ctx context.Context, tx *sql.Tx, sessionID string, role Role, content string) (Message, error) {
	if err := sessionExistsTx(ctx, tx, sessionID); err != nil {
		return Message{}, fmt.Errorf("append message: %w", storageErr(err))
	}
	created := nowMS()
	res, err := tx.ExecContext(ctx, `
INSERT INTO messages(session_uuid, role, content, created_at_ms)
VALUES(?, ?, ?, ?)`, sessionID, string(role), content, created)
	if err != nil {
		return Message{}, fmt.Errorf("append message insert: %w", storageErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Message{}, fmt.Errorf("append message id: %w", storageErr(err))
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE sessions SET updated_at_ms = ? WHERE session_uuid = ?`, created, sessionID); err != nil {
		return Message{}, fmt.Errorf("append message touch session: %w", storageErr(err))
	}
	return Message{ID: id, SessionID: sessionID, Role: role, Content: content, CreatedAtMS: created}, nil
}

// History returns every message of the session in insertion order. An empty
// slice, not an error, when the session has no entries.
func (s *SQLiteStore) History(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, session_uuid, role, content, created_at_ms
FROM messages
WHERE session_uuid = ?
ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("history: %w", storageErr(err))
	}
	defer rows.Close()
	return scanMessages(rows)
}

// RecentContext returns the last limit messages in chronological order.
func (s *SQLiteStore) RecentContext(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, session_uuid, role, content, created_at_ms
FROM messages
WHERE session_uuid = ?
ORDER BY id DESC
LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent context: %w", storageErr(err))
	}
	defer rows.Close()

	out, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	out := []Message{}
	for rows.Next() {
		var msg Message
		var role string
		if err := rows.Scan(&msg.ID, &msg.SessionID, &role, &msg.Content, &msg.CreatedAtMS); err != nil {
			return nil, fmt.Errorf("scan message: %w", storageErr(err))
		}
		msg.Role = Role(role)
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", storageErr(err))
	}
	return out, nil
}

// AppendReasoning appends one cognition snapshot. Compressed and traitsJSON
// may be empty when the upstream compressor/observer was skipped; they are
// stored as NULL so absence survives the round trip.
func (s *SQLiteStore) AppendReasoning(ctx context.Context, sessionID, raw, compressed, traitsJSON string) (ReasoningSnapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ReasoningSnapshot{}, fmt.Errorf("append reasoning begin tx: %w", storageErr(err))
	}
	defer func() { _ = tx.Rollback() }()

	snap, err := appendReasoningTx(ctx, tx, sessionID, raw, compressed, traitsJSON)
	if err != nil {
		return ReasoningSnapshot{}, err
	}
	if err := tx.Commit(); err != nil {
		return ReasoningSnapshot{}, fmt.Errorf("append reasoning commit: %w", storageErr(err))
	}
	return snap, nil
}

func appendReasoningTx(ctx context.Context, tx *sql.Tx, sessionID, raw, compressed, traitsJSON string) (ReasoningSnapshot, error) {
	if err := sessionExistsTx(ctx, tx, sessionID); err != nil {
		return ReasoningSnapshot{}, fmt.Errorf("append reasoning: %w", storageErr(err))
	}
	created := nowMS()
	res, err := tx.ExecContext(ctx, `
INSERT INTO reasoning_snapshots(session_uuid, raw_reasoning, compressed_reasoning, traits_json, created_at_ms)
VALUES(?, ?, NULLIF(?, ''), NULLIF(?, ''), ?)`, sessionID, raw, compressed, traitsJSON, created)
	if err != nil {
		return ReasoningSnapshot{}, fmt.Errorf("append reasoning insert: %w", storageErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ReasoningSnapshot{}, fmt.Errorf("append reasoning id: %w", storageErr(err))
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE sessions SET updated_at_ms = ? WHERE session_uuid = ?`, created, sessionID); err != nil {
		return ReasoningSnapshot{}, fmt.Errorf("append reasoning touch session: %w", storageErr(err))
	}
	return ReasoningSnapshot{
		ID:          id,
		SessionID:   sessionID,
		Raw:         raw,
		Compressed:  compressed,
		TraitsJSON:  traitsJSON,
		CreatedAtMS: created,
	}, nil
}

// ReasoningHistory returns every snapshot of the session in insertion order.
func (s *SQLiteStore) ReasoningHistory(ctx context.Context, sessionID string) ([]ReasoningSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, session_uuid, raw_reasoning, compressed_reasoning, traits_json, created_at_ms
FROM reasoning_snapshots
WHERE session_uuid = ?
ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reasoning history: %w", storageErr(err))
	}
	defer rows.Close()

	out := []ReasoningSnapshot{}
	for rows.Next() {
		var snap ReasoningSnapshot
		var compressed, traits sql.NullString
		if err := rows.Scan(&snap.ID, &snap.SessionID, &snap.Raw, &compressed, &traits, &snap.CreatedAtMS); err != nil {
			return nil, fmt.Errorf("scan reasoning snapshot: %w", storageErr(err))
		}
		snap.Compressed = compressed.String
		snap.TraitsJSON = traits.String
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reasoning snapshots: %w", storageErr(err))
	}
	return out, nil
}

// RecordEvaluation validates the four component scores, folds them into the
// configured weighted overall, and appends the row.
func (s *SQLiteStore) RecordEvaluation(ctx context.Context, sessionID string, scores Scores) (Evaluation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Evaluation{}, fmt.Errorf("record evaluation begin tx: %w", storageErr(err))
	}
	defer func() { _ = tx.Rollback() }()

	eval, err := s.recordEvaluationTx(ctx, tx, sessionID, scores)
	if err != nil {
		return Evaluation{}, err
	}
	if err := tx.Commit(); err != nil {
		return Evaluation{}, fmt.Errorf("record evaluation commit: %w", storageErr(err))
	}
	return eval, nil
}

func (s *SQLiteStore) recordEvaluationTx(ctx context.Context, tx *sql.Tx, sessionID string, scores Scores) (Evaluation, error) {
	if !scores.Valid() {
		return Evaluation{}, fmt.Errorf("scores %+v: %w", scores, ErrInvalidScore)
	}
	if err := sessionExistsTx(ctx, tx, sessionID); err != nil {
		return Evaluation{}, fmt.Errorf("record evaluation: %w", storageErr(err))
	}
	overall := s.weights.Overall(scores)
	created := nowMS()
	res, err := tx.ExecContext(ctx, `
INSERT INTO evaluations(session_uuid, accuracy, clarity, depth, originality, overall, created_at_ms)
VALUES(?, ?, ?, ?, ?, ?, ?)`,
		sessionID, scores.Accuracy, scores.Clarity, scores.Depth, scores.Originality, overall, created)
	if err != nil {
		return Evaluation{}, fmt.Errorf("record evaluation insert: %w", storageErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Evaluation{}, fmt.Errorf("record evaluation id: %w", storageErr(err))
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE sessions SET updated_at_ms = ? WHERE session_uuid = ?`, created, sessionID); err != nil {
		return Evaluation{}, fmt.Errorf("record evaluation touch session: %w", storageErr(err))
	}
	return Evaluation{
		ID:          id,
		SessionID:   sessionID,
		Accuracy:    scores.Accuracy,
		Clarity:     scores.Clarity,
		Depth:       scores.Depth,
		Originality: scores.Originality,
		Overall:     overall,
		CreatedAtMS: created,
	}, nil
}

// LatestEvaluation returns the most recently appended evaluation for the
// session; ok is false when none has been recorded yet.
func (s *SQLiteStore) LatestEvaluation(ctx context.Context, sessionID string) (Evaluation, bool, error) {
	var out Evaluation
	row := s.db.QueryRowContext(ctx, `
SELECT id, session_uuid, accuracy, clarity, depth, originality, overall, created_at_ms
FROM evaluations
WHERE session_uuid = ?
ORDER BY id DESC
LIMIT 1`, sessionID)
	err := row.Scan(&out.ID, &out.SessionID, &out.Accuracy, &out.Clarity, &out.Depth, &out.Originality, &out.Overall, &out.CreatedAtMS)
	if errors.Is(err, sql.ErrNoRows) {
		return Evaluation{}, false, nil
	}
	if err != nil {
		return Evaluation{}, false, fmt.Errorf("latest evaluation: %w", storageErr(err))
	}
	return out, true, nil
}

// GetOrInitTraits returns the session's trait profile, creating the neutral
// default row when absent. Fails with ErrNotFound when the session itself
// does not exist.
func (s *SQLiteStore) GetOrInitTraits(ctx context.Context, sessionID string) (TraitProfile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TraitProfile{}, fmt.Errorf("get or init traits begin tx: %w", storageErr(err))
	}
	defer func() { _ = tx.Rollback() }()

	profile, err := getOrInitTraitsTx(ctx, tx, sessionID)
	if err != nil {
		return TraitProfile{}, err
	}
	if err := tx.Commit(); err != nil {
		return TraitProfile{}, fmt.Errorf("get or init traits commit: %w", storageErr(err))
	}
	return profile, nil
}

func getOrInitTraitsTx(ctx context.Context, tx *sql.Tx, sessionID string) (TraitProfile, error) {
	if err := sessionExistsTx(ctx, tx, sessionID); err != nil {
		return TraitProfile{}, fmt.Errorf("get or init traits: %w", storageErr(err))
	}

	var out TraitProfile
	row := tx.QueryRowContext(ctx, `
SELECT session_uuid, creativity, abstraction, verbosity, formality, last_mutation_ms
FROM session_traits WHERE session_uuid = ?`, sessionID)
	err := row.Scan(&out.SessionID, &out.Traits.Creativity, &out.Traits.Abstraction,
		&out.Traits.Verbosity, &out.Traits.Formality, &out.LastMutationMS)
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, sql.ErrNoRows):
		defaults := DefaultTraits()
		now := nowMS()
		if _, err := tx.ExecContext(ctx, `
INSERT INTO session_traits(session_uuid, creativity, abstraction, verbosity, formality, last_mutation_ms)
VALUES(?, ?, ?, ?, ?, ?)`,
			sessionID, defaults.Creativity, defaults.Abstraction, defaults.Verbosity, defaults.Formality, now); err != nil {
			return TraitProfile{}, fmt.Errorf("init traits: %w", storageErr(err))
		}
		return TraitProfile{SessionID: sessionID, Traits: defaults, LastMutationMS: now}, nil
	default:
		return TraitProfile{}, fmt.Errorf("get traits: %w", storageErr(err))
	}
}

// ApplyTraits replaces the four trait values after clamping each to [0,1]
// and refreshes last_mutation. The Mutation Engine is the only intended
// caller; this is a module-boundary convention, not a runtime check.
func (s *SQLiteStore) ApplyTraits(ctx context.Context, sessionID string, values Traits) (TraitProfile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TraitProfile{}, fmt.Errorf("apply traits begin tx: %w", storageErr(err))
	}
	defer func() { _ = tx.Rollback() }()

	profile, err := applyTraitsTx(ctx, tx, sessionID, values)
	if err != nil {
		return TraitProfile{}, err
	}
	if err := tx.Commit(); err != nil {
		return TraitProfile{}, fmt.Errorf("apply traits commit: %w", storageErr(err))
	}
	return profile, nil
}

func applyTraitsTx(ctx context.Context, tx *sql.Tx, sessionID string, values Traits) (TraitProfile, error) {
	clamped := values.Clamped()
	now := nowMS()
	res, err := tx.ExecContext(ctx, `
UPDATE session_traits
SET creativity = ?, abstraction = ?, verbosity = ?, formality = ?, last_mutation_ms = ?
WHERE session_uuid = ?`,
		clamped.Creativity, clamped.Abstraction, clamped.Verbosity, clamped.Formality, now, sessionID)
	if err != nil {
		return TraitProfile{}, fmt.Errorf("apply traits: %w", storageErr(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return TraitProfile{}, fmt.Errorf("traits for session %q: %w", sessionID, ErrNotFound)
	}
	return TraitProfile{SessionID: sessionID, Traits: clamped, LastMutationMS: now}, nil
}

func insertTraitRevisionTx(ctx context.Context, tx *sql.Tx, rev TraitRevision) (TraitRevision, error) {
	if rev.ID == "" {
		rev.ID = "trv-" + uuid.NewString()
	}
	if rev.CreatedAtMS == 0 {
		rev.CreatedAtMS = nowMS()
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO trait_revisions(id, session_uuid, evaluation_id, overall, traits_before_json, traits_after_json, created_at_ms)
VALUES(?, ?, ?, ?, ?, ?, ?)`,
		rev.ID, rev.SessionID, rev.EvaluationID, rev.Overall, rev.Before.json(), rev.After.json(), rev.CreatedAtMS); err != nil {
		return TraitRevision{}, fmt.Errorf("insert trait revision: %w", storageErr(err))
	}
	return rev, nil
}

// ListTraitRevisions returns the mutation audit trail, newest first.
func (s *SQLiteStore) ListTraitRevisions(ctx context.Context, sessionID string, limit int) ([]TraitRevision, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, session_uuid, evaluation_id, overall, traits_before_json, traits_after_json, created_at_ms
FROM trait_revisions
WHERE session_uuid = ?
ORDER BY rowid DESC
LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list trait revisions: %w", storageErr(err))
	}
	defer rows.Close()

	out := make([]TraitRevision, 0, limit)
	for rows.Next() {
		var rev TraitRevision
		var beforeRaw, afterRaw string
		if err := rows.Scan(&rev.ID, &rev.SessionID, &rev.EvaluationID, &rev.Overall, &beforeRaw, &afterRaw, &rev.CreatedAtMS); err != nil {
			return nil, fmt.Errorf("scan trait revision: %w", storageErr(err))
		}
		rev.Before = traitsFromJSON(beforeRaw)
		rev.After = traitsFromJSON(afterRaw)
		out = append(out, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trait revisions: %w", storageErr(err))
	}
	return out, nil
}
