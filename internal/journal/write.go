package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/telomere/internal/engine"
)

// Session is one run of an engine.
type Session struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Label     string    `json:"label,omitempty"`
	Tempo     float32   `json:"tempo"`
	Beats     int       `json:"beats"`
	Grid      int       `json:"grid"`
}

// Event is one journaled outlet emission.
type Event struct {
	SessionID string            `json:"session_id"`
	Seq       int64             `json:"seq"`
	AtMs      float64           `json:"at_ms"`
	Kind      engine.OutletKind `json:"kind"`
	Value     float64           `json:"value"`
}

// FormatValue renders Value the way the engine's recorder does.
func (ev Event) FormatValue() string {
	return engine.OutletEvent{Kind: ev.Kind, Value: ev.Value}.FormatValue()
}

// StartSession inserts a session and returns it with a fresh UUIDv7 id.
// StartedAt is truncated to milliseconds.
func (s *Store) StartSession(ctx context.Context, sess Session) (Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Session{}, fmt.Errorf("start session: %w", err)
	}
	sess.ID = id.String()
	sess.StartedAt = time.UnixMilli(sess.StartedAt.UnixMilli()).UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, started_at, label, tempo, beats, grid)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		sess.ID,
		sess.StartedAt.UnixMilli(),
		sess.Label,
		sess.Tempo,
		sess.Beats,
		sess.Grid,
	)
	if err != nil {
		return Session{}, fmt.Errorf("start session: %w", err)
	}
	return sess, nil
}

// WriteEvent appends one event. Uses ON CONFLICT DO NOTHING so a
// duplicate (session_id, seq) is ignored.
func (s *Store) WriteEvent(ctx context.Context, ev Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (session_id, seq, at_ms, kind, value)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		ev.SessionID,
		ev.Seq,
		ev.AtMs,
		string(ev.Kind),
		ev.Value,
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}
