// Package history keeps a local record of recording sessions so past
// tapes can be listed and re-created.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store is the session history database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id                TEXT PRIMARY KEY,
			recorded_at       TIMESTAMP NOT NULL,
			deck              TEXT NOT NULL,
			tape_type         TEXT NOT NULL,
			side_minutes      INTEGER NOT NULL,
			counter_mode      TEXT NOT NULL,
			normalization     TEXT NOT NULL,
			track_count       INTEGER NOT NULL,
			total_seconds     DOUBLE NOT NULL,
			overrun           INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS session_tracks (
			session_id        TEXT NOT NULL,
			position          INTEGER NOT NULL,
			name              TEXT NOT NULL,
			duration_seconds  DOUBLE NOT NULL,
			counter_start     INTEGER NOT NULL,
			counter_end       INTEGER NOT NULL,
			peak_dbfs         DOUBLE NOT NULL,
			loudness_lufs     DOUBLE,
			PRIMARY KEY (session_id, position),
			FOREIGN KEY(session_id) REFERENCES sessions(id)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Session is one recorded tape side.
type Session struct {
	ID            string
	RecordedAt    time.Time
	Deck          string
	TapeType      string
	SideMinutes   int
	CounterMode   string
	Normalization string
	TrackCount    int
	TotalSeconds  float64
	Overrun       bool
}

// TrackRecord is one track within a recorded session.
type TrackRecord struct {
	SessionID       string
	Position        int
	Name            string
	DurationSeconds float64
	CounterStart    int
	CounterEnd      int
	PeakDBFS        float64
	LoudnessLUFS    float64
	HasLoudness     bool
}

// RecordSession stores a finished session and its tracks atomically.
// A missing ID or timestamp is filled in, and the generated ID is
// returned.
func (s *Store) RecordSession(sess Session, tracks []TrackRecord) (string, error) {
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	if sess.RecordedAt.IsZero() {
		sess.RecordedAt = time.Now()
	}
	sess.TrackCount = len(tracks)

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to start history transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO sessions (id, recorded_at, deck, tape_type, side_minutes,
			counter_mode, normalization, track_count, total_seconds, overrun)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.RecordedAt, sess.Deck, sess.TapeType, sess.SideMinutes,
		sess.CounterMode, sess.Normalization, sess.TrackCount, sess.TotalSeconds,
		boolToInt(sess.Overrun))
	if err != nil {
		return "", fmt.Errorf("failed to record session: %w", err)
	}

	for i, track := range tracks {
		var loudness any
		if track.HasLoudness {
			loudness = track.LoudnessLUFS
		}
		_, err = tx.Exec(`
			INSERT INTO session_tracks (session_id, position, name, duration_seconds,
				counter_start, counter_end, peak_dbfs, loudness_lufs)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			sess.ID, i+1, track.Name, track.DurationSeconds,
			track.CounterStart, track.CounterEnd, track.PeakDBFS, loudness)
		if err != nil {
			return "", fmt.Errorf("failed to record track %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit session: %w", err)
	}
	return sess.ID, nil
}

// RecentSessions lists the newest sessions first.
func (s *Store) RecentSessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, recorded_at, deck, tape_type, side_minutes, counter_mode,
			normalization, track_count, total_seconds, overrun
		FROM sessions ORDER BY recorded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		var overrun int
		err := rows.Scan(&sess.ID, &sess.RecordedAt, &sess.Deck, &sess.TapeType,
			&sess.SideMinutes, &sess.CounterMode, &sess.Normalization,
			&sess.TrackCount, &sess.TotalSeconds, &overrun)
		if err != nil {
			return nil, err
		}
		sess.Overrun = overrun != 0
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// SessionTracks lists a session's tracks in tape order.
func (s *Store) SessionTracks(sessionID string) ([]TrackRecord, error) {
	rows, err := s.db.Query(`
		SELECT session_id, position, name, duration_seconds, counter_start,
			counter_end, peak_dbfs, loudness_lufs
		FROM session_tracks WHERE session_id = ? ORDER BY position`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []TrackRecord
	for rows.Next() {
		var track TrackRecord
		var loudness sql.NullFloat64
		err := rows.Scan(&track.SessionID, &track.Position, &track.Name,
			&track.DurationSeconds, &track.CounterStart, &track.CounterEnd,
			&track.PeakDBFS, &loudness)
		if err != nil {
			return nil, err
		}
		track.LoudnessLUFS = loudness.Float64
		track.HasLoudness = loudness.Valid
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tracks, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
