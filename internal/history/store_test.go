package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndListSessions(t *testing.T) {
	store := openTestStore(t)

	tracks := []TrackRecord{
		{Name: "Opening", DurationSeconds: 185.2, CounterStart: 10, CounterEnd: 181, PeakDBFS: -0.1, LoudnessLUFS: -14.2, HasLoudness: true},
		{Name: "Interlude", DurationSeconds: 92.0, CounterStart: 186, CounterEnd: 270, PeakDBFS: -0.3},
	}
	id, err := store.RecordSession(Session{
		RecordedAt:    time.Date(2026, 8, 20, 19, 0, 0, 0, time.UTC),
		Deck:          "nakamichi-bx300",
		TapeType:      "II",
		SideMinutes:   45,
		CounterMode:   "auto",
		Normalization: "lufs",
		TotalSeconds:  287.2,
	}, tracks)
	if err != nil {
		t.Fatalf("RecordSession returned error: %v", err)
	}
	if id == "" {
		t.Fatal("RecordSession returned an empty ID")
	}

	sessions, err := store.RecentSessions(10)
	if err != nil {
		t.Fatalf("RecentSessions returned error: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	got := sessions[0]
	if got.ID != id {
		t.Errorf("ID = %q, want %q", got.ID, id)
	}
	if got.Deck != "nakamichi-bx300" || got.TapeType != "II" {
		t.Errorf("deck/tape = %q/%q, want nakamichi-bx300/II", got.Deck, got.TapeType)
	}
	if got.TrackCount != 2 {
		t.Errorf("TrackCount = %d, want 2", got.TrackCount)
	}
	if got.Overrun {
		t.Error("session wrongly flagged as overrun")
	}
}

func TestSessionTracksRoundTrip(t *testing.T) {
	store := openTestStore(t)

	id, err := store.RecordSession(Session{
		Deck:          "generic",
		TapeType:      "I",
		SideMinutes:   30,
		CounterMode:   "static",
		Normalization: "peak",
		TotalSeconds:  100,
	}, []TrackRecord{
		{Name: "A", DurationSeconds: 60, CounterStart: 10, CounterEnd: 70, PeakDBFS: 0, LoudnessLUFS: -13.9, HasLoudness: true},
		{Name: "B", DurationSeconds: 30, CounterStart: 75, CounterEnd: 100, PeakDBFS: -1.5},
	})
	if err != nil {
		t.Fatalf("RecordSession returned error: %v", err)
	}

	tracks, err := store.SessionTracks(id)
	if err != nil {
		t.Fatalf("SessionTracks returned error: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}

	if tracks[0].Position != 1 || tracks[1].Position != 2 {
		t.Errorf("positions = %d, %d, want 1, 2", tracks[0].Position, tracks[1].Position)
	}
	if !tracks[0].HasLoudness || tracks[0].LoudnessLUFS != -13.9 {
		t.Errorf("track A loudness = %.1f (has %v), want -13.9", tracks[0].LoudnessLUFS, tracks[0].HasLoudness)
	}
	if tracks[1].HasLoudness {
		t.Error("track B should have no loudness value")
	}
	if tracks[1].CounterEnd != 100 {
		t.Errorf("track B CounterEnd = %d, want 100", tracks[1].CounterEnd)
	}
}

func TestRecentSessionsOrdering(t *testing.T) {
	store := openTestStore(t)

	older := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	if _, err := store.RecordSession(Session{RecordedAt: older, Deck: "generic", TapeType: "I", SideMinutes: 45, CounterMode: "auto", Normalization: "peak"}, nil); err != nil {
		t.Fatalf("RecordSession returned error: %v", err)
	}
	if _, err := store.RecordSession(Session{RecordedAt: newer, Deck: "generic", TapeType: "I", SideMinutes: 45, CounterMode: "auto", Normalization: "peak"}, nil); err != nil {
		t.Fatalf("RecordSession returned error: %v", err)
	}

	sessions, err := store.RecentSessions(1)
	if err != nil {
		t.Fatalf("RecentSessions returned error: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	if !sessions[0].RecordedAt.Equal(newer) {
		t.Errorf("RecentSessions(1) returned the older session")
	}
}

func TestSessionTracksUnknownSession(t *testing.T) {
	store := openTestStore(t)
	tracks, err := store.SessionTracks("no-such-id")
	if err != nil {
		t.Fatalf("SessionTracks returned error: %v", err)
	}
	if len(tracks) != 0 {
		t.Errorf("got %d tracks for an unknown session, want none", len(tracks))
	}
}
