package domain

import (
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestTrack(title string, addedAt time.Time) *Track {
	t := NewTrack(TrackSpec{Title: title, Artist: "artist", Duration: "3:00"}, "alice", addedAt)
	return t
}

func titles(tracks []*Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.Title
	}
	return out
}

func TestInsertFillsNowPlayingFirst(t *testing.T) {
	var q Queue
	a := newTestTrack("A", t0)
	q.Insert(a)

	if q.NowPlaying() != a {
		t.Fatalf("expected A to play immediately, got %v", q.NowPlaying())
	}
	if q.Len() != 0 {
		t.Fatalf("queue should be empty, has %d", q.Len())
	}

	b := newTestTrack("B", t0.Add(time.Second))
	q.Insert(b)
	if q.NowPlaying() != a {
		t.Fatal("now playing changed by a queued insert")
	}
	if q.Len() != 1 || q.Tracks()[0] != b {
		t.Fatalf("expected queue [B], got %v", titles(q.Tracks()))
	}
}

func TestVoteIdempotentPerUser(t *testing.T) {
	var q Queue
	q.Insert(newTestTrack("playing", t0))
	b := newTestTrack("B", t0)
	q.Insert(b)

	if !q.Vote(b.ID, "u1") {
		t.Fatal("first vote should succeed")
	}
	if q.Vote(b.ID, "u1") {
		t.Fatal("second vote by same user should fail")
	}
	if b.Votes != 1 {
		t.Fatalf("votes = %d, want 1", b.Votes)
	}
	if !b.HasVoted("u1") {
		t.Fatal("voter set should contain u1")
	}
	if !q.Vote(b.ID, "u2") {
		t.Fatal("different user should still be able to vote")
	}
	if b.Votes != 2 {
		t.Fatalf("votes = %d, want 2", b.Votes)
	}
}

func TestVoteUnknownTrack(t *testing.T) {
	var q Queue
	q.Insert(newTestTrack("playing", t0))
	if q.Vote("nope", "u1") {
		t.Fatal("vote on unknown id should fail")
	}
}

func TestVoteDoesNotReachNowPlaying(t *testing.T) {
	var q Queue
	a := newTestTrack("A", t0)
	q.Insert(a)
	if q.Vote(a.ID, "u1") {
		t.Fatal("now playing must not accept votes")
	}
	if a.Votes != 0 {
		t.Fatalf("votes = %d, want 0", a.Votes)
	}
}

func TestOrderingVotesThenAge(t *testing.T) {
	var q Queue
	q.Insert(newTestTrack("playing", t0))

	b := newTestTrack("B", t0.Add(1*time.Second))
	c := newTestTrack("C", t0.Add(2*time.Second))
	d := newTestTrack("D", t0.Add(3*time.Second))
	q.Insert(b)
	q.Insert(c)
	q.Insert(d)

	q.Vote(d.ID, "u1")
	got := titles(q.Tracks())
	want := []string{"D", "B", "C"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("after vote on D: got %v, want %v", got, want)
		}
	}

	// Tie on votes falls back to earlier submission.
	q.Vote(c.ID, "u1")
	got = titles(q.Tracks())
	want = []string{"C", "D", "B"}
	if got[0] != "C" || got[1] != "D" {
		t.Fatalf("tie-break by addedAt failed: got %v, want %v", got, want)
	}
}

func TestOrderingStableOnFullTie(t *testing.T) {
	var q Queue
	q.Insert(newTestTrack("playing", t0))

	// Identical votes and timestamps: insertion order must survive
	// every re-sort.
	names := []string{"B", "C", "D", "E"}
	for _, n := range names {
		q.Insert(newTestTrack(n, t0))
	}
	q.Clear()
	for _, n := range names {
		q.Insert(newTestTrack(n, t0))
	}

	got := titles(q.Tracks())
	for i, n := range names {
		if got[i] != n {
			t.Fatalf("insertion order not retained: got %v, want %v", got, names)
		}
	}
}

func TestRemove(t *testing.T) {
	var q Queue
	q.Insert(newTestTrack("playing", t0))
	b := newTestTrack("B", t0)
	q.Insert(b)

	if removed := q.Remove(b.ID); removed != b {
		t.Fatalf("Remove returned %v, want B", removed)
	}
	if q.Len() != 0 {
		t.Fatal("queue should be empty after removal")
	}
	if q.Remove(b.ID) != nil {
		t.Fatal("removing twice should return nil")
	}
	if np := q.NowPlaying(); np == nil || np.Title != "playing" {
		t.Fatal("remove must not touch now playing")
	}
}

func TestClearKeepsNowPlaying(t *testing.T) {
	var q Queue
	q.Insert(newTestTrack("playing", t0))
	q.Insert(newTestTrack("B", t0))
	q.Insert(newTestTrack("C", t0))

	q.Clear()
	if q.Len() != 0 {
		t.Fatal("clear should empty the queue")
	}
	if q.NowPlaying() == nil {
		t.Fatal("clear must not touch now playing")
	}
}

func TestAdvance(t *testing.T) {
	var q Queue
	a := newTestTrack("A", t0)
	b := newTestTrack("B", t0.Add(time.Second))
	q.Insert(a)
	q.Insert(b)

	prev := q.Advance()
	if prev != a {
		t.Fatalf("Advance returned %v, want A", prev)
	}
	if q.NowPlaying() != b {
		t.Fatal("B should be promoted to now playing")
	}
	if q.Len() != 0 {
		t.Fatal("queue should be empty after promotion")
	}

	// Advancing with an empty queue clears the slot, never leaves it.
	prev = q.Advance()
	if prev != b {
		t.Fatalf("Advance returned %v, want B", prev)
	}
	if q.NowPlaying() != nil {
		t.Fatal("now playing should be nil after advancing an empty queue")
	}

	if q.Advance() != nil {
		t.Fatal("advancing idle queue should return nil")
	}
}

func TestAdvancePicksHighestRanked(t *testing.T) {
	var q Queue
	q.Insert(newTestTrack("playing", t0))
	b := newTestTrack("B", t0.Add(1*time.Second))
	c := newTestTrack("C", t0.Add(2*time.Second))
	q.Insert(b)
	q.Insert(c)
	q.Vote(c.ID, "u1")

	q.Advance()
	if q.NowPlaying() != c {
		t.Fatalf("expected highest voted track C to play, got %v", q.NowPlaying().Title)
	}
}
