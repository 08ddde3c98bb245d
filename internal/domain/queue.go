package domain

import "sort"

// Queue holds the pending tracks plus the now-playing slot. It is a pure
// data structure: no locking, no I/O. The room serializes access.
//
// Ordering: votes descending, then AddedAt ascending, and a full tie keeps
// insertion order. The whole queue is re-sorted after every mutation;
// playlists are human-scale so O(n log n) per event is fine.
type Queue struct {
	nowPlaying *Track
	pending    []*Track
}

func (q *Queue) NowPlaying() *Track { return q.nowPlaying }

func (q *Queue) Len() int { return len(q.pending) }

// Tracks returns the pending tracks in rank order. The slice is a copy;
// the tracks are not.
func (q *Queue) Tracks() []*Track {
	out := make([]*Track, len(q.pending))
	copy(out, q.pending)
	return out
}

// Insert places a track. An empty now-playing slot is filled directly,
// bypassing the queue, so a fresh room starts playback instantly.
func (q *Queue) Insert(t *Track) {
	if q.nowPlaying == nil {
		q.nowPlaying = t
		return
	}
	q.pending = append(q.pending, t)
	q.resort()
}

// Vote registers uid's vote for a pending track. It reports false, with
// no mutation, when the track is unknown or uid already voted. The
// now-playing track does not take votes.
func (q *Queue) Vote(id TrackID, uid UserID) bool {
	t := q.find(id)
	if t == nil {
		return false
	}
	if !t.recordVote(uid) {
		return false
	}
	q.resort()
	return true
}

// Remove drops a pending track by id. The now-playing track cannot be
// removed this way, only skipped.
func (q *Queue) Remove(id TrackID) *Track {
	for i, t := range q.pending {
		if t.ID == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			q.resort()
			return t
		}
	}
	return nil
}

// Clear empties the pending queue. Now-playing is untouched.
func (q *Queue) Clear() {
	q.pending = nil
}

// Advance promotes the highest-ranked pending track into the now-playing
// slot (or clears the slot when the queue is empty) and returns whatever
// was playing before.
func (q *Queue) Advance() *Track {
	prev := q.nowPlaying
	if len(q.pending) > 0 {
		q.nowPlaying = q.pending[0]
		q.pending = q.pending[1:]
		q.resort()
	} else {
		q.nowPlaying = nil
	}
	return prev
}

func (q *Queue) find(id TrackID) *Track {
	for _, t := range q.pending {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (q *Queue) resort() {
	sort.SliceStable(q.pending, func(i, j int) bool {
		a, b := q.pending[i], q.pending[j]
		if a.Votes != b.Votes {
			return a.Votes > b.Votes
		}
		return a.AddedAt.Before(b.AddedAt)
	})
}
