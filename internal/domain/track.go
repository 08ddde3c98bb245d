package domain

import (
	"time"

	"github.com/google/uuid"
)

type TrackID string

// TrackSpec is what a client submits: display strings only, none of them
// validated beyond JSON shape.
type TrackSpec struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Duration   string `json:"duration"`
	SpotifyURL string `json:"spotifyUrl,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
	ImageURL   string `json:"imageUrl,omitempty"`
}

// Track is a queued (or currently playing) song. Votes only ever grow;
// voters is a set, one entry per user that voted.
type Track struct {
	ID         TrackID
	Title      string
	Artist     string
	Duration   string
	SpotifyURL string
	PreviewURL string
	ImageURL   string
	Votes      int
	AddedBy    string
	AddedAt    time.Time
	voters     map[UserID]struct{}
}

// NewTrack stamps the submitter by display name, copied at call time.
// Renames after submission do not rewrite history.
func NewTrack(spec TrackSpec, addedBy string, now time.Time) *Track {
	return &Track{
		ID:         TrackID(uuid.NewString()),
		Title:      spec.Title,
		Artist:     spec.Artist,
		Duration:   spec.Duration,
		SpotifyURL: spec.SpotifyURL,
		PreviewURL: spec.PreviewURL,
		ImageURL:   spec.ImageURL,
		AddedBy:    addedBy,
		AddedAt:    now,
		voters:     make(map[UserID]struct{}),
	}
}

func (t *Track) HasVoted(uid UserID) bool {
	_, ok := t.voters[uid]
	return ok
}

// recordVote is idempotent per user: the second call is a no-op and
// reports false.
func (t *Track) recordVote(uid UserID) bool {
	if _, ok := t.voters[uid]; ok {
		return false
	}
	t.voters[uid] = struct{}{}
	t.Votes++
	return true
}

// TrackView is the wire shape of a track. The voter set becomes an array;
// its ordering carries no meaning, only uniqueness does.
type TrackView struct {
	ID         TrackID   `json:"id"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	Duration   string    `json:"duration"`
	Votes      int       `json:"votes"`
	AddedBy    string    `json:"addedBy"`
	VotedBy    []string  `json:"votedBy"`
	AddedAt    time.Time `json:"addedAt"`
	SpotifyURL string    `json:"spotifyUrl,omitempty"`
	PreviewURL string    `json:"previewUrl,omitempty"`
	ImageURL   string    `json:"imageUrl,omitempty"`
}

func (t *Track) View() TrackView {
	voted := make([]string, 0, len(t.voters))
	for uid := range t.voters {
		voted = append(voted, string(uid))
	}
	return TrackView{
		ID:         t.ID,
		Title:      t.Title,
		Artist:     t.Artist,
		Duration:   t.Duration,
		Votes:      t.Votes,
		AddedBy:    t.AddedBy,
		VotedBy:    voted,
		AddedAt:    t.AddedAt,
		SpotifyURL: t.SpotifyURL,
		PreviewURL: t.PreviewURL,
		ImageURL:   t.ImageURL,
	}
}
