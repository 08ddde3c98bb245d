package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func newTestRoom(t *testing.T) (*Room, *User) {
	t.Helper()
	host, err := NewUser("Alice")
	if err != nil {
		t.Fatal(err)
	}
	return NewRoom("ABCD", host, t0), host
}

func mustJoin(t *testing.T, r *Room, name string, at time.Time) *User {
	t.Helper()
	u, err := NewUser(name)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.AddMember(u, at); err != nil {
		t.Fatal(err)
	}
	return u
}

func assertSingleHost(t *testing.T, r *Room) {
	t.Helper()
	snap := r.Snapshot()
	hosts := 0
	for _, u := range snap.Users {
		if u.IsHost {
			hosts++
			if u.ID != snap.HostID {
				t.Fatalf("host flag on %s but hostId is %s", u.ID, snap.HostID)
			}
		}
	}
	if hosts != 1 {
		t.Fatalf("expected exactly one host, found %d", hosts)
	}
}

func TestNewRoomSingletonHost(t *testing.T) {
	r, host := newTestRoom(t)
	if r.MemberCount() != 1 {
		t.Fatalf("member count = %d, want 1", r.MemberCount())
	}
	if r.HostID() != host.ID {
		t.Fatal("creator should be host")
	}
	assertSingleHost(t, r)

	snap := r.Snapshot()
	if snap.CurrentSong != nil || len(snap.Queue) != 0 {
		t.Fatal("fresh room should have no songs")
	}
}

func TestHostSuccessionInsertionOrder(t *testing.T) {
	r, host := newTestRoom(t)
	bob := mustJoin(t, r, "Bob", t0.Add(time.Second))
	carol := mustJoin(t, r, "Carol", t0.Add(2*time.Second))

	newHost, empty := r.RemoveMember(host.ID)
	if empty {
		t.Fatal("room is not empty")
	}
	if newHost != bob.ID {
		t.Fatalf("new host = %s, want earliest-joined Bob %s", newHost, bob.ID)
	}
	assertSingleHost(t, r)

	// And again: Carol inherits from Bob.
	newHost, empty = r.RemoveMember(bob.ID)
	if empty || newHost != carol.ID {
		t.Fatalf("new host = %s (empty=%v), want Carol", newHost, empty)
	}
	assertSingleHost(t, r)
}

func TestRemoveNonHostKeepsHost(t *testing.T) {
	r, host := newTestRoom(t)
	bob := mustJoin(t, r, "Bob", t0.Add(time.Second))

	newHost, empty := r.RemoveMember(bob.ID)
	if newHost != "" || empty {
		t.Fatalf("unexpected succession: newHost=%q empty=%v", newHost, empty)
	}
	if r.HostID() != host.ID {
		t.Fatal("host changed when a regular member left")
	}
}

func TestRemoveLastMember(t *testing.T) {
	r, host := newTestRoom(t)
	newHost, empty := r.RemoveMember(host.ID)
	if newHost != "" {
		t.Fatalf("no successor expected, got %s", newHost)
	}
	if !empty {
		t.Fatal("room should report empty")
	}
}

func TestAddMemberDuplicateAndCap(t *testing.T) {
	r, host := newTestRoom(t)
	if err := r.AddMember(host, t0); err != ErrAlreadyMember {
		t.Fatalf("err = %v, want ErrAlreadyMember", err)
	}
	for i := 1; i < MaxRoomMembers; i++ {
		mustJoin(t, r, "guest", t0.Add(time.Duration(i)*time.Second))
	}
	u, _ := NewUser("overflow")
	if err := r.AddMember(u, t0); err != ErrRoomFull {
		t.Fatalf("err = %v, want ErrRoomFull", err)
	}
}

func TestAddSongStampsSubmitterName(t *testing.T) {
	r, _ := newTestRoom(t)
	track := r.AddSong(TrackSpec{Title: "Song A"}, "Alice", t0)

	if track.AddedBy != "Alice" {
		t.Fatalf("addedBy = %q, want Alice", track.AddedBy)
	}
	// Submitter is a copy: the track keeps the name from add time.
	if r.NowPlaying() != track {
		t.Fatal("first song should play immediately")
	}
}

func TestSkipDelegation(t *testing.T) {
	r, _ := newTestRoom(t)
	a := r.AddSong(TrackSpec{Title: "A"}, "Alice", t0)
	b := r.AddSong(TrackSpec{Title: "B"}, "Alice", t0.Add(time.Second))

	skipped := r.Skip()
	if skipped != a {
		t.Fatalf("skipped %v, want A", skipped)
	}
	if r.NowPlaying() != b {
		t.Fatal("B should be playing after skip")
	}
}

func TestSnapshotShape(t *testing.T) {
	r, host := newTestRoom(t)
	bob := mustJoin(t, r, "Bob", t0.Add(time.Second))
	r.AddSong(TrackSpec{Title: "A"}, "Alice", t0)
	track := r.AddSong(TrackSpec{Title: "B"}, "Bob", t0.Add(time.Second))
	r.VoteSong(track.ID, host.ID)
	r.VoteSong(track.ID, bob.ID)

	snap := r.Snapshot()
	if len(snap.Users) != 2 || snap.Users[0].ID != host.ID || snap.Users[1].ID != bob.ID {
		t.Fatalf("members not in join order: %+v", snap.Users)
	}
	if snap.CurrentSong == nil || snap.CurrentSong.Title != "A" {
		t.Fatal("snapshot missing current song")
	}
	if len(snap.Queue) != 1 {
		t.Fatalf("queue length = %d, want 1", len(snap.Queue))
	}

	// Voter sets serialize as arrays of unique ids.
	voted := snap.Queue[0].VotedBy
	if len(voted) != 2 {
		t.Fatalf("votedBy = %v, want both voters", voted)
	}
	seen := map[string]bool{}
	for _, id := range voted {
		if seen[id] {
			t.Fatalf("duplicate voter %s on the wire", id)
		}
		seen[id] = true
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "hostId", "users", "queue", "currentSong", "createdAt"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("snapshot JSON missing %q", key)
		}
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	r, _ := newTestRoom(t)
	r.AddSong(TrackSpec{Title: "A"}, "Alice", t0)
	snap := r.Snapshot()

	r.AddSong(TrackSpec{Title: "B"}, "Alice", t0.Add(time.Second))
	if len(snap.Queue) != 0 {
		t.Fatal("snapshot changed after later mutation")
	}
}

func TestNormalizeRoomCode(t *testing.T) {
	cases := []struct {
		in      string
		want    RoomID
		wantErr bool
	}{
		{"abcd", "ABCD", false},
		{"  AbCd  ", "ABCD", false},
		{"", "", true},
		{"    ", "", true},
		{strings.Repeat("x", MaxRoomCodeLen), RoomID(strings.Repeat("X", MaxRoomCodeLen)), false},
		{strings.Repeat("x", MaxRoomCodeLen+1), "", true},
		// Multi-byte codes must be rejected whole, never byte-sliced
		// into an invalid id that collides with another long code.
		{strings.Repeat("ö", MaxRoomCodeLen), "", true},
	}
	for _, tc := range cases {
		got, err := NormalizeRoomCode(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("NormalizeRoomCode(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("NormalizeRoomCode(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestLongRoomCodesDoNotCollide(t *testing.T) {
	a := strings.Repeat("a", MaxRoomCodeLen) + "1"
	b := strings.Repeat("a", MaxRoomCodeLen) + "2"
	if _, err := NormalizeRoomCode(a); err != ErrRoomCodeTooLong {
		t.Fatalf("err = %v, want ErrRoomCodeTooLong", err)
	}
	if _, err := NormalizeRoomCode(b); err != ErrRoomCodeTooLong {
		t.Fatalf("err = %v, want ErrRoomCodeTooLong", err)
	}
}

func TestNewUserValidation(t *testing.T) {
	if _, err := NewUser(""); err != ErrUsernameEmpty {
		t.Fatalf("err = %v, want ErrUsernameEmpty", err)
	}
	long := make([]byte, MaxUsernameLen+1)
	for i := range long {
		long[i] = 'x'
	}
	if _, err := NewUser(string(long)); err != ErrUsernameTooLong {
		t.Fatalf("err = %v, want ErrUsernameTooLong", err)
	}
}
