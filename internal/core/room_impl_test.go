package core

import (
	"errors"
	"testing"
	"time"

	"github.com/dkeye/Pointing/internal/domain"
)

type fakeConn struct {
	frames []Frame
	fail   bool
	closed bool
}

func (c *fakeConn) TrySend(f Frame) error {
	if c.fail {
		return errors.New("buffer full")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() { c.closed = true }

func join(t *testing.T, r RoomService, username string, role domain.Role) MemberDTO {
	t.Helper()
	m, err := domain.NewMember(username, role)
	if err != nil {
		t.Fatalf("new member %s: %v", username, err)
	}
	return r.Join(m, &fakeConn{})
}

func TestFirstJoinerBecomesFacilitator(t *testing.T) {
	r := NewRoomService("ABCD", RoomOptions{})

	alice := join(t, r, "alice", domain.RoleDeveloper)
	if !alice.Facilitator {
		t.Fatal("first joiner should hold the facilitator flag")
	}
	bob := join(t, r, "bob", domain.RoleDeveloper)
	if bob.Facilitator {
		t.Fatal("second joiner without facilitator role should not hold the flag")
	}
}

func TestFacilitatorRoleClaimGrantsFlag(t *testing.T) {
	r := NewRoomService("ABCD", RoomOptions{})
	join(t, r, "alice", domain.RoleDeveloper)

	carol := join(t, r, "carol", domain.RoleFacilitator)
	if !carol.Facilitator {
		t.Fatal("facilitator role claim should grant the flag")
	}
	if !r.IsFacilitator("alice") {
		t.Fatal("co-facilitation: alice should keep her flag")
	}
}

func TestExclusiveFacilitatorWithholdsFlag(t *testing.T) {
	r := NewRoomService("ABCD", RoomOptions{ExclusiveFacilitator: true})
	join(t, r, "alice", domain.RoleDeveloper)

	carol := join(t, r, "carol", domain.RoleFacilitator)
	if carol.Facilitator {
		t.Fatal("exclusive mode: flag already held by alice")
	}
}

func TestFirstJoinerFlagIsNotReissuedAfterEveryoneLeaves(t *testing.T) {
	r := NewRoomService("ABCD", RoomOptions{})
	join(t, r, "alice", domain.RoleDeveloper)
	r.Remove("alice")

	bob := join(t, r, "bob", domain.RoleDeveloper)
	if bob.Facilitator {
		t.Fatal("only the first member the room has ever seen gets the flag")
	}
}

func TestRejoinKeepsOrderAndVote(t *testing.T) {
	r := NewRoomService("ABCD", RoomOptions{})
	join(t, r, "alice", domain.RoleDeveloper)
	join(t, r, "bob", domain.RoleDeveloper)
	r.CastVote("alice", "5")

	join(t, r, "alice", domain.RoleQA)

	roster := r.Roster()
	if len(roster) != 2 {
		t.Fatalf("expected 2 members, got %d", len(roster))
	}
	if roster[0].Username != "alice" || roster[0].Role != domain.RoleQA {
		t.Fatalf("rejoin should keep position and update role, got %+v", roster[0])
	}
	votes := r.Votes()
	if votes["alice"] != "5" {
		t.Fatalf("rejoin should preserve the current-round vote, got %q", votes["alice"])
	}
}

func TestVotesPruneDepartedMembers(t *testing.T) {
	r := NewRoomService("ABCD", RoomOptions{})
	join(t, r, "alice", domain.RoleDeveloper)
	join(t, r, "bob", domain.RoleDeveloper)
	r.CastVote("alice", "5")
	r.CastVote("bob", "8")

	r.Remove("bob")

	votes := r.Votes()
	if len(votes) != 1 || votes["alice"] != "5" {
		t.Fatalf("departed member's vote should be pruned at read, got %v", votes)
	}
}

func TestAllHaveVotedExcludesObservers(t *testing.T) {
	r := NewRoomService("ABCD", RoomOptions{})
	join(t, r, "alice", domain.RoleFacilitator)
	join(t, r, "carol", domain.RoleObserver)

	if r.AllHaveVoted() {
		t.Fatal("no eligible voter has voted yet")
	}
	r.CastVote("alice", "3")
	if !r.AllHaveVoted() {
		t.Fatal("sole eligible voter voted, observers must not count")
	}
}

func TestAllHaveVotedFalseWhenNoEligibleVoters(t *testing.T) {
	r := NewRoomService("ABCD", RoomOptions{})
	join(t, r, "carol", domain.RoleObserver)

	if r.AllHaveVoted() {
		t.Fatal("empty eligible set must report false")
	}
}

func TestResetClearsVotesKeepsHistory(t *testing.T) {
	r := NewRoomService("ABCD", RoomOptions{})
	join(t, r, "alice", domain.RoleDeveloper)
	r.CastVote("alice", "5")
	r.NextRound()
	r.CastVote("alice", "8")

	r.ResetVotes()

	if len(r.Votes()) != 0 {
		t.Fatal("reset should clear current votes")
	}
	if len(r.History()) != 1 {
		t.Fatalf("reset must not touch history, got %d rounds", len(r.History()))
	}
}

func TestNextRoundSnapshotsNonEmptyVotes(t *testing.T) {
	r := NewRoomService("ABCD", RoomOptions{})
	join(t, r, "alice", domain.RoleDeveloper)
	join(t, r, "bob", domain.RoleDeveloper)
	r.CastVote("alice", "5")
	r.CastVote("bob", "8")

	if !r.NextRound() {
		t.Fatal("non-empty round should be snapshotted")
	}
	if len(r.Votes()) != 0 {
		t.Fatal("next round should clear current votes")
	}
	hist := r.History()
	if len(hist) != 1 {
		t.Fatalf("expected 1 round in history, got %d", len(hist))
	}
	if hist[0]["alice"] != "5" || hist[0]["bob"] != "8" {
		t.Fatalf("unexpected snapshot: %v", hist[0])
	}

	if r.NextRound() {
		t.Fatal("empty round must not be snapshotted")
	}
	if len(r.History()) != 1 {
		t.Fatal("history should still hold one round")
	}
}

func TestSnapshotFrozenAgainstLaterVotes(t *testing.T) {
	r := NewRoomService("ABCD", RoomOptions{})
	join(t, r, "alice", domain.RoleDeveloper)
	r.CastVote("alice", "5")
	r.NextRound()

	r.CastVote("alice", "13")
	r.NextRound()

	hist := r.History()
	if hist[0]["alice"] != "5" {
		t.Fatalf("snapshot mutated after append: %v", hist[0])
	}
}

func TestMaskedVotesHideValues(t *testing.T) {
	r := NewRoomService("ABCD", RoomOptions{})
	join(t, r, "alice", domain.RoleDeveloper)
	join(t, r, "bob", domain.RoleDeveloper)
	r.CastVote("alice", "5")

	masked := r.MaskedVotes()
	if masked["alice"] != Masked {
		t.Fatalf("expected masked value, got %q", masked["alice"])
	}
	if _, ok := masked["bob"]; ok {
		t.Fatal("non-voter must not appear in masked view")
	}
}

func TestRosterKeepsJoinOrder(t *testing.T) {
	r := NewRoomService("ABCD", RoomOptions{})
	for _, name := range []string{"alice", "bob", "carol"} {
		join(t, r, name, domain.RoleDeveloper)
	}
	r.Remove("bob")
	join(t, r, "dave", domain.RoleDeveloper)

	roster := r.Roster()
	want := []string{"alice", "carol", "dave"}
	if len(roster) != len(want) {
		t.Fatalf("expected %d members, got %d", len(want), len(roster))
	}
	for i, name := range want {
		if roster[i].Username != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, roster[i].Username)
		}
	}
}

func TestEmptySinceTracksLastDeparture(t *testing.T) {
	r := NewRoomService("ABCD", RoomOptions{})
	if _, ok := r.EmptySince(); ok {
		t.Fatal("a never-joined room has no departure time")
	}
	join(t, r, "alice", domain.RoleDeveloper)
	if _, ok := r.EmptySince(); ok {
		t.Fatal("occupied room is not empty")
	}
	r.Remove("alice")
	since, ok := r.EmptySince()
	if !ok {
		t.Fatal("expected empty-since after last departure")
	}
	if time.Since(since) > time.Minute {
		t.Fatalf("implausible empty-since: %v", since)
	}
}

func TestBroadcastReportsDroppedMembers(t *testing.T) {
	r := NewRoomService("ABCD", RoomOptions{})
	ok := &fakeConn{}
	slow := &fakeConn{fail: true}
	alice, _ := domain.NewMember("alice", domain.RoleDeveloper)
	bob, _ := domain.NewMember("bob", domain.RoleDeveloper)
	r.Join(alice, ok)
	r.Join(bob, slow)

	res := r.Broadcast(Frame(`{"type":"user-list"}`))
	if res.SentTo != 1 {
		t.Fatalf("expected 1 delivery, got %d", res.SentTo)
	}
	if len(res.Dropped) != 1 || res.Dropped[0] != "bob" {
		t.Fatalf("expected bob dropped, got %v", res.Dropped)
	}
	if len(ok.frames) != 1 {
		t.Fatalf("alice should have received the frame, got %d", len(ok.frames))
	}
}
