package app

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Pointing/internal/core"
	"github.com/dkeye/Pointing/internal/domain"
)

// Gateway is the session state machine's transition table. Each method
// maps one inbound event onto room mutations; broadcasting the results
// is the signal adapter's job. Rejected events never mutate state.
type Gateway struct {
	Rooms    *RoomRegistry
	Sessions *Registry
	Policy   Policy

	// EnforceFacilitator gates reveal/reset/next-round/remove-user on
	// the sender holding the facilitator flag.
	EnforceFacilitator bool
}

// Join binds the connection to (roomId, username) and upserts the
// member. If the username is already held by another live connection
// in that room, the older connection is terminated (rejoin takes
// over). Returns the joined room and, when the connection switched
// rooms, the room it left.
func (g *Gateway) Join(sid core.SessionID, roomID domain.RoomID, username string, role domain.Role, conn core.SignalConnection) (room, left core.RoomService, err error) {
	member, err := domain.NewMember(username, role)
	if err != nil {
		return nil, nil, err
	}

	if prevRoom, prevUser, ok := g.Sessions.Identity(sid); ok && (prevRoom != roomID || prevUser != username) {
		if pr, ok := g.Rooms.Get(prevRoom); ok && pr.Remove(prevUser) {
			left = pr
		}
	}

	if old, ok := g.Sessions.SIDOf(roomID, username); ok && old != sid {
		g.Sessions.Cancel(old)
		log.Info().Str("module", "app.gateway").Str("sid", string(old)).
			Str("user", username).Msg("kicked stale session on rejoin")
	}

	room = g.Rooms.GetOrCreate(roomID)
	g.Sessions.SetIdentity(sid, roomID, username)
	room.Join(member, conn)
	return room, left, nil
}

// CastVote records a vote for a tracked member of an existing room.
func (g *Gateway) CastVote(roomID domain.RoomID, username string, vote domain.VoteValue) (core.RoomService, error) {
	room, ok := g.Rooms.Get(roomID)
	if !ok {
		return nil, domain.ErrUnknownRoom
	}
	if vote == "" {
		return nil, domain.ErrVoteEmpty
	}
	if !room.Has(username) {
		return nil, domain.ErrNotAMember
	}
	room.CastVote(username, vote)
	return room, nil
}

// Reveal authorizes the reveal action; it mutates nothing. The caller
// broadcasts the unmasked vote map.
func (g *Gateway) Reveal(sid core.SessionID, roomID domain.RoomID) (core.RoomService, error) {
	return g.privileged(sid, roomID)
}

// Reset clears the current round's votes; history is untouched.
func (g *Gateway) Reset(sid core.SessionID, roomID domain.RoomID) (core.RoomService, error) {
	room, err := g.privileged(sid, roomID)
	if err != nil {
		return nil, err
	}
	room.ResetVotes()
	return room, nil
}

// NextRound freezes the current votes into history (when non-empty)
// and starts a fresh round.
func (g *Gateway) NextRound(sid core.SessionID, roomID domain.RoomID) (core.RoomService, bool, error) {
	room, err := g.privileged(sid, roomID)
	if err != nil {
		return nil, false, err
	}
	appended := room.NextRound()
	return room, appended, nil
}

// RemoveUser kicks a member: its connection is terminated and the
// member dropped from the roster.
func (g *Gateway) RemoveUser(sid core.SessionID, roomID domain.RoomID, target string) (core.RoomService, error) {
	room, err := g.privileged(sid, roomID)
	if err != nil {
		return nil, err
	}
	if tsid, ok := g.Sessions.SIDOf(roomID, target); ok {
		g.Sessions.Cancel(tsid)
	}
	room.Remove(target)
	return room, nil
}

// Disconnect reconciles a closed connection: the bound member leaves
// its room. Returns the room needing a roster broadcast, or nil.
func (g *Gateway) Disconnect(sid core.SessionID) core.RoomService {
	roomID, username, ok := g.Sessions.Identity(sid)
	g.Sessions.Unbind(sid)
	if !ok {
		return nil
	}
	room, ok := g.Rooms.Get(roomID)
	if !ok {
		return nil
	}
	if !room.Remove(username) {
		return nil
	}
	return room
}

// DropSlow applies the backpressure policy to members whose send
// buffer was full during a broadcast. Reports whether the roster
// changed so the caller can re-announce it.
func (g *Gateway) DropSlow(room core.RoomService, dropped []string) bool {
	if g.Policy == nil {
		return false
	}
	removed := false
	for _, username := range dropped {
		switch g.Policy.OnBackPressure(room, username) {
		case KickMember:
			if sid, ok := g.Sessions.SIDOf(room.ID(), username); ok {
				g.Sessions.Cancel(sid)
			}
			if room.Remove(username) {
				removed = true
			}
			log.Warn().Str("module", "app.gateway").Str("room", string(room.ID())).
				Str("user", username).Msg("kicked slow member")
		case MarkSlow, DropFrame, NoAction:
		}
	}
	return removed
}

func (g *Gateway) privileged(sid core.SessionID, roomID domain.RoomID) (core.RoomService, error) {
	room, ok := g.Rooms.Get(roomID)
	if !ok {
		return nil, domain.ErrUnknownRoom
	}
	if !g.EnforceFacilitator {
		return room, nil
	}
	boundRoom, username, ok := g.Sessions.Identity(sid)
	if !ok || boundRoom != roomID || !room.IsFacilitator(username) {
		return nil, domain.ErrUnauthorized
	}
	return room, nil
}
