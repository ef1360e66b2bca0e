package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Pointing/internal/domain"
)

type memberEntry struct {
	member domain.Member
	conn   SignalConnection
}

// roomImpl is a threadsafe in-memory room session.
// It never closes adapter-owned resources.
type roomImpl struct {
	id   domain.RoomID
	opts RoomOptions

	mu         sync.RWMutex
	order      []string
	members    map[string]*memberEntry
	votes      domain.RoundSnapshot
	history    []domain.RoundSnapshot
	seeded     bool
	emptySince time.Time
}

func NewRoomService(id domain.RoomID, opts RoomOptions) RoomService {
	return &roomImpl{
		id:      id,
		opts:    opts,
		members: make(map[string]*memberEntry),
		votes:   make(domain.RoundSnapshot),
	}
}

func (r *roomImpl) ID() domain.RoomID { return r.id }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *roomImpl) Has(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[username]
	return ok
}

func (r *roomImpl) IsFacilitator(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.members[username]
	return ok && e.member.Facilitator
}

// Join upserts a member by username. The first member a room has ever
// seen gets the facilitator flag, as does anyone claiming the
// facilitator role (subject to RoomOptions.ExclusiveFacilitator).
// A rejoin keeps the member's position and current-round vote.
func (r *roomImpl) Join(m *domain.Member, conn SignalConnection) MemberDTO {
	r.mu.Lock()
	defer r.mu.Unlock()

	first := !r.seeded
	r.seeded = true

	joined := *m
	joined.Facilitator = first || m.Role == domain.RoleFacilitator
	if joined.Facilitator && !first && r.opts.ExclusiveFacilitator && r.hasOtherFacilitatorLocked(m.Username) {
		joined.Facilitator = false
	}

	e, ok := r.members[m.Username]
	if ok {
		e.member = joined
	} else {
		e = &memberEntry{member: joined}
		r.members[m.Username] = e
		r.order = append(r.order, m.Username)
	}
	e.conn = conn
	r.emptySince = time.Time{}

	log.Info().Str("module", "core.room").Str("room", string(r.id)).
		Str("user", m.Username).Bool("facilitator", joined.Facilitator).Msg("member added")
	return MemberDTO{Username: joined.Username, Role: joined.Role, Facilitator: joined.Facilitator}
}

func (r *roomImpl) hasOtherFacilitatorLocked(except string) bool {
	for name, e := range r.members {
		if name != except && e.member.Facilitator {
			return true
		}
	}
	return false
}

// Remove deletes a member from the roster. The member's current vote is
// left behind and pruned on the next votes read, not eagerly.
func (r *roomImpl) Remove(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[username]; !ok {
		return false
	}
	delete(r.members, username)
	for i, name := range r.order {
		if name == username {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if len(r.members) == 0 {
		r.emptySince = time.Now()
	}
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("user", username).Msg("member removed")
	return true
}

func (r *roomImpl) CastVote(username string, v domain.VoteValue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.votes[username] = v
}

// Votes returns the current round's votes restricted to current members.
// Stale entries from departed members are dropped here.
func (r *roomImpl) Votes() domain.RoundSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	return r.votes.Clone()
}

// MaskedVotes is the pre-reveal view: who voted, not what.
func (r *roomImpl) MaskedVotes() domain.RoundSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	out := make(domain.RoundSnapshot, len(r.votes))
	for name := range r.votes {
		out[name] = Masked
	}
	return out
}

func (r *roomImpl) pruneLocked() {
	for name := range r.votes {
		if _, ok := r.members[name]; !ok {
			delete(r.votes, name)
		}
	}
}

// AllHaveVoted reports whether every eligible voter (role != observer)
// has an entry in the current round, and the eligible set is non-empty.
func (r *roomImpl) AllHaveVoted() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	eligible := 0
	for name, e := range r.members {
		if !e.member.Role.Votes() {
			continue
		}
		eligible++
		if _, ok := r.votes[name]; !ok {
			return false
		}
	}
	return eligible > 0
}

func (r *roomImpl) ResetVotes() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.votes = make(domain.RoundSnapshot)
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Msg("votes cleared")
}

// NextRound freezes a non-empty current round into history and clears
// the votes either way. Reports whether a snapshot was appended.
func (r *roomImpl) NextRound() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	appended := false
	if len(r.votes) > 0 {
		r.history = append(r.history, r.votes.Clone())
		appended = true
	}
	r.votes = make(domain.RoundSnapshot)
	log.Info().Str("module", "core.room").Str("room", string(r.id)).
		Bool("saved", appended).Int("rounds", len(r.history)).Msg("round advanced")
	return appended
}

func (r *roomImpl) History() []domain.RoundSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.RoundSnapshot, len(r.history))
	copy(out, r.history)
	return out
}

func (r *roomImpl) Roster() []MemberDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberDTO, 0, len(r.order))
	for _, name := range r.order {
		m := r.members[name].member
		out = append(out, MemberDTO{Username: m.Username, Role: m.Role, Facilitator: m.Facilitator})
	}
	return out
}

// EmptySince reports when the room last lost its final member.
func (r *roomImpl) EmptySince() (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.members) > 0 || r.emptySince.IsZero() {
		return time.Time{}, false
	}
	return r.emptySince, true
}

// Broadcast fans a frame out to every member connection without
// blocking. Members whose buffer is full are reported, not unwound.
func (r *roomImpl) Broadcast(data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for _, name := range r.order {
		e := r.members[name]
		if e.conn == nil {
			continue
		}
		if err := e.conn.TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, name)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.id)).
		Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
