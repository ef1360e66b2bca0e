package core

import (
	"time"

	"github.com/dkeye/Pointing/internal/domain"
)

// Frame is a marshaled outbound event payload.
type Frame []byte

// SessionID identifies one live connection.
type SessionID string

// Masked stands in for a real vote value in pre-reveal broadcasts.
const Masked domain.VoteValue = "?"

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats/backpressure to the gateway.
type PublishResult struct {
	SentTo  int
	Dropped []string
}

// MemberDTO is a read-only roster view for broadcasts (no transport fields).
type MemberDTO struct {
	Username    string      `json:"username"`
	Role        domain.Role `json:"role"`
	Facilitator bool        `json:"isFacilitator"`
}

// RoomOptions tunes the behaviors the session core leaves as policy.
type RoomOptions struct {
	// ExclusiveFacilitator withholds the facilitator flag from a
	// facilitator-role join when another member already holds it.
	ExclusiveFacilitator bool
}

// RoomService is the core-facing API of a room session.
// It owns membership, votes, and history but never closes transports.
type RoomService interface {
	ID() domain.RoomID
	MemberCount() int
	Roster() []MemberDTO
	Has(username string) bool
	IsFacilitator(username string) bool

	Join(m *domain.Member, conn SignalConnection) MemberDTO
	Remove(username string) bool

	CastVote(username string, v domain.VoteValue)
	Votes() domain.RoundSnapshot
	MaskedVotes() domain.RoundSnapshot
	AllHaveVoted() bool
	ResetVotes()
	NextRound() bool
	History() []domain.RoundSnapshot

	EmptySince() (time.Time, bool)
	Broadcast(data Frame) PublishResult
}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"member_count"`
	Rounds      int           `json:"rounds"`
}
