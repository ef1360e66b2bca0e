package domain

// VoteValue is an opaque card face chosen by the client. The server only
// requires it to be non-empty.
type VoteValue string

// RoundSnapshot is a frozen copy of a round's votes, keyed by username.
// Snapshots are immutable once appended to a room's history.
type RoundSnapshot map[string]VoteValue

// Clone copies a vote mapping so the original can keep mutating.
func (s RoundSnapshot) Clone() RoundSnapshot {
	out := make(RoundSnapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
