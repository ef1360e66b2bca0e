// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const (
	MaxUsernameLen = 36
	MaxRoomIDLen   = 36
)

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
	ErrRoomIDEmpty     = errors.New("room id empty")
	ErrRoomIDTooLong   = errors.New("room id too long")
	ErrVoteEmpty       = errors.New("vote empty")
	ErrUnknownRoom     = errors.New("unknown room")
	ErrMalformedEvent  = errors.New("malformed event")
	ErrNotAMember      = errors.New("not a member of the room")
	ErrUnauthorized    = errors.New("facilitator authority required")
)

// Role is a client-asserted participation role. Unknown values are kept
// as-is; only the observer role changes voting eligibility.
type Role string

const (
	RoleFacilitator Role = "facilitator"
	RoleDeveloper   Role = "developer"
	RoleQA          Role = "qa"
	RoleObserver    Role = "observer"
)

// Votes reports whether a member with this role counts toward the
// all-voted check.
func (r Role) Votes() bool { return r != RoleObserver }

// Member represents user's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	Username    string `json:"username"`
	Role        Role   `json:"role"`
	Facilitator bool   `json:"isFacilitator"`
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(username string, role Role) (*Member, error) {
	if len(username) == 0 {
		return nil, ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	return &Member{Username: username, Role: role}, nil
}
