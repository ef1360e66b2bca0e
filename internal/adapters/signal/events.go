package signal

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/dkeye/Pointing/internal/core"
	"github.com/dkeye/Pointing/internal/domain"
)

var validate = validator.New()

// Inbound events. Every payload carries the envelope type plus at
// least a roomId; decode rejects anything missing required fields.

type joinRoomEvent struct {
	Type     string      `json:"type"`
	RoomID   string      `json:"roomId" validate:"required,max=36"`
	Username string      `json:"username" validate:"required,max=36"`
	Role     domain.Role `json:"role,omitempty"`
}

type castVoteEvent struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId" validate:"required,max=36"`
	Username string `json:"username" validate:"required,max=36"`
	Vote     string `json:"vote" validate:"required"`
}

type roomOnlyEvent struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId" validate:"required,max=36"`
}

type removeUserEvent struct {
	Type           string `json:"type"`
	RoomID         string `json:"roomId" validate:"required,max=36"`
	TargetUsername string `json:"targetUsername" validate:"required,max=36"`
}

// Outbound events.

type userListEvent struct {
	Type  string           `json:"type"`
	Users []core.MemberDTO `json:"users"`
}

type voteUpdateEvent struct {
	Type  string               `json:"type"`
	Votes domain.RoundSnapshot `json:"votes"`
}

type votingStatusEvent struct {
	Type         string `json:"type"`
	AllHaveVoted bool   `json:"allHaveVoted"`
}

type voteHistoryEvent struct {
	Type    string                 `json:"type"`
	History []domain.RoundSnapshot `json:"history"`
}

type actionRejectedEvent struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err)
	}
	return nil
}

// rejectReason maps a gateway error onto the wire-level reason string.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnknownRoom):
		return "unknown_room"
	case errors.Is(err, domain.ErrNotAMember):
		return "not_a_member"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrVoteEmpty):
		return "empty_vote"
	case errors.Is(err, domain.ErrUsernameEmpty), errors.Is(err, domain.ErrUsernameTooLong):
		return "invalid_name"
	case errors.Is(err, domain.ErrRoomIDEmpty), errors.Is(err, domain.ErrRoomIDTooLong):
		return "invalid_room"
	default:
		return "bad_payload"
	}
}
