package domain

// RoomID is the short code participants share to meet in a session.
type RoomID string

// NewRoomID validates a client-supplied room code.
func NewRoomID(raw string) (RoomID, error) {
	if len(raw) == 0 {
		return "", ErrRoomIDEmpty
	}
	if len(raw) > MaxRoomIDLen {
		return "", ErrRoomIDTooLong
	}
	return RoomID(raw), nil
}
