package dto

import "github.com/google/uuid"

// WSEvent is a WebSocket message telling the frontend that part of its tree changed.
type WSEvent struct {
	Type      string      `json:"type"`
	MemberIDs []uuid.UUID `json:"memberIds,omitempty"`
	Role      string      `json:"role,omitempty"`
	At        string      `json:"at"`
}
