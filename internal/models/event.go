package models

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventMemberCreated       EventType = "member.created"
	EventMemberUpdated       EventType = "member.updated"
	EventMemberDeleted       EventType = "member.deleted"
	EventPartnerSet          EventType = "partner.set"
	EventPartnerCleared      EventType = "partner.cleared"
	EventRelationshipCreated EventType = "relationship.created"
	EventProfileSaved        EventType = "profile.saved"
	EventMediaUploaded       EventType = "media.uploaded"
	EventMediaDeleted        EventType = "media.deleted"
)

// TreeEvent is published to NATS after every successful write to a user's tree.
type TreeEvent struct {
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	MemberIDs []uuid.UUID `json:"member_ids,omitempty"`
	Role      Role        `json:"role,omitempty"`
	At        time.Time   `json:"at"`
}

// PurgeTask asks the media worker to delete objects whose rows are already gone.
type PurgeTask struct {
	UserID string   `json:"user_id"`
	Keys   []string `json:"keys"`
}
