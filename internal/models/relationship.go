package models

import (
	"time"

	"github.com/google/uuid"
)

type RelationType string

const (
	RelationParent  RelationType = "parent"
	RelationChild   RelationType = "child"
	RelationPartner RelationType = "partner"
	RelationSibling RelationType = "sibling"
	RelationOther   RelationType = "other"
)

func (t RelationType) Valid() bool {
	switch t {
	case RelationParent, RelationChild, RelationPartner, RelationSibling, RelationOther:
		return true
	}
	return false
}

// Relationship is a directed typed edge between two members of the same user.
type Relationship struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	FromMemberID uuid.UUID    `json:"from_member_id" db:"from_member_id"`
	ToMemberID   uuid.UUID    `json:"to_member_id" db:"to_member_id"`
	Type         RelationType `json:"type" db:"type"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

type PartnerStatus string

const (
	PartnerMarried   PartnerStatus = "MARRIED"
	PartnerDivorced  PartnerStatus = "DIVORCED"
	PartnerSeparated PartnerStatus = "SEPARATED"
	PartnerWidowed   PartnerStatus = "WIDOWED"
	PartnerEngaged   PartnerStatus = "ENGAGED"
	PartnerPartners  PartnerStatus = "PARTNERS"
	PartnerFriends   PartnerStatus = "FRIENDS"
	PartnerAnnulled  PartnerStatus = "ANNULLED"
	PartnerUnknown   PartnerStatus = "UNKNOWN"
	PartnerOther     PartnerStatus = "OTHER"
)

var PartnerStatuses = []PartnerStatus{
	PartnerMarried, PartnerDivorced, PartnerSeparated, PartnerWidowed, PartnerEngaged,
	PartnerPartners, PartnerFriends, PartnerAnnulled, PartnerUnknown, PartnerOther,
}

func (s PartnerStatus) Valid() bool {
	for _, v := range PartnerStatuses {
		if s == v {
			return true
		}
	}
	return false
}
