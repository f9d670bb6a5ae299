package dto

import (
	"github.com/google/uuid"
)

// MemberRequest is the body of member create and update calls. Every field is
// optional at the wire level; create-time requirements are checked by the service.
type MemberRequest struct {
	Role           *string `json:"role,omitempty" binding:"omitempty,max=64"`
	FirstName      *string `json:"firstName,omitempty" binding:"omitempty,max=100"`
	MiddleName     *string `json:"middleName,omitempty" binding:"omitempty,max=100"`
	LastName       *string `json:"lastName,omitempty" binding:"omitempty,max=100"`
	Gender         *string `json:"gender,omitempty" binding:"omitempty,oneof=male female other unknown"`
	DOB            *string `json:"dob,omitempty"`
	BirthYear      *int    `json:"birthYear,omitempty" binding:"omitempty,min=1,max=9999"`
	BirthNote      *string `json:"birthNote,omitempty" binding:"omitempty,max=500"`
	DOD            *string `json:"dod,omitempty"`
	DeathYear      *int    `json:"deathYear,omitempty" binding:"omitempty,min=1,max=9999"`
	DeathNote      *string `json:"deathNote,omitempty" binding:"omitempty,max=500"`
	IsAlive        *bool   `json:"isAlive,omitempty"`
	PhotoURL       *string `json:"photoUrl,omitempty" binding:"omitempty,max=2048"`
	TranslatedRole *string `json:"translatedRole,omitempty" binding:"omitempty,max=100"`
}

type SetPartnerRequest struct {
	MemberID  uuid.UUID `json:"memberId" binding:"required"`
	PartnerID uuid.UUID `json:"partnerId" binding:"required"`
	Status    string    `json:"status,omitempty" binding:"omitempty,partner_status"`
}

type ClearPartnerRequest struct {
	MemberID uuid.UUID `json:"memberId" binding:"required"`
}

type CreateRelationshipRequest struct {
	FromMemberID uuid.UUID `json:"fromMemberId" binding:"required"`
	ToMemberID   uuid.UUID `json:"toMemberId" binding:"required"`
	Type         string    `json:"type" binding:"required,relation_type"`
}

type RelationshipResponse struct {
	ID           uuid.UUID `json:"id"`
	FromMemberID uuid.UUID `json:"fromMemberId"`
	ToMemberID   uuid.UUID `json:"toMemberId"`
	Type         string    `json:"type"`
	CreatedAt    string    `json:"createdAt"`
}

type PartnerResponse struct {
	MemberID  uuid.UUID  `json:"memberId"`
	PartnerID *uuid.UUID `json:"partnerId"`
	Status    *string    `json:"status"`
}
