package models

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderUnknown:
		return true
	}
	return false
}

type FamilyMember struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	UserID         string         `json:"user_id" db:"user_id"`
	FirstName      string         `json:"first_name" db:"first_name"`
	MiddleName     *string        `json:"middle_name,omitempty" db:"middle_name"`
	LastName       string         `json:"last_name" db:"last_name"`
	Gender         Gender         `json:"gender" db:"gender"`
	Birth          LifeDate       `json:"-"`
	Death          LifeDate       `json:"-"`
	IsAlive        bool           `json:"is_alive" db:"is_alive"`
	PhotoURL       *string        `json:"photo_url,omitempty" db:"photo_url"`
	Role           Role           `json:"role" db:"role"`
	TranslatedRole *string        `json:"translated_role,omitempty" db:"translated_role"`
	PartnerID      *uuid.UUID     `json:"partner_id,omitempty" db:"partner_id"`
	PartnerStatus  *PartnerStatus `json:"partner_status,omitempty" db:"partner_status"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// Clone returns a copy that shares no pointers with m.
func (m *FamilyMember) Clone() *FamilyMember {
	if m == nil {
		return nil
	}
	c := *m
	c.MiddleName = clonePtr(m.MiddleName)
	c.PhotoURL = clonePtr(m.PhotoURL)
	c.TranslatedRole = clonePtr(m.TranslatedRole)
	c.PartnerID = clonePtr(m.PartnerID)
	c.PartnerStatus = clonePtr(m.PartnerStatus)
	return &c
}

func (m *FamilyMember) SetPartner(id uuid.UUID, status PartnerStatus) {
	m.PartnerID = &id
	m.PartnerStatus = &status
}

func (m *FamilyMember) ClearPartner() {
	m.PartnerID = nil
	m.PartnerStatus = nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
