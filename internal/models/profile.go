package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MemberProfile holds the free-form content of one member. The document fields
// are arbitrary JSON and are stored as jsonb.
type MemberProfile struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	MemberID      uuid.UUID       `json:"member_id" db:"member_id"`
	Bio           *string         `json:"bio,omitempty" db:"bio"`
	CoverMediaURL *string         `json:"cover_media_url,omitempty" db:"cover_media_url"`
	Achievements  json.RawMessage `json:"achievements,omitempty" db:"achievements"`
	Facts         json.RawMessage `json:"facts,omitempty" db:"facts"`
	Favorites     json.RawMessage `json:"favorites,omitempty" db:"favorites"`
	Education     json.RawMessage `json:"education,omitempty" db:"education"`
	Work          json.RawMessage `json:"work,omitempty" db:"work"`
	PersonalInfo  json.RawMessage `json:"personal_info,omitempty" db:"personal_info"`
	Stories       []Story         `json:"stories" db:"stories"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

type Story struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body"`
	Date  string `json:"date,omitempty"`
}
