package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

type StoryEntry struct {
	Title string `json:"title,omitempty" binding:"omitempty,max=200"`
	Body  string `json:"body" binding:"required"`
	Date  string `json:"date,omitempty"`
}

// ProfileRequest carries a create or partial update. Document fields accept any JSON.
type ProfileRequest struct {
	Bio           *string         `json:"bio,omitempty"`
	CoverMediaURL *string         `json:"coverMediaUrl,omitempty" binding:"omitempty,max=2048"`
	Achievements  json.RawMessage `json:"achievements,omitempty"`
	Facts         json.RawMessage `json:"facts,omitempty"`
	Favorites     json.RawMessage `json:"favorites,omitempty"`
	Education     json.RawMessage `json:"education,omitempty"`
	Work          json.RawMessage `json:"work,omitempty"`
	PersonalInfo  json.RawMessage `json:"personalInfo,omitempty"`
	Stories       *[]StoryEntry   `json:"stories,omitempty" binding:"omitempty,dive"`
}

type ProfileResponse struct {
	ID            uuid.UUID       `json:"id"`
	MemberID      uuid.UUID       `json:"memberId"`
	Bio           *string         `json:"bio"`
	CoverMediaURL *string         `json:"coverMediaUrl"`
	Achievements  json.RawMessage `json:"achievements"`
	Facts         json.RawMessage `json:"facts"`
	Favorites     json.RawMessage `json:"favorites"`
	Education     json.RawMessage `json:"education"`
	Work          json.RawMessage `json:"work"`
	PersonalInfo  json.RawMessage `json:"personalInfo"`
	Stories       []StoryEntry    `json:"stories"`
	CreatedAt     string          `json:"createdAt"`
	UpdatedAt     string          `json:"updatedAt"`
}
