package dto

import "github.com/google/uuid"

type MediaItemResponse struct {
	ID          uuid.UUID `json:"id"`
	MemberID    uuid.UUID `json:"memberId"`
	URL         string    `json:"url"`
	Type        string    `json:"type"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Caption     *string   `json:"caption,omitempty"`
	UploadedAt  string    `json:"uploadedAt"`
}

type UploadResponse struct {
	URL  string             `json:"url"`
	Item *MediaItemResponse `json:"item,omitempty"`
}

type DeleteMediaRequest struct {
	URLs []string `json:"urls" binding:"required,min=1,max=100,dive,required"`
}
