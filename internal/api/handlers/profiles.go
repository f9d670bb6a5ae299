package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/famtree/internal/auth"
	"github.com/your-org/famtree/internal/family"
	"github.com/your-org/famtree/internal/models"
	"github.com/your-org/famtree/internal/query"
	"github.com/your-org/famtree/pkg/dto"
)

type ProfileHandler struct {
	svc *family.Service
}

func NewProfileHandler(svc *family.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

func profileFields(req dto.ProfileRequest) family.ProfileFields {
	f := family.ProfileFields{
		Bio:           req.Bio,
		CoverMediaURL: req.CoverMediaURL,
		Achievements:  req.Achievements,
		Facts:         req.Facts,
		Favorites:     req.Favorites,
		Education:     req.Education,
		Work:          req.Work,
		PersonalInfo:  req.PersonalInfo,
	}
	if req.Stories != nil {
		stories := make([]models.Story, 0, len(*req.Stories))
		for _, s := range *req.Stories {
			stories = append(stories, models.Story{Title: s.Title, Body: s.Body, Date: s.Date})
		}
		f.Stories = &stories
	}
	return f
}

func (h *ProfileHandler) Get(c *gin.Context) {
	p, err := h.svc.GetProfileByRole(c.Request.Context(), auth.UserID(c), c.Param("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, query.Profile(p))
}

// Create fails with 409 when the member already has a profile.
func (h *ProfileHandler) Create(c *gin.Context) {
	var req dto.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	p, err := h.svc.CreateProfileByRole(c.Request.Context(), auth.UserID(c), c.Param("role"), profileFields(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, query.Profile(p))
}

// Update merges into the profile, creating it when missing.
func (h *ProfileHandler) Update(c *gin.Context) {
	var req dto.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	p, err := h.svc.UpsertProfileByRole(c.Request.Context(), auth.UserID(c), c.Param("role"), profileFields(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, query.Profile(p))
}
