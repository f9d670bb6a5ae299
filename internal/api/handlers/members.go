package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/famtree/internal/auth"
	"github.com/your-org/famtree/internal/family"
	"github.com/your-org/famtree/internal/models"
	"github.com/your-org/famtree/internal/query"
	"github.com/your-org/famtree/pkg/dto"
)

type MemberHandler struct {
	svc *family.Service
}

func NewMemberHandler(svc *family.Service) *MemberHandler {
	return &MemberHandler{svc: svc}
}

func memberFields(req dto.MemberRequest) family.MemberFields {
	return family.MemberFields{
		Role:           req.Role,
		FirstName:      req.FirstName,
		MiddleName:     req.MiddleName,
		LastName:       req.LastName,
		Gender:         req.Gender,
		DOB:            req.DOB,
		BirthYear:      req.BirthYear,
		BirthNote:      req.BirthNote,
		DOD:            req.DOD,
		DeathYear:      req.DeathYear,
		DeathNote:      req.DeathNote,
		IsAlive:        req.IsAlive,
		PhotoURL:       req.PhotoURL,
		TranslatedRole: req.TranslatedRole,
	}
}

func memberResponse(m *models.FamilyMember) map[string]any {
	return query.Project(m, query.Selection{}, query.Attachments{})
}

// selection reads the fields and with selectors; both may repeat and hold
// comma separated values.
func selection(c *gin.Context) (query.Selection, error) {
	return query.ParseSelection(c.QueryArray("fields"), c.QueryArray("with"))
}

// Create handles POST /family-members with the role in the body.
func (h *MemberHandler) Create(c *gin.Context) {
	var req dto.MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	m, err := h.svc.CreateMember(c.Request.Context(), auth.UserID(c), memberFields(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, memberResponse(m))
}

// CreateByRole handles POST /family-members/:role.
func (h *MemberHandler) CreateByRole(c *gin.Context) {
	var req dto.MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	m, err := h.svc.CreateByRole(c.Request.Context(), auth.UserID(c), c.Param("role"), memberFields(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, memberResponse(m))
}

func (h *MemberHandler) Get(c *gin.Context) {
	m, err := h.svc.GetByRole(c.Request.Context(), auth.UserID(c), c.Param("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "family member not found"})
		return
	}
	c.JSON(http.StatusOK, memberResponse(m))
}

// Update handles PUT /family-members/:role. With ?upsert=true a missing member
// is created from the body.
func (h *MemberHandler) Update(c *gin.Context) {
	var req dto.MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	upsert, _ := strconv.ParseBool(c.Query("upsert"))

	ctx, userID, role := c.Request.Context(), auth.UserID(c), c.Param("role")
	var (
		m   *models.FamilyMember
		err error
	)
	if upsert {
		m, err = h.svc.UpsertByRole(ctx, userID, role, memberFields(req))
	} else {
		m, err = h.svc.UpdateByRole(ctx, userID, role, memberFields(req))
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, memberResponse(m))
}

func (h *MemberHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteByRole(c.Request.Context(), auth.UserID(c), c.Param("role")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List handles GET /family-members/my.
func (h *MemberHandler) List(c *gin.Context) {
	h.tree(c)
}

// Tree handles GET /family-members/my-tree.
func (h *MemberHandler) Tree(c *gin.Context) {
	h.tree(c)
}

func (h *MemberHandler) tree(c *gin.Context) {
	sel, err := selection(c)
	if err != nil {
		respondError(c, err)
		return
	}

	rows, err := h.svc.GetMyTree(c.Request.Context(), auth.UserID(c), sel)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Paged handles GET /family-members/my-tree-paged.
func (h *MemberHandler) Paged(c *gin.Context) {
	sel, err := selection(c)
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := query.ParsePage(c.Query("page"), c.Query("size"), c.Query("sortField"), c.Query("sortOrder"))
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.svc.GetPaged(c.Request.Context(), auth.UserID(c), page, sel)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *MemberHandler) SetPartner(c *gin.Context) {
	var req dto.SetPartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	m, err := h.svc.SetPartner(c.Request.Context(), auth.UserID(c), req.MemberID, req.PartnerID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, partnerResponse(m))
}

func (h *MemberHandler) ClearPartner(c *gin.Context) {
	var req dto.ClearPartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	m, err := h.svc.ClearPartner(c.Request.Context(), auth.UserID(c), req.MemberID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, partnerResponse(m))
}

func partnerResponse(m *models.FamilyMember) dto.PartnerResponse {
	resp := dto.PartnerResponse{MemberID: m.ID, PartnerID: m.PartnerID}
	if m.PartnerStatus != nil {
		s := string(*m.PartnerStatus)
		resp.Status = &s
	}
	return resp
}

func (h *MemberHandler) CreateRelationship(c *gin.Context) {
	var req dto.CreateRelationshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	rel, err := h.svc.CreateRelationship(c.Request.Context(), auth.UserID(c), req.FromMemberID, req.ToMemberID, req.Type)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, query.Relationship(*rel))
}
