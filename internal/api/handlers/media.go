package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/famtree/internal/auth"
	"github.com/your-org/famtree/internal/family"
	"github.com/your-org/famtree/internal/query"
	"github.com/your-org/famtree/pkg/dto"
)

// multipartOverhead is the room left in the request body for form fields and
// part headers on top of the file itself.
const multipartOverhead = 64 << 10

type MediaHandler struct {
	svc      *family.Service
	maxBytes int64
}

func NewMediaHandler(svc *family.Service, maxBytes int64) *MediaHandler {
	return &MediaHandler{svc: svc, maxBytes: maxBytes}
}

func (h *MediaHandler) tooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, gin.H{
		"error": "file exceeds the " + strconv.FormatInt(h.maxBytes, 10) + " byte limit",
	})
}

// Upload accepts a multipart "file" with optional "role", "caption" and
// "photo" fields and returns the public url.
func (h *MediaHandler) Upload(c *gin.Context) {
	limit := h.maxBytes + multipartOverhead
	if c.Request.ContentLength > limit {
		h.tooLarge(c)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			h.tooLarge(c)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required", "field": "file"})
		return
	}
	defer file.Close()
	if header.Size > h.maxBytes {
		h.tooLarge(c)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
		return
	}
	setPhoto, _ := strconv.ParseBool(c.PostForm("photo"))

	res, err := h.svc.UploadMedia(c.Request.Context(), auth.UserID(c), family.Upload{
		Data:     data,
		Filename: header.Filename,
		Role:     c.PostForm("role"),
		Caption:  c.PostForm("caption"),
		SetPhoto: setPhoto,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.UploadResponse{URL: res.URL}
	if res.Item != nil {
		item := query.MediaItem(*res.Item)
		resp.Item = &item
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *MediaHandler) List(c *gin.Context) {
	items, err := h.svc.ListMedia(c.Request.Context(), auth.UserID(c), c.Query("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": query.MediaItems(items), "total": len(items)})
}

func (h *MediaHandler) Delete(c *gin.Context) {
	var req dto.DeleteMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	n, err := h.svc.DeleteMediaByURLs(c.Request.Context(), auth.UserID(c), req.URLs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// File streams one of the caller's objects back.
func (h *MediaHandler) File(c *gin.Context) {
	data, contentType, err := h.svc.OpenMedia(c.Request.Context(), auth.UserID(c), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, contentType, data)
}
