package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/your-org/famtree/internal/apperr"
)

// respondError maps an error kind to its HTTP status. Storage and unexpected
// errors are logged and reported without internal detail.
func respondError(c *gin.Context, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	switch ae.Kind {
	case apperr.KindValidation:
		body := gin.H{"error": ae.Message}
		if ae.Field != "" {
			body["field"] = ae.Field
		}
		c.JSON(http.StatusBadRequest, body)
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": ae.Message})
	case apperr.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": ae.Message})
	default:
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": ae.Message})
	}
}

// bindError reports a request body that failed to decode or validate.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "failed on the '" + fe.Tag() + "' rule",
			"field": jsonField(fe),
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// jsonField turns a validator namespace like "SetPartnerRequest.memberId" into
// the json path the client sent.
func jsonField(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
