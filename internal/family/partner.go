package family

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/your-org/famtree/internal/apperr"
	"github.com/your-org/famtree/internal/models"
	"github.com/your-org/famtree/internal/observability"
)

// ParsePartnerStatus upper-cases s and defaults an empty value to UNKNOWN.
func ParsePartnerStatus(s string) (models.PartnerStatus, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return models.PartnerUnknown, nil
	}
	st := models.PartnerStatus(s)
	if !st.Valid() {
		return "", apperr.Validation("status", "unsupported partner status %q", s)
	}
	return st, nil
}

// SetPartner links memberID and partnerID symmetrically. Any previous partner of
// either member is unlinked in the same transaction. The call is idempotent.
func (s *Service) SetPartner(ctx context.Context, userID string, memberID, partnerID uuid.UUID, status string) (*models.FamilyMember, error) {
	st, err := ParsePartnerStatus(status)
	if err != nil {
		return nil, err
	}
	if memberID == partnerID {
		return nil, apperr.Validation("partnerId", "a member cannot be its own partner")
	}
	for _, id := range []uuid.UUID{memberID, partnerID} {
		m, err := s.store.GetMember(ctx, userID, id)
		if err != nil {
			return nil, fmt.Errorf("get member %s: %w", id, err)
		}
		if m == nil {
			return nil, apperr.NotFound("member %s not found", id)
		}
	}

	changed, err := s.store.SetPartner(ctx, userID, memberID, partnerID, st)
	if err != nil {
		return nil, fmt.Errorf("set partner: %w", err)
	}
	s.members.Clear()
	observability.PartnerLinks.WithLabelValues("set").Inc()
	slog.Info("partner set", "user_id", userID, "member_id", memberID, "partner_id", partnerID, "status", st)
	s.emit(ctx, models.EventPartnerSet, userID, "", changed...)

	return s.store.GetMember(ctx, userID, memberID)
}

// ClearPartner removes the partner link of memberID on both sides. Clearing a
// member without a partner is a no-op.
func (s *Service) ClearPartner(ctx context.Context, userID string, memberID uuid.UUID) (*models.FamilyMember, error) {
	m, err := s.store.GetMember(ctx, userID, memberID)
	if err != nil {
		return nil, fmt.Errorf("get member %s: %w", memberID, err)
	}
	if m == nil {
		return nil, apperr.NotFound("member %s not found", memberID)
	}

	changed, err := s.store.ClearPartner(ctx, userID, memberID)
	if err != nil {
		return nil, fmt.Errorf("clear partner: %w", err)
	}
	if len(changed) == 0 {
		return m, nil
	}
	s.members.Clear()
	observability.PartnerLinks.WithLabelValues("clear").Inc()
	s.emit(ctx, models.EventPartnerCleared, userID, "", changed...)

	return s.store.GetMember(ctx, userID, memberID)
}
