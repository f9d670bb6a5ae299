package family

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/your-org/famtree/internal/apperr"
	"github.com/your-org/famtree/internal/models"
	"github.com/your-org/famtree/internal/observability"
)

// CreateMember stores a new member for userID. The (user, role) pair must be free.
func (s *Service) CreateMember(ctx context.Context, userID string, f MemberFields) (*models.FamilyMember, error) {
	if err := f.checkRequired(); err != nil {
		return nil, err
	}
	m := &models.FamilyMember{
		ID:     uuid.New(),
		UserID: userID,
		Gender: models.GenderUnknown,
	}
	if err := f.apply(m); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now

	if err := s.store.CreateMember(ctx, m); err != nil {
		return nil, fmt.Errorf("create member %q: %w", m.Role, err)
	}
	s.members.Invalidate(userID, m.Role)
	s.profiles.Invalidate(userID, m.Role)
	observability.MemberWrites.WithLabelValues("create").Inc()
	slog.Info("member created", "user_id", userID, "role", m.Role, "member_id", m.ID)
	s.emit(ctx, models.EventMemberCreated, userID, m.Role, m.ID)
	return m, nil
}

// CreateByRole creates a member whose role comes from the route, not the body.
func (s *Service) CreateByRole(ctx context.Context, userID, role string, f MemberFields) (*models.FamilyMember, error) {
	f.Role = &role
	return s.CreateMember(ctx, userID, f)
}

// GetByRole looks a member up case-insensitively. It returns nil when absent.
func (s *Service) GetByRole(ctx context.Context, userID, role string) (*models.FamilyMember, error) {
	r := models.NormalizeRole(role)
	if m, ok := s.members.Get(userID, r); ok {
		return m.Clone(), nil
	}
	epoch := s.members.Epoch()
	m, err := s.store.GetMemberByRole(ctx, userID, r)
	if err != nil {
		return nil, fmt.Errorf("get member %q: %w", r, err)
	}
	if m == nil {
		return nil, nil
	}
	s.members.SetIfCurrent(userID, r, m.Clone(), epoch)
	return m, nil
}

func (s *Service) mustGetByRole(ctx context.Context, userID, role string) (*models.FamilyMember, error) {
	m, err := s.GetByRole(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.NotFound("member with role %q not found", models.NormalizeRole(role))
	}
	return m, nil
}

// UpdateByRole merges f into the member holding role. The role itself may change.
func (s *Service) UpdateByRole(ctx context.Context, userID, role string, f MemberFields) (*models.FamilyMember, error) {
	r := models.NormalizeRole(role)
	m, err := s.store.GetMemberByRole(ctx, userID, r)
	if err != nil {
		return nil, fmt.Errorf("get member %q: %w", r, err)
	}
	if m == nil {
		return nil, apperr.NotFound("member with role %q not found", r)
	}
	if err := f.apply(m); err != nil {
		return nil, err
	}
	m.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateMember(ctx, m); err != nil {
		return nil, fmt.Errorf("update member %q: %w", r, err)
	}
	s.members.Invalidate(userID, r)
	s.members.Invalidate(userID, m.Role)
	if m.Role != r {
		s.profiles.Invalidate(userID, r)
		s.profiles.Invalidate(userID, m.Role)
	}
	observability.MemberWrites.WithLabelValues("update").Inc()
	s.emit(ctx, models.EventMemberUpdated, userID, m.Role, m.ID)
	return m, nil
}

// UpsertByRole updates the member holding role, creating it when missing.
func (s *Service) UpsertByRole(ctx context.Context, userID, role string, f MemberFields) (*models.FamilyMember, error) {
	m, err := s.UpdateByRole(ctx, userID, role, f)
	if err == nil || apperr.KindOf(err) != apperr.KindNotFound {
		return m, err
	}
	if f.Role == nil {
		f.Role = &role
	}
	return s.CreateMember(ctx, userID, f)
}

// ListAll returns every member of the user by date of birth, unknown dates last.
func (s *Service) ListAll(ctx context.Context, userID string) ([]models.FamilyMember, error) {
	members, err := s.store.ListMembers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// DeleteByRole removes a member and everything it owns. Object bytes are purged
// asynchronously.
func (s *Service) DeleteByRole(ctx context.Context, userID, role string) error {
	m, err := s.mustGetByRole(ctx, userID, role)
	if err != nil {
		return err
	}
	keys, err := s.store.DeleteMember(ctx, userID, m.ID)
	if err != nil {
		return fmt.Errorf("delete member %q: %w", m.Role, err)
	}
	// the counterpart's partner fields changed too
	s.members.Clear()
	s.profiles.Invalidate(userID, m.Role)
	observability.MemberWrites.WithLabelValues("delete").Inc()
	slog.Info("member deleted", "user_id", userID, "role", m.Role, "media_objects", len(keys))

	s.purge(ctx, userID, keys)
	s.emit(ctx, models.EventMemberDeleted, userID, m.Role, m.ID)
	return nil
}
