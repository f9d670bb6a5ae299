package family

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/your-org/famtree/internal/apperr"
	"github.com/your-org/famtree/internal/models"
)

// ProfileFields is a profile create payload or partial update. Nil fields are left untouched.
type ProfileFields struct {
	Bio           *string
	CoverMediaURL *string
	Achievements  json.RawMessage
	Facts         json.RawMessage
	Favorites     json.RawMessage
	Education     json.RawMessage
	Work          json.RawMessage
	PersonalInfo  json.RawMessage
	Stories       *[]models.Story
}

func (f ProfileFields) apply(p *models.MemberProfile) error {
	if f.Bio != nil {
		p.Bio = optional(*f.Bio)
	}
	if f.CoverMediaURL != nil {
		p.CoverMediaURL = optional(*f.CoverMediaURL)
	}
	docs := []struct {
		name string
		src  json.RawMessage
		dst  *json.RawMessage
	}{
		{"achievements", f.Achievements, &p.Achievements},
		{"facts", f.Facts, &p.Facts},
		{"favorites", f.Favorites, &p.Favorites},
		{"education", f.Education, &p.Education},
		{"work", f.Work, &p.Work},
		{"personalInfo", f.PersonalInfo, &p.PersonalInfo},
	}
	for _, d := range docs {
		if len(d.src) == 0 {
			continue
		}
		if !json.Valid(d.src) {
			return apperr.Validation(d.name, "must be a JSON document")
		}
		if string(d.src) == "null" {
			*d.dst = nil
			continue
		}
		*d.dst = append(json.RawMessage(nil), d.src...)
	}
	if f.Stories != nil {
		stories := make([]models.Story, len(*f.Stories))
		copy(stories, *f.Stories)
		p.Stories = stories
	}
	if p.Stories == nil {
		p.Stories = []models.Story{}
	}
	return nil
}

// GetByMember returns the profile of memberID, or nil when it has none.
func (s *Service) GetByMember(ctx context.Context, memberID uuid.UUID) (*models.MemberProfile, error) {
	p, err := s.store.GetProfile(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", memberID, err)
	}
	return p, nil
}

// CreateByMember fails with a conflict when memberID already has a profile.
func (s *Service) CreateByMember(ctx context.Context, memberID uuid.UUID, f ProfileFields) (*models.MemberProfile, error) {
	existing, err := s.GetByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("profile for member %s already exists", memberID)
	}
	now := s.now().UTC()
	p := &models.MemberProfile{ID: uuid.New(), MemberID: memberID, CreatedAt: now, UpdatedAt: now}
	if err := f.apply(p); err != nil {
		return nil, err
	}
	if err := s.store.CreateProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("create profile %s: %w", memberID, err)
	}
	return p, nil
}

// UpsertByMember merges f into the existing profile or creates one.
func (s *Service) UpsertByMember(ctx context.Context, memberID uuid.UUID, f ProfileFields) (*models.MemberProfile, error) {
	p, err := s.GetByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return s.CreateByMember(ctx, memberID, f)
	}
	if err := f.apply(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("update profile %s: %w", memberID, err)
	}
	return p, nil
}

// GetProfileByRole resolves role to a member and returns its profile. Both a
// missing member and a missing profile are not-found errors.
func (s *Service) GetProfileByRole(ctx context.Context, userID, role string) (*models.MemberProfile, error) {
	r := models.NormalizeRole(role)
	if p, ok := s.profiles.Get(userID, r); ok {
		return p, nil
	}
	epoch := s.profiles.Epoch()
	m, err := s.mustGetByRole(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	p, err := s.GetByMember(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("profile for role %q not found", r)
	}
	s.profiles.SetIfCurrent(userID, r, p, epoch)
	return p, nil
}

func (s *Service) CreateProfileByRole(ctx context.Context, userID, role string, f ProfileFields) (*models.MemberProfile, error) {
	m, err := s.mustGetByRole(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	p, err := s.CreateByMember(ctx, m.ID, f)
	if err != nil {
		return nil, err
	}
	s.profileSaved(ctx, userID, m)
	return p, nil
}

func (s *Service) UpsertProfileByRole(ctx context.Context, userID, role string, f ProfileFields) (*models.MemberProfile, error) {
	m, err := s.mustGetByRole(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	p, err := s.UpsertByMember(ctx, m.ID, f)
	if err != nil {
		return nil, err
	}
	s.profileSaved(ctx, userID, m)
	return p, nil
}

func (s *Service) profileSaved(ctx context.Context, userID string, m *models.FamilyMember) {
	s.profiles.Invalidate(userID, m.Role)
	s.emit(ctx, models.EventProfileSaved, userID, m.Role, m.ID)
}
