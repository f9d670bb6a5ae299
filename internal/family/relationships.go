package family

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/your-org/famtree/internal/apperr"
	"github.com/your-org/famtree/internal/models"
)

// CreateRelationship adds a directed edge between two members of userID.
// Creating an edge that already exists returns the stored one.
func (s *Service) CreateRelationship(ctx context.Context, userID string, from, to uuid.UUID, typ string) (*models.Relationship, error) {
	rt := models.RelationType(strings.ToLower(strings.TrimSpace(typ)))
	if !rt.Valid() {
		return nil, apperr.Validation("type", "unsupported relationship type %q", typ)
	}
	if from == to {
		return nil, apperr.Validation("toMemberId", "a member cannot be related to itself")
	}
	for _, id := range []uuid.UUID{from, to} {
		m, err := s.store.GetMember(ctx, userID, id)
		if err != nil {
			return nil, fmt.Errorf("get member %s: %w", id, err)
		}
		if m == nil {
			return nil, apperr.NotFound("member %s not found", id)
		}
	}

	rel, err := s.store.CreateRelationship(ctx, &models.Relationship{
		ID:           uuid.New(),
		FromMemberID: from,
		ToMemberID:   to,
		Type:         rt,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create relationship: %w", err)
	}
	s.emit(ctx, models.EventRelationshipCreated, userID, "", from, to)
	return rel, nil
}

// CreateParentChildRelation records parent -> child as a parent edge.
func (s *Service) CreateParentChildRelation(ctx context.Context, userID string, parentID, childID uuid.UUID) (*models.Relationship, error) {
	return s.CreateRelationship(ctx, userID, parentID, childID, string(models.RelationParent))
}

// Relationships returns every edge touching one of the given members.
func (s *Service) Relationships(ctx context.Context, memberIDs []uuid.UUID) ([]models.Relationship, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}
	rels, err := s.store.ListRelationships(ctx, memberIDs)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	return rels, nil
}
