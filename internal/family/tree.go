package family

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/your-org/famtree/internal/models"
	"github.com/your-org/famtree/internal/query"
)

// GetMyTree projects every member of userID in date-of-birth order.
func (s *Service) GetMyTree(ctx context.Context, userID string, sel query.Selection) ([]map[string]any, error) {
	members, err := s.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, userID, members, sel)
}

// GetPaged projects one page of members. Total counts every member of the user.
func (s *Service) GetPaged(ctx context.Context, userID string, p query.Page, sel query.Selection) (*query.Result, error) {
	members, total, err := s.store.PageMembers(ctx, userID, p)
	if err != nil {
		return nil, fmt.Errorf("page members: %w", err)
	}
	data, err := s.project(ctx, userID, members, sel)
	if err != nil {
		return nil, err
	}
	return &query.Result{Data: data, Total: total}, nil
}

func (s *Service) project(ctx context.Context, userID string, members []models.FamilyMember, sel query.Selection) ([]map[string]any, error) {
	atts, err := s.attachments(ctx, userID, members, sel)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(members))
	for i := range members {
		m := &members[i]
		out = append(out, query.Project(m, sel, atts[m.ID]))
	}
	return out, nil
}

// attachments loads the requested relations for all members with one query per relation.
func (s *Service) attachments(ctx context.Context, userID string, members []models.FamilyMember, sel query.Selection) (map[uuid.UUID]query.Attachments, error) {
	atts := make(map[uuid.UUID]query.Attachments, len(members))
	if len(sel.With) == 0 || len(members) == 0 {
		return atts, nil
	}
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
		atts[m.ID] = query.Attachments{}
	}

	if sel.Includes(query.WithParentOf) || sel.Includes(query.WithChildOf) {
		rels, err := s.Relationships(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, r := range rels {
			if a, ok := atts[r.FromMemberID]; ok {
				a.ParentOf = append(a.ParentOf, r)
				atts[r.FromMemberID] = a
			}
			if a, ok := atts[r.ToMemberID]; ok {
				a.ChildOf = append(a.ChildOf, r)
				atts[r.ToMemberID] = a
			}
		}
	}

	if sel.Includes(query.WithMedia) {
		items, err := s.store.ListMedia(ctx, userID, ids)
		if err != nil {
			return nil, fmt.Errorf("list media: %w", err)
		}
		for _, it := range items {
			a := atts[it.MemberID]
			a.Media = append(a.Media, it)
			atts[it.MemberID] = a
		}
	}

	if sel.Includes(query.WithProfile) {
		profiles, err := s.store.ListProfiles(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("list profiles: %w", err)
		}
		for i := range profiles {
			p := &profiles[i]
			a := atts[p.MemberID]
			a.Profile = p
			atts[p.MemberID] = a
		}
	}
	return atts, nil
}
