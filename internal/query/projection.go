package query

import (
	"time"

	"github.com/your-org/famtree/internal/models"
	"github.com/your-org/famtree/pkg/dto"
)

// Attachments are the relations loaded for one member.
type Attachments struct {
	ParentOf []models.Relationship
	ChildOf  []models.Relationship
	Media    []models.MediaItem
	Profile  *models.MemberProfile
}

type fieldGetter func(m *models.FamilyMember) any

var getters = map[string]fieldGetter{
	FieldID:        func(m *models.FamilyMember) any { return m.ID },
	FieldUserID:    func(m *models.FamilyMember) any { return m.UserID },
	FieldFirstName: func(m *models.FamilyMember) any { return m.FirstName },
	FieldMiddleName: func(m *models.FamilyMember) any {
		return deref(m.MiddleName)
	},
	FieldLastName: func(m *models.FamilyMember) any { return m.LastName },
	FieldGender: func(m *models.FamilyMember) any {
		if m.Gender == "" {
			return nil
		}
		return string(m.Gender)
	},
	FieldDOB:       func(m *models.FamilyMember) any { return exactOf(m.Birth) },
	FieldBirthYear: func(m *models.FamilyMember) any { return yearOf(m.Birth) },
	FieldBirthNote: func(m *models.FamilyMember) any { return noteOf(m.Birth) },
	FieldDOD:       func(m *models.FamilyMember) any { return exactOf(m.Death) },
	FieldDeathYear: func(m *models.FamilyMember) any { return yearOf(m.Death) },
	FieldDeathNote: func(m *models.FamilyMember) any { return noteOf(m.Death) },
	FieldIsAlive:   func(m *models.FamilyMember) any { return m.IsAlive },
	FieldPhotoURL:  func(m *models.FamilyMember) any { return deref(m.PhotoURL) },
	FieldRole:      func(m *models.FamilyMember) any { return string(m.Role) },
	FieldTranslatedRole: func(m *models.FamilyMember) any {
		return deref(m.TranslatedRole)
	},
	FieldPartnerID: func(m *models.FamilyMember) any {
		if m.PartnerID == nil {
			return nil
		}
		return *m.PartnerID
	},
	FieldPartnerStatus: func(m *models.FamilyMember) any {
		if m.PartnerStatus == nil {
			return nil
		}
		return string(*m.PartnerStatus)
	},
	FieldCreatedAt: func(m *models.FamilyMember) any { return m.CreatedAt.UTC().Format(time.RFC3339) },
	FieldUpdatedAt: func(m *models.FamilyMember) any { return m.UpdatedAt.UTC().Format(time.RFC3339) },
}

// Project renders a member with the selected fields (all when none are selected)
// and the selected relations. id is always present.
func Project(m *models.FamilyMember, sel Selection, att Attachments) map[string]any {
	fields := sel.Fields
	if len(fields) == 0 {
		fields = AllFields
	}

	out := make(map[string]any, len(fields)+len(sel.With)+1)
	out[FieldID] = m.ID
	for _, f := range fields {
		if get, ok := getters[f]; ok {
			out[f] = get(m)
		}
	}

	for _, w := range sel.With {
		switch w {
		case WithParentOf:
			out[w] = Relationships(att.ParentOf)
		case WithChildOf:
			out[w] = Relationships(att.ChildOf)
		case WithMedia:
			out[w] = MediaItems(att.Media)
		case WithProfile:
			if att.Profile == nil {
				out[w] = nil
			} else {
				out[w] = Profile(att.Profile)
			}
		}
	}
	return out
}

func Relationships(rels []models.Relationship) []dto.RelationshipResponse {
	resp := make([]dto.RelationshipResponse, 0, len(rels))
	for _, r := range rels {
		resp = append(resp, Relationship(r))
	}
	return resp
}

func Relationship(r models.Relationship) dto.RelationshipResponse {
	return dto.RelationshipResponse{
		ID:           r.ID,
		FromMemberID: r.FromMemberID,
		ToMemberID:   r.ToMemberID,
		Type:         string(r.Type),
		CreatedAt:    r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func MediaItems(items []models.MediaItem) []dto.MediaItemResponse {
	resp := make([]dto.MediaItemResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, MediaItem(it))
	}
	return resp
}

func MediaItem(it models.MediaItem) dto.MediaItemResponse {
	return dto.MediaItemResponse{
		ID:          it.ID,
		MemberID:    it.MemberID,
		URL:         it.URL,
		Type:        string(it.Type),
		ContentType: it.ContentType,
		Size:        it.Size,
		Caption:     it.Caption,
		UploadedAt:  it.UploadedAt.UTC().Format(time.RFC3339),
	}
}

func Profile(p *models.MemberProfile) dto.ProfileResponse {
	stories := make([]dto.StoryEntry, 0, len(p.Stories))
	for _, s := range p.Stories {
		stories = append(stories, dto.StoryEntry{Title: s.Title, Body: s.Body, Date: s.Date})
	}
	return dto.ProfileResponse{
		ID:            p.ID,
		MemberID:      p.MemberID,
		Bio:           p.Bio,
		CoverMediaURL: p.CoverMediaURL,
		Achievements:  p.Achievements,
		Facts:         p.Facts,
		Favorites:     p.Favorites,
		Education:     p.Education,
		Work:          p.Work,
		PersonalInfo:  p.PersonalInfo,
		Stories:       stories,
		CreatedAt:     p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func deref(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func exactOf(d models.LifeDate) any {
	if t, ok := d.Exact(); ok {
		return models.FormatDate(t)
	}
	return nil
}

func yearOf(d models.LifeDate) any {
	if y, ok := d.Year(); ok {
		return y
	}
	return nil
}

func noteOf(d models.LifeDate) any {
	if n, ok := d.Note(); ok {
		return n
	}
	return nil
}
