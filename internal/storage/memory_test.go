package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/famtree/internal/apperr"
	"github.com/your-org/famtree/internal/models"
	"github.com/your-org/famtree/internal/query"
)

func newMember(userID, role string, dob *time.Time) *models.FamilyMember {
	m := &models.FamilyMember{
		ID:        uuid.New(),
		UserID:    userID,
		FirstName: role,
		LastName:  "Test",
		Gender:    models.GenderUnknown,
		IsAlive:   true,
		Role:      models.Role(role),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if dob != nil {
		m.Birth = models.ExactDate(*dob)
	}
	return m
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestMemoryStoreRoleUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateMember(ctx, newMember("u1", "mother", nil)))
	err := s.CreateMember(ctx, newMember("u1", "mother", nil))
	assert.ErrorIs(t, err, apperr.ErrConflict)

	assert.NoError(t, s.CreateMember(ctx, newMember("u2", "mother", nil)), "roles are unique per user only")
}

func TestMemoryStoreUpdateRenamesRole(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	m := newMember("u1", "aunt", nil)
	require.NoError(t, s.CreateMember(ctx, m))
	require.NoError(t, s.CreateMember(ctx, newMember("u1", "uncle", nil)))

	m.Role = "uncle"
	assert.ErrorIs(t, s.UpdateMember(ctx, m), apperr.ErrConflict)

	m.Role = "great_aunt"
	require.NoError(t, s.UpdateMember(ctx, m))
	got, err := s.GetMemberByRole(ctx, "u1", "great_aunt")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, m.ID, got.ID)

	old, err := s.GetMemberByRole(ctx, "u1", "aunt")
	require.NoError(t, err)
	assert.Nil(t, old)
}

func TestMemoryStoreListOrdersByDOBNullsLast(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, m := range []*models.FamilyMember{
		newMember("u1", "owner", date(1995, 3, 1)),
		newMember("u1", "cousin", nil),
		newMember("u1", "mother", date(1970, 5, 1)),
		newMember("u1", "father", date(1968, 1, 9)),
	} {
		require.NoError(t, s.CreateMember(ctx, m))
	}

	members, err := s.ListMembers(ctx, "u1")
	require.NoError(t, err)
	var roles []models.Role
	for _, m := range members {
		roles = append(roles, m.Role)
	}
	assert.Equal(t, []models.Role{"father", "mother", "owner", "cousin"}, roles)
}

func TestMemoryStorePageDescendingKeepsNullsLast(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateMember(ctx, newMember("u1", "cousin", nil)))
	require.NoError(t, s.CreateMember(ctx, newMember("u1", "mother", date(1970, 5, 1))))
	require.NoError(t, s.CreateMember(ctx, newMember("u1", "owner", date(1995, 3, 1))))

	p := query.Page{Page: 0, Size: 10, SortField: "dob", SortOrder: query.Desc}
	members, total, err := s.PageMembers(ctx, "u1", p)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, members, 3)
	assert.Equal(t, models.Role("owner"), members[0].Role)
	assert.Equal(t, models.Role("cousin"), members[2].Role)
}

func TestMemoryStoreRelationshipDedupe(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a, b := newMember("u1", "mother", nil), newMember("u1", "owner", nil)
	require.NoError(t, s.CreateMember(ctx, a))
	require.NoError(t, s.CreateMember(ctx, b))

	first, err := s.CreateRelationship(ctx, &models.Relationship{ID: uuid.New(), FromMemberID: a.ID, ToMemberID: b.ID, Type: models.RelationParent})
	require.NoError(t, err)
	second, err := s.CreateRelationship(ctx, &models.Relationship{ID: uuid.New(), FromMemberID: a.ID, ToMemberID: b.ID, Type: models.RelationParent})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	rels, err := s.ListRelationships(ctx, []uuid.UUID{b.ID})
	require.NoError(t, err)
	assert.Len(t, rels, 1)
}

func TestMemoryStoreSetPartnerReplacesPreviousLinks(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a, b, c := newMember("u1", "owner", nil), newMember("u1", "spouse", nil), newMember("u1", "ex", nil)
	for _, m := range []*models.FamilyMember{a, b, c} {
		require.NoError(t, s.CreateMember(ctx, m))
	}

	_, err := s.SetPartner(ctx, "u1", a.ID, c.ID, models.PartnerDivorced)
	require.NoError(t, err)
	changed, err := s.SetPartner(ctx, "u1", a.ID, b.ID, models.PartnerMarried)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID, c.ID}, changed)

	gotC, _ := s.GetMember(ctx, "u1", c.ID)
	assert.Nil(t, gotC.PartnerID)
	gotB, _ := s.GetMember(ctx, "u1", b.ID)
	require.NotNil(t, gotB.PartnerID)
	assert.Equal(t, a.ID, *gotB.PartnerID)

	rels, err := s.ListRelationships(ctx, []uuid.UUID{a.ID, b.ID, c.ID})
	require.NoError(t, err)
	assert.Len(t, rels, 2, "one partner edge each way")
}

func TestMemoryStoreDeleteMemberCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a, b := newMember("u1", "mother", nil), newMember("u1", "father", nil)
	require.NoError(t, s.CreateMember(ctx, a))
	require.NoError(t, s.CreateMember(ctx, b))
	_, err := s.SetPartner(ctx, "u1", a.ID, b.ID, models.PartnerMarried)
	require.NoError(t, err)
	require.NoError(t, s.CreateProfile(ctx, &models.MemberProfile{ID: uuid.New(), MemberID: a.ID}))
	require.NoError(t, s.CreateMedia(ctx, &models.MediaItem{
		ID: uuid.New(), MemberID: a.ID, UserID: "u1", URL: "/m/media/u1/x.png", ObjectKey: "media/u1/x.png",
	}))

	_, err = s.DeleteMember(ctx, "u2", a.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound, "other users cannot delete")

	keys, err := s.DeleteMember(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"media/u1/x.png"}, keys)

	gotB, _ := s.GetMember(ctx, "u1", b.ID)
	assert.Nil(t, gotB.PartnerID)
	assert.Nil(t, gotB.PartnerStatus)
	p, _ := s.GetProfile(ctx, a.ID)
	assert.Nil(t, p)
	rels, _ := s.ListRelationships(ctx, []uuid.UUID{b.ID})
	assert.Empty(t, rels)
}

func TestMemoryObjects(t *testing.T) {
	ctx := context.Background()
	o := NewMemoryObjects()
	require.NoError(t, o.PutObject(ctx, "media/u1/a.png", []byte("png"), "image/png"))

	data, ct, err := o.GetObject(ctx, "media/u1/a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)
	assert.Equal(t, "image/png", ct)

	require.NoError(t, o.DeleteObjects(ctx, []string{"media/u1/a.png", "media/u1/missing"}))
	_, _, err = o.GetObject(ctx, "media/u1/a.png")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
