package family

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/famtree/internal/apperr"
	"github.com/your-org/famtree/internal/models"
	"github.com/your-org/famtree/internal/query"
	"github.com/your-org/famtree/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.TreeEvent
	purges []models.PurgeTask
}

func (p *recordingPublisher) PublishTreeEvent(_ context.Context, ev models.TreeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) PublishPurge(_ context.Context, task models.PurgeTask) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.purges = append(p.purges, task)
	return nil
}

func (p *recordingPublisher) types() []models.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	svc     *Service
	store   *storage.MemoryStore
	objects *storage.MemoryObjects
	pub     *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   storage.NewMemoryStore(),
		objects: storage.NewMemoryObjects(),
		pub:     &recordingPublisher{},
	}
	f.svc = NewService(f.store, Options{
		Objects:      f.objects,
		Publisher:    f.pub,
		CacheEnabled: true,
		Now:          func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) },
	})
	return f
}

func ptr[T any](v T) *T { return &v }

func person(role, first, last string) MemberFields {
	return MemberFields{Role: ptr(role), FirstName: ptr(first), LastName: ptr(last), IsAlive: ptr(true)}
}

func TestCreateAndGetByRoleCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := person("mother", "Ana", "Ivanova")
	in.DOB = ptr("1970-05-01")
	created, err := f.svc.CreateMember(ctx, "u1", in)
	require.NoError(t, err)

	got, err := f.svc.GetByRole(ctx, "u1", "MOTHER")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, models.Role("mother"), got.Role)
	assert.Equal(t, "Ana", got.FirstName)
	assert.Equal(t, "Ivanova", got.LastName)
	assert.True(t, got.IsAlive)
	dob, ok := got.Birth.Exact()
	require.True(t, ok)
	assert.True(t, dob.Equal(time.Date(1970, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, models.GenderUnknown, got.Gender)
}

func TestGetByRoleMissingReturnsNil(t *testing.T) {
	f := newFixture(t)
	got, err := f.svc.GetByRole(context.Background(), "u1", "father")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateMemberValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    MemberFields
		field string
	}{
		{"missing role", MemberFields{FirstName: ptr("a"), LastName: ptr("b"), IsAlive: ptr(true)}, "role"},
		{"missing first name", MemberFields{Role: ptr("owner"), LastName: ptr("b"), IsAlive: ptr(true)}, "firstName"},
		{"missing last name", MemberFields{Role: ptr("owner"), FirstName: ptr("a"), IsAlive: ptr(true)}, "lastName"},
		{"missing isAlive", MemberFields{Role: ptr("owner"), FirstName: ptr("a"), LastName: ptr("b")}, "isAlive"},
		{"reserved role", person("my-tree", "a", "b"), "role"},
		{"bad role chars", person("grand mother", "a", "b"), "role"},
		{"bad gender", func() MemberFields { m := person("owner", "a", "b"); m.Gender = ptr("robot"); return m }(), "gender"},
		{"bad date", func() MemberFields { m := person("owner", "a", "b"); m.DOB = ptr("01/05/1970"); return m }(), "dob"},
		{"two birth forms", func() MemberFields {
			m := person("owner", "a", "b")
			m.DOB = ptr("1970-05-01")
			m.BirthYear = ptr(1970)
			return m
		}(), "dob"},
		{"death while alive", func() MemberFields { m := person("owner", "a", "b"); m.DeathYear = ptr(2001); return m }(), "dod"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.CreateMember(context.Background(), "u1", tt.in)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Equal(t, tt.field, apperr.FieldOf(err))
		})
	}
}

func TestCreateMemberDuplicateRoleConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateMember(ctx, "u1", person("owner", "a", "b"))
	require.NoError(t, err)

	_, err = f.svc.CreateMember(ctx, "u1", person("OWNER", "c", "d"))
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestConcurrentCreateSameRoleOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		conflict int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateMember(ctx, "u1", person("father", "Ivan", "Ivanov"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case apperr.KindOf(err) == apperr.KindConflict:
				conflict++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, 19, conflict)
	all, err := f.svc.ListAll(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpdateByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateByRole(ctx, "u1", "father", MemberFields{FirstName: ptr("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	in := person("father", "Ivan", "Ivanov")
	in.BirthYear = ptr(1965)
	_, err = f.svc.CreateMember(ctx, "u1", in)
	require.NoError(t, err)

	// warm the cache so the update must invalidate it
	_, err = f.svc.GetByRole(ctx, "u1", "father")
	require.NoError(t, err)

	updated, err := f.svc.UpdateByRole(ctx, "u1", "Father", MemberFields{
		MiddleName: ptr("Petrovich"),
		IsAlive:    ptr(false),
		DOD:        ptr("2020-02-29"),
		BirthNote:  ptr("spring 1965"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ivan", updated.FirstName)

	got, err := f.svc.GetByRole(ctx, "u1", "father")
	require.NoError(t, err)
	assert.Equal(t, "Petrovich", *got.MiddleName)
	assert.False(t, got.IsAlive)
	note, ok := got.Birth.Note()
	assert.True(t, ok, "a patched birth field replaces the whole variant")
	assert.Equal(t, "spring 1965", note)
	_, ok = got.Death.Exact()
	assert.True(t, ok)

	// back to alive clears the death date
	got, err = f.svc.UpdateByRole(ctx, "u1", "father", MemberFields{IsAlive: ptr(true)})
	require.NoError(t, err)
	assert.False(t, got.Death.IsSet())
}

func TestUpsertByRoleCreatesWhenMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.svc.UpsertByRole(ctx, "u1", "Paternal_Grandmother", MemberFields{
		FirstName: ptr("Olga"), LastName: ptr("Petrova"), IsAlive: ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, models.Role("paternal_grandmother"), m.Role)

	m2, err := f.svc.UpsertByRole(ctx, "u1", "paternal_grandmother", MemberFields{FirstName: ptr("Olya")})
	require.NoError(t, err)
	assert.Equal(t, m.ID, m2.ID)
	assert.Equal(t, "Olya", m2.FirstName)
}

func TestDeleteByRolePurgesMediaAndUnlinksPartner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mother, err := f.svc.CreateMember(ctx, "u1", person("mother", "Ana", "Ivanova"))
	require.NoError(t, err)
	father, err := f.svc.CreateMember(ctx, "u1", person("father", "Ivan", "Ivanov"))
	require.NoError(t, err)
	_, err = f.svc.SetPartner(ctx, "u1", mother.ID, father.ID, "married")
	require.NoError(t, err)
	up, err := f.svc.UploadMedia(ctx, "u1", Upload{Data: pngBytes, Filename: "a.png", Role: "mother"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteByRole(ctx, "u1", "mother"))

	gone, err := f.svc.GetByRole(ctx, "u1", "mother")
	require.NoError(t, err)
	assert.Nil(t, gone)
	dad, err := f.svc.GetByRole(ctx, "u1", "father")
	require.NoError(t, err)
	assert.Nil(t, dad.PartnerID)

	require.Len(t, f.pub.purges, 1)
	assert.Equal(t, []string{up.Item.ObjectKey}, f.pub.purges[0].Keys)
	assert.Contains(t, f.pub.types(), models.EventMemberDeleted)

	assert.ErrorIs(t, f.svc.DeleteByRole(ctx, "u1", "mother"), apperr.ErrNotFound)
}

func TestRelationships(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mother, _ := f.svc.CreateMember(ctx, "u1", person("mother", "Ana", "Ivanova"))
	owner, _ := f.svc.CreateMember(ctx, "u1", person("owner", "Ilya", "Ivanov"))
	stranger, _ := f.svc.CreateMember(ctx, "u2", person("owner", "X", "Y"))

	rel, err := f.svc.CreateParentChildRelation(ctx, "u1", mother.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RelationParent, rel.Type)

	again, err := f.svc.CreateRelationship(ctx, "u1", mother.ID, owner.ID, "PARENT")
	require.NoError(t, err)
	assert.Equal(t, rel.ID, again.ID, "duplicate edges collapse to the stored one")

	_, err = f.svc.CreateRelationship(ctx, "u1", owner.ID, owner.ID, "sibling")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.CreateRelationship(ctx, "u1", owner.ID, mother.ID, "cousin")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.CreateRelationship(ctx, "u1", owner.ID, stranger.ID, "sibling")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSetPartnerIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _ := f.svc.CreateMember(ctx, "u1", person("mother", "Ana", "Ivanova"))
	b, _ := f.svc.CreateMember(ctx, "u1", person("father", "Ivan", "Ivanov"))

	cached, err := f.svc.GetByRole(ctx, "u1", "father")
	require.NoError(t, err)
	require.Nil(t, cached.PartnerID)

	_, err = f.svc.SetPartner(ctx, "u1", a.ID, b.ID, "MARRIED")
	require.NoError(t, err)
	linked, err := f.svc.GetByRole(ctx, "u1", "father")
	require.NoError(t, err)
	require.NotNil(t, linked.PartnerID, "the counterpart's cached entry is dropped on link")
	assert.Equal(t, models.PartnerMarried, *linked.PartnerStatus)

	got, err := f.svc.SetPartner(ctx, "u1", a.ID, b.ID, "divorced")
	require.NoError(t, err)
	require.NotNil(t, got.PartnerID)
	assert.Equal(t, b.ID, *got.PartnerID)
	assert.Equal(t, models.PartnerDivorced, *got.PartnerStatus)

	other, err := f.svc.GetByRole(ctx, "u1", "father")
	require.NoError(t, err)
	assert.Equal(t, a.ID, *other.PartnerID)
	assert.Equal(t, models.PartnerDivorced, *other.PartnerStatus)

	rels, err := f.svc.Relationships(ctx, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, rels, 2, "one association, stored as one edge each way")
}

func TestSetPartnerValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _ := f.svc.CreateMember(ctx, "u1", person("mother", "Ana", "Ivanova"))

	_, err := f.svc.SetPartner(ctx, "u1", a.ID, a.ID, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.SetPartner(ctx, "u1", a.ID, uuid.New(), "MARRIED")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.SetPartner(ctx, "u1", a.ID, uuid.New(), "COMPLICATED")
	assert.Equal(t, "status", apperr.FieldOf(err))
}

func TestSetPartnerDefaultsToUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _ := f.svc.CreateMember(ctx, "u1", person("mother", "Ana", "Ivanova"))
	b, _ := f.svc.CreateMember(ctx, "u1", person("father", "Ivan", "Ivanov"))

	got, err := f.svc.SetPartner(ctx, "u1", a.ID, b.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.PartnerUnknown, *got.PartnerStatus)
}

func TestClearPartner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _ := f.svc.CreateMember(ctx, "u1", person("mother", "Ana", "Ivanova"))
	b, _ := f.svc.CreateMember(ctx, "u1", person("father", "Ivan", "Ivanov"))

	before := len(f.pub.types())
	got, err := f.svc.ClearPartner(ctx, "u1", a.ID)
	require.NoError(t, err, "clearing without a partner is a no-op")
	assert.Nil(t, got.PartnerID)
	assert.Len(t, f.pub.types(), before)

	_, err = f.svc.SetPartner(ctx, "u1", a.ID, b.ID, "MARRIED")
	require.NoError(t, err)
	_, err = f.svc.ClearPartner(ctx, "u1", b.ID)
	require.NoError(t, err)

	for _, role := range []string{"mother", "father"} {
		m, err := f.svc.GetByRole(ctx, "u1", role)
		require.NoError(t, err)
		assert.Nil(t, m.PartnerID)
		assert.Nil(t, m.PartnerStatus)
	}
	rels, err := f.svc.Relationships(ctx, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestProfiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateProfileByRole(ctx, "u1", "owner", ProfileFields{Bio: ptr("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound, "member must exist")

	_, err = f.svc.CreateMember(ctx, "u1", person("owner", "Ilya", "Ivanov"))
	require.NoError(t, err)

	_, err = f.svc.GetProfileByRole(ctx, "u1", "owner")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	p, err := f.svc.CreateProfileByRole(ctx, "u1", "owner", ProfileFields{
		Bio:       ptr("Engineer"),
		Favorites: []byte(`{"books":["Solaris"]}`),
		Stories:   &[]models.Story{{Title: "First day", Body: "..."}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"books":["Solaris"]}`, string(p.Favorites))

	_, err = f.svc.CreateProfileByRole(ctx, "u1", "owner", ProfileFields{})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// cached read, then an upsert must be visible
	_, err = f.svc.GetProfileByRole(ctx, "u1", "OWNER")
	require.NoError(t, err)
	_, err = f.svc.UpsertProfileByRole(ctx, "u1", "owner", ProfileFields{Work: []byte(`[{"company":"ACME"}]`)})
	require.NoError(t, err)

	got, err := f.svc.GetProfileByRole(ctx, "u1", "owner")
	require.NoError(t, err)
	assert.Equal(t, "Engineer", *got.Bio, "upsert merges")
	assert.JSONEq(t, `[{"company":"ACME"}]`, string(got.Work))
	assert.Len(t, got.Stories, 1)

	_, err = f.svc.UpsertProfileByRole(ctx, "u1", "owner", ProfileFields{Facts: []byte(`{bad`)})
	assert.Equal(t, "facts", apperr.FieldOf(err))
}

func TestUpsertByMemberCreatesMissingProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m, err := f.svc.CreateMember(ctx, "u1", person("owner", "Ilya", "Ivanov"))
	require.NoError(t, err)

	p, err := f.svc.UpsertByMember(ctx, m.ID, ProfileFields{Bio: ptr("hi")})
	require.NoError(t, err)
	assert.Equal(t, m.ID, p.MemberID)
	assert.NotNil(t, p.Stories)
}

func seedFive(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	dobs := map[string]string{
		"owner":                "1995-03-01",
		"mother":               "1970-05-01",
		"father":               "1968-01-09",
		"maternal_grandmother": "1945-07-30",
		"cousin":               "",
	}
	for role, dob := range dobs {
		in := person(role, role, "Ivanov")
		if dob != "" {
			in.DOB = ptr(dob)
		}
		_, err := f.svc.CreateMember(ctx, "u1", in)
		require.NoError(t, err)
	}
}

func TestGetPagedCoversEveryMemberOnce(t *testing.T) {
	f := newFixture(t)
	seedFive(t, f)
	ctx := context.Background()
	sel := query.Selection{Fields: []string{query.FieldRole}}

	var roles []string
	for page := 0; page < 3; page++ {
		p := query.Page{Page: page, Size: 2, SortField: "dob", SortOrder: query.Asc}
		res, err := f.svc.GetPaged(ctx, "u1", p, sel)
		require.NoError(t, err)
		assert.Equal(t, 5, res.Total)
		for _, row := range res.Data {
			roles = append(roles, row[query.FieldRole].(string))
		}
	}
	assert.Equal(t, []string{"maternal_grandmother", "father", "mother", "owner", "cousin"}, roles)

	res, err := f.svc.GetPaged(ctx, "u1", query.Page{Page: 9, Size: 2, SortField: "dob", SortOrder: query.Asc}, sel)
	require.NoError(t, err)
	assert.Empty(t, res.Data)
	assert.Equal(t, 5, res.Total)
}

func TestGetPagedSortsByRoleDescending(t *testing.T) {
	f := newFixture(t)
	seedFive(t, f)
	res, err := f.svc.GetPaged(context.Background(), "u1",
		query.Page{Page: 0, Size: 100, SortField: "role", SortOrder: query.Desc},
		query.Selection{Fields: []string{query.FieldRole}})
	require.NoError(t, err)

	var roles []string
	for _, row := range res.Data {
		roles = append(roles, row[query.FieldRole].(string))
	}
	assert.True(t, sort.IsSorted(sort.Reverse(sort.StringSlice(roles))))
}

func TestGetMyTreeProjection(t *testing.T) {
	f := newFixture(t)
	seedFive(t, f)
	ctx := context.Background()

	rows, err := f.svc.GetMyTree(ctx, "u1", query.Selection{Fields: []string{query.FieldFirstName, query.FieldDOB}})
	require.NoError(t, err)
	require.Len(t, rows, 5)
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		assert.ElementsMatch(t, []string{"id", "firstName", "dob"}, keys)
	}

	full, err := f.svc.GetMyTree(ctx, "u1", query.Selection{})
	require.NoError(t, err)
	assert.Len(t, full[0], len(query.AllFields))
}

func TestGetMyTreeAttachesRelations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mother, _ := f.svc.CreateMember(ctx, "u1", person("mother", "Ana", "Ivanova"))
	owner, _ := f.svc.CreateMember(ctx, "u1", person("owner", "Ilya", "Ivanov"))
	_, err := f.svc.CreateParentChildRelation(ctx, "u1", mother.ID, owner.ID)
	require.NoError(t, err)
	_, err = f.svc.CreateProfileByRole(ctx, "u1", "owner", ProfileFields{Bio: ptr("hi")})
	require.NoError(t, err)

	rows, err := f.svc.GetMyTree(ctx, "u1", query.Selection{
		Fields: []string{query.FieldRole},
		With:   query.AllRelations,
	})
	require.NoError(t, err)

	byRole := map[string]map[string]any{}
	for _, row := range rows {
		byRole[row[query.FieldRole].(string)] = row
	}
	assert.Len(t, byRole["mother"][query.WithParentOf], 1)
	assert.Len(t, byRole["mother"][query.WithChildOf], 0)
	assert.Len(t, byRole["owner"][query.WithChildOf], 1)
	assert.Nil(t, byRole["mother"][query.WithProfile])
	assert.NotNil(t, byRole["owner"][query.WithProfile])
	assert.Len(t, byRole["owner"][query.WithMedia], 0)
}
