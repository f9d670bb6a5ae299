package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, RoleMother, NormalizeRole("MOTHER"))
	assert.Equal(t, RolePaternalGrandfather, NormalizeRole("  Paternal_Grandfather "))
	assert.True(t, NormalizeRole("Mother").IsCore())
	assert.False(t, NormalizeRole("aunt_maria").IsCore())
}

func TestRoleValid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{"owner", true},
		{"great-uncle_2", true},
		{"", false},
		{"my-tree", false},
		{"set-partner", false},
		{"has space", false},
		{Role(string(make([]byte, 65))), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.role.Valid(), "role %q", tt.role)
	}
}

func TestLifeDateVariants(t *testing.T) {
	d := ExactDate(time.Date(1970, 5, 1, 13, 45, 0, 0, time.FixedZone("X", 3600)))
	exact, ok := d.Exact()
	require.True(t, ok)
	assert.Equal(t, "1970-05-01", FormatDate(exact))
	_, ok = d.Year()
	assert.False(t, ok)

	y := YearOnly(1921)
	year, ok := y.Year()
	require.True(t, ok)
	assert.Equal(t, 1921, year)

	assert.False(t, DateNoteOf("").IsSet())
	n := DateNoteOf("around the war")
	note, ok := n.Note()
	require.True(t, ok)
	assert.Equal(t, "around the war", note)
}

func TestLifeDateColumnsRoundTrip(t *testing.T) {
	for _, d := range []LifeDate{{}, YearOnly(1950), DateNoteOf("spring"), ExactDate(time.Date(2001, 2, 3, 0, 0, 0, 0, time.UTC))} {
		got, err := LifeDateFromColumns(d.Columns())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
}

func TestLifeDateFromColumnsRejectsMultiple(t *testing.T) {
	y := 1950
	n := "spring"
	_, err := LifeDateFromColumns(nil, &y, &n)
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("1970-05-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1970, 5, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("1970-05-01T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 1970, d.Year())

	_, err = ParseDate("01/05/1970")
	assert.Error(t, err)
}

func TestMemberCloneIsDeep(t *testing.T) {
	name := "Lee"
	m := &FamilyMember{ID: uuid.New(), MiddleName: &name}
	m.SetPartner(uuid.New(), PartnerMarried)

	c := m.Clone()
	*c.MiddleName = "Changed"
	*c.PartnerStatus = PartnerDivorced

	assert.Equal(t, "Lee", *m.MiddleName)
	assert.Equal(t, PartnerMarried, *m.PartnerStatus)
}

func TestMediaTypeFor(t *testing.T) {
	mt, ok := MediaTypeFor("image/png")
	assert.True(t, ok)
	assert.Equal(t, MediaImage, mt)

	mt, ok = MediaTypeFor("application/pdf")
	assert.True(t, ok)
	assert.Equal(t, MediaDocument, mt)

	_, ok = MediaTypeFor("application/x-msdownload")
	assert.False(t, ok)
}
