package family

import (
	"strings"

	"github.com/your-org/famtree/internal/apperr"
	"github.com/your-org/famtree/internal/models"
)

// MemberFields is a create payload or a partial update. Nil means "not provided".
type MemberFields struct {
	Role           *string
	FirstName      *string
	MiddleName     *string
	LastName       *string
	Gender         *string
	DOB            *string
	BirthYear      *int
	BirthNote      *string
	DOD            *string
	DeathYear      *int
	DeathNote      *string
	IsAlive        *bool
	PhotoURL       *string
	TranslatedRole *string
}

func lifeDate(prefix string, exact *string, year *int, note *string) (models.LifeDate, bool, error) {
	var (
		d     models.LifeDate
		count int
	)
	if exact != nil && strings.TrimSpace(*exact) != "" {
		t, err := models.ParseDate(strings.TrimSpace(*exact))
		if err != nil {
			return models.LifeDate{}, false, apperr.Validation(prefix, "%v", err)
		}
		d = models.ExactDate(t)
		count++
	}
	if year != nil {
		d = models.YearOnly(*year)
		count++
	}
	if note != nil && strings.TrimSpace(*note) != "" {
		d = models.DateNoteOf(strings.TrimSpace(*note))
		count++
	}
	if count > 1 {
		return models.LifeDate{}, false, apperr.Validation(prefix, "exact date, year and note are mutually exclusive")
	}
	provided := exact != nil || year != nil || note != nil
	return d, provided, nil
}

// apply merges f into m and checks the member invariants.
func (f MemberFields) apply(m *models.FamilyMember) error {
	if f.Role != nil {
		role := models.NormalizeRole(*f.Role)
		if !role.Valid() {
			return apperr.Validation("role", "invalid role %q", *f.Role)
		}
		m.Role = role
	}
	if f.FirstName != nil {
		if strings.TrimSpace(*f.FirstName) == "" {
			return apperr.Validation("firstName", "must not be empty")
		}
		m.FirstName = strings.TrimSpace(*f.FirstName)
	}
	if f.LastName != nil {
		if strings.TrimSpace(*f.LastName) == "" {
			return apperr.Validation("lastName", "must not be empty")
		}
		m.LastName = strings.TrimSpace(*f.LastName)
	}
	if f.MiddleName != nil {
		m.MiddleName = optional(*f.MiddleName)
	}
	if f.Gender != nil {
		g := models.Gender(strings.ToLower(strings.TrimSpace(*f.Gender)))
		if !g.Valid() {
			return apperr.Validation("gender", "must be one of male, female, other, unknown")
		}
		m.Gender = g
	}
	if f.PhotoURL != nil {
		m.PhotoURL = optional(*f.PhotoURL)
	}
	if f.TranslatedRole != nil {
		m.TranslatedRole = optional(*f.TranslatedRole)
	}

	birth, ok, err := lifeDate("dob", f.DOB, f.BirthYear, f.BirthNote)
	if err != nil {
		return err
	}
	if ok {
		m.Birth = birth
	}

	death, deathGiven, err := lifeDate("dod", f.DOD, f.DeathYear, f.DeathNote)
	if err != nil {
		return err
	}
	if f.IsAlive != nil {
		m.IsAlive = *f.IsAlive
	}
	if m.IsAlive {
		if deathGiven && death.IsSet() {
			return apperr.Validation("dod", "death date must be empty while isAlive is true")
		}
		m.Death = models.LifeDate{}
	} else if deathGiven {
		m.Death = death
	}
	return nil
}

func (f MemberFields) checkRequired() error {
	switch {
	case f.Role == nil || strings.TrimSpace(*f.Role) == "":
		return apperr.Validation("role", "is required")
	case f.FirstName == nil:
		return apperr.Validation("firstName", "is required")
	case f.LastName == nil:
		return apperr.Validation("lastName", "is required")
	case f.IsAlive == nil:
		return apperr.Validation("isAlive", "is required")
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
