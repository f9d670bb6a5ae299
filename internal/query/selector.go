// Package query shapes read responses for the family tree: whitelisted field
// projection, relation inclusion and pagination parameters.
package query

import (
	"strings"

	"github.com/your-org/famtree/internal/apperr"
)

// Field vocabulary accepted by the fields selector.
const (
	FieldID             = "id"
	FieldUserID         = "userId"
	FieldFirstName      = "firstName"
	FieldMiddleName     = "middleName"
	FieldLastName       = "lastName"
	FieldGender         = "gender"
	FieldDOB            = "dob"
	FieldBirthYear      = "birthYear"
	FieldBirthNote      = "birthNote"
	FieldDOD            = "dod"
	FieldDeathYear      = "deathYear"
	FieldDeathNote      = "deathNote"
	FieldIsAlive        = "isAlive"
	FieldPhotoURL       = "photoUrl"
	FieldRole           = "role"
	FieldTranslatedRole = "translatedRole"
	FieldPartnerID      = "partnerId"
	FieldPartnerStatus  = "partnerStatus"
	FieldCreatedAt      = "createdAt"
	FieldUpdatedAt      = "updatedAt"
)

// AllFields is the full member shape, in output order.
var AllFields = []string{
	FieldID, FieldUserID, FieldFirstName, FieldMiddleName, FieldLastName, FieldGender,
	FieldDOB, FieldBirthYear, FieldBirthNote, FieldDOD, FieldDeathYear, FieldDeathNote,
	FieldIsAlive, FieldPhotoURL, FieldRole, FieldTranslatedRole, FieldPartnerID,
	FieldPartnerStatus, FieldCreatedAt, FieldUpdatedAt,
}

// Relation vocabulary accepted by the with selector.
const (
	WithParentOf = "parentOf"
	WithChildOf  = "childOf"
	WithMedia    = "media"
	WithProfile  = "profile"
)

var AllRelations = []string{WithParentOf, WithChildOf, WithMedia, WithProfile}

var (
	fieldSet    = toSet(AllFields)
	relationSet = toSet(AllRelations)
)

// Selection is a validated projection request.
type Selection struct {
	Fields []string
	With   []string
}

// ParseSelection validates raw fields and with query values.
func ParseSelection(fields, with []string) (Selection, error) {
	f, err := ParseFields(fields)
	if err != nil {
		return Selection{}, err
	}
	w, err := ParseWith(with)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Fields: f, With: w}, nil
}

func ParseFields(values []string) ([]string, error) {
	return parseSelector("fields", values, fieldSet)
}

func ParseWith(values []string) ([]string, error) {
	return parseSelector("with", values, relationSet)
}

func (s Selection) Includes(relation string) bool {
	for _, w := range s.With {
		if w == relation {
			return true
		}
	}
	return false
}

// parseSelector splits every value on commas, trims tokens, drops empties and
// duplicates, and rejects anything outside allowed.
func parseSelector(name string, values []string, allowed map[string]bool) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, v := range values {
		for _, tok := range strings.Split(v, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" || seen[tok] {
				continue
			}
			if !allowed[tok] {
				return nil, apperr.Validation(name, "unsupported value %q", tok)
			}
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out, nil
}

func toSet(vals []string) map[string]bool {
	m := make(map[string]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}
