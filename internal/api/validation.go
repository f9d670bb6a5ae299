package api

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/your-org/famtree/internal/models"
)

var registerOnce sync.Once

// RegisterValidators adds the family tree rules to gin's binding validator and
// makes validation errors report json field names.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
			return
		}
		v.RegisterTagNameFunc(jsonTagName)
		if err = v.RegisterValidation("partner_status", validPartnerStatus); err != nil {
			return
		}
		err = v.RegisterValidation("relation_type", validRelationType)
	})
	return err
}

func jsonTagName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func validPartnerStatus(fl validator.FieldLevel) bool {
	return models.PartnerStatus(strings.ToUpper(strings.TrimSpace(fl.Field().String()))).Valid()
}

func validRelationType(fl validator.FieldLevel) bool {
	return models.RelationType(strings.ToLower(strings.TrimSpace(fl.Field().String()))).Valid()
}
