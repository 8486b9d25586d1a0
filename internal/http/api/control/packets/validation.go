package packets

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

var (
	registerOnce sync.Once
	registerErr  error
)

var enumTags = map[string]func(string) bool{
	"devicestatus":   func(s string) bool { return model.DeviceStatus(s).Valid() },
	"orientation":    func(s string) bool { return model.Orientation(s).Valid() },
	"contenttype":    func(s string) bool { return model.ContentType(s).Valid() },
	"contentstatus":  func(s string) bool { return model.ContentStatus(s).Valid() },
	"campaignstatus": func(s string) bool { return model.CampaignStatus(s).Valid() },
	"role":           func(s string) bool { return model.Role(s).Valid() },
	"loglevel":       func(s string) bool { return model.LogLevel(s).Valid() },
}

// RegisterValidators adds the enum tags used by the request types to gin's
// validator. Safe to call more than once; every call returns the result of
// the first.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		registerErr = registerTags(v, enumTags)
	})
	return registerErr
}

func registerTags(v *validator.Validate, tags map[string]func(string) bool) error {
	for tag, valid := range tags {
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return valid(fl.Field().String())
		})
		if err != nil {
			return fmt.Errorf("register validation tag %q: %w", tag, err)
		}
	}
	return nil
}
