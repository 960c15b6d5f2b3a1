package validation

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"Agora/internal/models"
	"Agora/internal/storage"
)

var validChannelName = regexp.MustCompile(`^[A-Za-z0-9 \-_]+$`)

// IsValidChannelName reports whether name is non-empty, made only of ASCII
// letters, digits, space, hyphen and underscore, and not padded with spaces.
func IsValidChannelName(name string) bool {
	if name == "" {
		return false
	}
	return validChannelName.MatchString(name) &&
		!strings.HasPrefix(name, " ") &&
		!strings.HasSuffix(name, " ")
}

type ChannelFinder interface {
	GetChannelByName(ctx context.Context, name string) (models.Channel, error)
}

// ChannelAlreadyExists is an exact, case-sensitive lookup.
func ChannelAlreadyExists(ctx context.Context, finder ChannelFinder, name string) (bool, error) {
	_, err := finder.GetChannelByName(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// RegisterValidations adds the "channelname" tag to v.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("channelname", func(fl validator.FieldLevel) bool {
		return IsValidChannelName(fl.Field().String())
	})
}

// New returns a validator with the project tags registered.
func New() *validator.Validate {
	v := validator.New()
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}
