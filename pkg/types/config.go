package types

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Config selects a storage backend and where it keeps its files.
type Config struct {
	Backend string `json:"backend" yaml:"backend" validate:"required,oneof=text sqlite"`
	DataDir string `json:"data_dir" yaml:"data_dir" validate:"required"`
}

// Supported backend names.
const (
	BackendText   = "text"
	BackendSQLite = "sqlite"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrDataDirEmpty   = errors.New("data directory must not be empty")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the Config is well-formed and returns one of the
// sentinel errors above on failure.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fe := verrs[0]
	switch fe.Field() + "." + fe.Tag() {
	case "Backend.required":
		return ErrBackendEmpty
	case "Backend.oneof":
		return ErrBackendUnknown
	case "DataDir.required":
		return ErrDataDirEmpty
	default:
		return err
	}
}
