package pipeline

import "errors"

// Fatal conditions. Everything else is logged and the run continues.
var (
	ErrInputRootMissing = errors.New("input root directory does not exist")
	ErrBoatNotFound     = errors.New("boat not found")
	ErrInvalidCatalog   = errors.New("invalid signal catalog")
)
