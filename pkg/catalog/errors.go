package catalog

import "errors"

var (
	ErrStageNotFound  = errors.New("stage not found")
	ErrDuplicateStage = errors.New("stage already registered")
	ErrInvalidStage   = errors.New("invalid stage")
	ErrClosed         = errors.New("catalog closed")
)
