// Package artifacts removes stage artifacts from the backing storage.
package artifacts

import (
	"context"
	"errors"
)

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = errors.New("artifact store is closed")

// Store deletes the artifacts of a stage run.
type Store interface {
	// DeleteStage removes everything under the stage's location except the
	// preserved paths and returns the number of bytes freed. A missing
	// location is not an error.
	DeleteStage(ctx context.Context, loc Locator) (int64, error)

	Healthcheck(ctx context.Context) error
}
