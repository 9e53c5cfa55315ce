//go:build linux || darwin || freebsd

package diskspace

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailableBytes(t *testing.T) {
	free, err := New(t.TempDir()).AvailableBytes(t.Context())
	require.NoError(t, err)
	assert.Positive(t, free)
}

func TestMissingPath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope")).AvailableBytes(t.Context())
	assert.Error(t, err)
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(t.TempDir()).AvailableBytes(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
