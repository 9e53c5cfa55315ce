// Package diskspace measures free space on the filesystem holding the
// artifact directory.
package diskspace

import (
	"context"
	"fmt"
)

// Probe reports the bytes available to unprivileged users on the
// filesystem containing Path.
type Probe struct {
	Path string
}

// New creates a probe for path.
func New(path string) *Probe {
	return &Probe{Path: path}
}

// AvailableBytes implements purge.SpaceProbe.
func (p *Probe) AvailableBytes(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	free, err := available(p.Path)
	if err != nil {
		return 0, fmt.Errorf("statfs %s: %w", p.Path, err)
	}
	return free, nil
}
