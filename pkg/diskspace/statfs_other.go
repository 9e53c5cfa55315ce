//go:build !linux && !darwin && !freebsd

package diskspace

import "errors"

func available(string) (uint64, error) {
	return 0, errors.New("free space measurement is not supported on this platform")
}
