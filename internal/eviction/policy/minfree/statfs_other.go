//go:build !linux && !darwin && !freebsd

package minfree

import "errors"

func availableBytes(string) (int64, error) {
	return 0, errors.New("free space check not supported on this platform")
}
