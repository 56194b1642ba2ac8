//go:build linux || darwin

package main

import (
	"golang.org/x/sys/unix"
)

// rawInput turns off line buffering and echo on fd so single keys reach the
// console. Output processing stays on so log lines still break correctly.
func rawInput(fd int) (func(), error) {
	oldState, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return nil, err
	}

	newState := *oldState
	newState.Lflag &^= unix.ICANON | unix.ECHO
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &newState); err != nil {
		return nil, err
	}

	return func() {
		_ = unix.IoctlSetTermios(fd, ioctlSetTermios, oldState)
	}, nil
}
