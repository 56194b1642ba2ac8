//go:build windows

package main

// rawInput is a no-op on Windows; keys are delivered after Enter
func rawInput(fd int) (func(), error) {
	return func() {}, nil
}
