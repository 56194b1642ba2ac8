// Package browser opens server pages in the operator's desktop browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// Commander starts external processes
type Commander interface {
	Start(name string, args ...string) error
}

// RealCommander starts processes with os/exec
type RealCommander struct{}

// Start runs the command without waiting for it to exit
func (RealCommander) Start(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

var defaultCommander Commander = RealCommander{}

// launchers maps GOOS to the command and leading args that open a URL
var launchers = map[string][]string{
	"linux":   {"xdg-open"},
	"freebsd": {"xdg-open"},
	"openbsd": {"xdg-open"},
	"darwin":  {"open"},
	"windows": {"rundll32", "url.dll,FileProtocolHandler"},
}

// Open opens target in the default browser
func Open(target string) error {
	return OpenWithCommander(target, defaultCommander, runtime.GOOS)
}

// OpenWithCommander opens target using commander as if running on goos.
// Only http and https URLs are accepted.
func OpenWithCommander(target string, commander Commander, goos string) error {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("refusing to open %q: not an http(s) URL", target)
	}

	launcher, ok := launchers[goos]
	if !ok {
		return fmt.Errorf("unsupported platform: %s", goos)
	}

	args := append(append([]string{}, launcher[1:]...), u.String())
	return commander.Start(launcher[0], args...)
}
