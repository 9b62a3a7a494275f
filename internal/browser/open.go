// Package browser hands links from notifications to the system browser.
package browser

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// ErrUnsafeURL is returned for links that are not absolute http(s) URLs.
var ErrUnsafeURL = errors.New("only http and https links can be opened")

// start runs the opener command; replaced in tests.
var start = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Validate checks that raw is an absolute http(s) URL.
func Validate(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsafeURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrUnsafeURL
	}
	return u, nil
}

// Open opens raw in the user's default browser after validating it.
func Open(raw string) error {
	u, err := Validate(raw)
	if err != nil {
		return err
	}
	link := u.String()
	switch runtime.GOOS {
	case "darwin":
		return start("open", link)
	case "linux":
		return start("xdg-open", link)
	case "windows":
		return start("rundll32", "url.dll,FileProtocolHandler", link)
	default:
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
}
