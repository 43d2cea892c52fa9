// Package theme detects whether the desktop is in dark or light mode.
package theme

import (
	"os/exec"
	"runtime"
	"strings"
)

const (
	Dark  = "dark"
	Light = "light"
)

// Package-level hooks for testing.
var (
	goos       = runtime.GOOS
	runCommand = func(name string, args ...string) (string, error) {
		out, err := exec.Command(name, args...).Output()
		return string(out), err
	}
)

// Detect returns Dark or Light based on OS settings, Dark when unknown.
func Detect() string {
	switch goos {
	case "darwin":
		return detectMacOS()
	case "linux":
		return detectLinux()
	default:
		return Dark
	}
}

// detectMacOS reads AppleInterfaceStyle, which is unset in light mode.
func detectMacOS() string {
	out, err := runCommand("defaults", "read", "-g", "AppleInterfaceStyle")
	if err != nil {
		return Light
	}
	if strings.TrimSpace(out) == "Dark" {
		return Dark
	}
	return Light
}

// linuxSettings are the gsettings keys consulted in order: the GNOME 42+
// color-scheme, then the GTK theme name.
var linuxSettings = [][]string{
	{"get", "org.gnome.desktop.interface", "color-scheme"},
	{"get", "org.gnome.desktop.interface", "gtk-theme"},
}

// detectLinux returns the first theme a setting names, Dark when none does.
func detectLinux() string {
	for _, args := range linuxSettings {
		out, err := runCommand("gsettings", args...)
		if err != nil {
			continue
		}
		if theme := schemeOf(out); theme != "" {
			return theme
		}
	}
	return Dark
}

// schemeOf maps a setting value such as 'prefer-dark' or 'Adwaita-light' to
// Dark or Light, or "" if it names neither.
func schemeOf(value string) string {
	lower := strings.ToLower(value)
	switch {
	case strings.Contains(lower, "dark"):
		return Dark
	case strings.Contains(lower, "light"):
		return Light
	default:
		return ""
	}
}

// Background returns the window background colour for a theme as RGBA.
func Background(theme string) (r, g, b, a uint8) {
	if theme == Light {
		return 250, 250, 250, 1
	}
	return 27, 38, 54, 1
}
