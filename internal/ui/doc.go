// Package ui provides terminal output helpers for portalctl's one-shot
// commands: colors, status symbols, tables, a line spinner and the master
// picker. The interactive dashboard has its own styles in
// internal/dashboard.
//
// Colors are disabled with DisableColors (the --no-color flag) or through
// ApplyColorMode, which maps output.color from config onto a termenv
// profile.
package ui
