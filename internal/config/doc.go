// Package config loads, validates, and defaults the linkmute TOML
// configuration. Path fields are expanded and normalized at load time so the
// rest of the system never sees `~` or relative paths.
package config
