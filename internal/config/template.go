package config

import _ "embed"

//go:embed default_config.yml
var defaultTemplate []byte

// DefaultTemplate returns the documented YAML template `generate-config`
// writes out for a user to edit, as opposed to Default()'s bare struct.
func DefaultTemplate() []byte {
	return defaultTemplate
}
