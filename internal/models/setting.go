package models

import "time"

// Setting represents one site configuration row. EnvOverridable marks keys
// that an environment variable may shadow at resolution time.
type Setting struct {
	Key            string
	Value          string
	EnvOverridable bool
	UpdatedAt      time.Time
}

// Setting sources reported by the resolution layer.
const (
	SettingSourceEnv      = "env"
	SettingSourceDatabase = "database"
	SettingSourceDefault  = "default"
)
