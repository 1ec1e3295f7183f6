package models

import "time"

// Plugin kinds known to the registry.
const (
	PluginKindAuth   = "auth"
	PluginKindSearch = "search"
	PluginKindMarkup = "markup"
)

// Plugin lifecycle states.
const (
	PluginStateRegistered = "registered"
	PluginStateInstalled  = "installed"
	PluginStateEnabled    = "enabled"
	PluginStateDisabled   = "disabled"
)

// Plugin represents the persisted state of a provider known to the
// registry. The code for a plugin is compiled in; rows only track
// lifecycle and configuration.
type Plugin struct {
	ID          int
	Name        string
	Kind        string
	State       string
	Description string
	InstalledAt *time.Time
	UpdatedAt   time.Time
}

// PluginSetting represents one configuration value of a plugin.
type PluginSetting struct {
	PluginID int
	Key      string
	Value    string
}

// PluginAuditLog records a lifecycle transition or configuration change.
type PluginAuditLog struct {
	ID         int
	PluginID   int
	Actor      string
	Action     string
	Detail     string
	OccurredAt time.Time
}
