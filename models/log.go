package models

// LogRole identifies the author of a logged conversation entry
type LogRole string

const (
	LogRoleHuman     LogRole = "human"
	LogRoleAssistant LogRole = "assistant"
	LogRoleSystem    LogRole = "system"
)

// Embed colors shared across the notifier presentation layer
const (
	ColorBlue   = 0x3498DB
	ColorGreen  = 0x2ECC71
	ColorGray   = 0x95A5A6
	ColorSlate  = 0x7F8C8D
	ColorOrange = 0xF39C12
	ColorRed    = 0xE74C3C
	ColorPurple = 0x9B59B6
)

// Color returns the embed color for a role. Unknown roles fall back to the
// default gray. The mapping is a presentation detail but must be deterministic.
func (r LogRole) Color() int {
	switch r {
	case LogRoleHuman:
		return ColorBlue
	case LogRoleAssistant:
		return ColorGreen
	case LogRoleSystem:
		return ColorGray
	default:
		return ColorSlate
	}
}

// LogEntry is an ephemeral conversation log record. It is rendered into an
// embed and handed to the gateway; the daemon does not retain it.
type LogEntry struct {
	Role    LogRole
	Message string
	Context string
}
