package models

// MessageEvent represents an inbound text message observed on the gateway
type MessageEvent struct {
	MessageID string
	ChannelID string
	GuildID   string
	UserID    string
	Username  string
	Content   string
	FromBot   bool
}

// ReactionEvent represents an inbound emoji reaction observed on the gateway
type ReactionEvent struct {
	MessageID string
	ChannelID string
	UserID    string
	Username  string
	Emoji     string
}
