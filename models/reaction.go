package models

// ReactionResult is the outcome of a resolved reaction wait
type ReactionResult struct {
	Option    string `json:"option"`
	Emoji     string `json:"emoji"`
	Responder string `json:"user"`
	MessageID string `json:"message_id"`
}
