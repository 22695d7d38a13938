package clients

import "time"

// BotUser is the gateway's own identity
type BotUser struct {
	ID       string
	Username string
	Bot      bool
}

// ChannelInfo is a minimal view of a Discord channel
type ChannelInfo struct {
	ID      string
	Name    string
	IsVoice bool
}

// EmbedField is a single name/value field within an embed
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is the gateway-agnostic representation of a rich message
type Embed struct {
	Title       string
	Description string
	Color       int
	Timestamp   time.Time
	Fields      []EmbedField
	Footer      string
}

// AddField appends a field to the embed and returns it for chaining
func (e *Embed) AddField(name, value string, inline bool) *Embed {
	e.Fields = append(e.Fields, EmbedField{Name: name, Value: value, Inline: inline})
	return e
}

// SetField replaces the field at index i, appending if out of range
func (e *Embed) SetField(i int, name, value string, inline bool) *Embed {
	if i < 0 || i >= len(e.Fields) {
		return e.AddField(name, value, inline)
	}
	e.Fields[i] = EmbedField{Name: name, Value: value, Inline: inline}
	return e
}

// SpeakerStyle is one voice style of a VOICEVOX speaker
type SpeakerStyle struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

// Speaker is a VOICEVOX speaker with its available styles
type Speaker struct {
	Name   string         `json:"name"`
	Styles []SpeakerStyle `json:"styles"`
}
