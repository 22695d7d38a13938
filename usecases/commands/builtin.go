package commands

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"agentnotify/clients"
	"agentnotify/models"
	commandsvc "agentnotify/services/commands"
	"agentnotify/services/reactions"
	"agentnotify/usecases/notifier"
)

// speakersListLimit caps the speakers embed so it stays under the message
// size limit
const speakersListLimit = 15

// BuiltinDeps carries everything the built-in commands touch
type BuiltinDeps struct {
	Gateway    clients.GatewayClient
	Notifier   *notifier.NotifierUseCase
	Voicevox   clients.VoicevoxClient
	Correlator *reactions.Correlator

	Prefix                string
	GuildID               string
	VoicevoxURL           string
	DefaultVoiceChannelID string
	DefaultSpeakerID      int
}

// RegisterBuiltins registers the stock command set on the given registry
func RegisterBuiltins(registry *commandsvc.Registry, deps BuiltinDeps) error {
	b := &builtins{registry: registry, deps: deps}

	cmds := []*models.Command{
		{
			Name:        "help",
			Description: "Show available commands",
			Usage:       deps.Prefix + "help [command]",
			Category:    "Information",
			Aliases:     []string{"h", "?"},
			Handler:     b.help,
		},
		{
			Name:        "ping",
			Description: "Check bot latency",
			Usage:       deps.Prefix + "ping",
			Category:    "Information",
			Handler:     b.ping,
		},
		{
			Name:        "status",
			Description: "Show bot status and connection info",
			Usage:       deps.Prefix + "status",
			Category:    "Information",
			Aliases:     []string{"info"},
			Handler:     b.status,
		},
		{
			Name:        "thread",
			Description: "Create a new log thread",
			Usage:       deps.Prefix + "thread [name]",
			Category:    "Management",
			Handler:     b.thread,
		},
		{
			Name:        "say",
			Description: "Speak a message in voice channel (requires VOICEVOX)",
			Usage:       deps.Prefix + "say <message>",
			Category:    "Voice",
			Aliases:     []string{"speak", "tts"},
			Handler:     b.say,
		},
		{
			Name:        "speakers",
			Description: "List available VOICEVOX speakers",
			Usage:       deps.Prefix + "speakers",
			Category:    "Voice",
			Handler:     b.speakers,
		},
		{
			Name:        "join",
			Description: "Connect to a voice channel",
			Usage:       deps.Prefix + "join [voice_channel_id]",
			Category:    "Voice",
			Handler:     b.join,
		},
		{
			Name:        "leave",
			Description: "Disconnect from voice channel",
			Usage:       deps.Prefix + "leave",
			Category:    "Voice",
			Aliases:     []string{"disconnect"},
			Handler:     b.leave,
		},
	}

	for _, cmd := range cmds {
		if err := registry.Register(cmd); err != nil {
			return fmt.Errorf("failed to register builtin command %s: %w", cmd.Name, err)
		}
	}
	return nil
}

type builtins struct {
	registry *commandsvc.Registry
	deps     BuiltinDeps
}

func (b *builtins) help(ctx context.Context, event models.MessageEvent, args []string) error {
	if len(args) > 0 {
		maybeCmd := b.registry.Get(strings.ToLower(args[0]))
		if !maybeCmd.IsPresent() {
			return b.deps.Gateway.ReplyToMessage(event.ChannelID, event.MessageID,
				fmt.Sprintf("❌ Unknown command: `%s`", args[0]))
		}
		cmd := maybeCmd.MustGet()

		embed := &clients.Embed{
			Title:       fmt.Sprintf("📖 Help: %s%s", b.deps.Prefix, cmd.Name),
			Description: cmd.Description,
			Color:       models.ColorBlue,
		}
		embed.AddField("Usage", fmt.Sprintf("`%s`", cmd.Usage), false)
		if len(cmd.Aliases) > 0 {
			aliases := make([]string, len(cmd.Aliases))
			for i, alias := range cmd.Aliases {
				aliases[i] = fmt.Sprintf("`%s%s`", b.deps.Prefix, alias)
			}
			embed.AddField("Aliases", strings.Join(aliases, ", "), false)
		}
		embed.AddField("Category", cmd.Category, true)

		return b.deps.Gateway.ReplyWithEmbed(event.ChannelID, event.MessageID, embed)
	}

	embed := &clients.Embed{
		Title:       "📚 Available Commands",
		Description: fmt.Sprintf("Use `%shelp <command>` for detailed help", b.deps.Prefix),
		Color:       models.ColorBlue,
		Footer:      fmt.Sprintf("Command prefix: %s", b.deps.Prefix),
	}

	byCategory := b.registry.GetByCategory()
	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		lines := make([]string, 0, len(byCategory[category]))
		for _, cmd := range byCategory[category] {
			lines = append(lines, fmt.Sprintf("`%s%s` - %s", b.deps.Prefix, cmd.Name, cmd.Description))
		}
		embed.AddField(category, strings.Join(lines, "\n"), false)
	}

	return b.deps.Gateway.ReplyWithEmbed(event.ChannelID, event.MessageID, embed)
}

func (b *builtins) ping(ctx context.Context, event models.MessageEvent, args []string) error {
	latency := b.deps.Gateway.HeartbeatLatency()
	embed := &clients.Embed{
		Title:       "🏓 Pong!",
		Description: fmt.Sprintf("Latency: `%.2fms`", float64(latency)/float64(time.Millisecond)),
		Color:       models.ColorGreen,
	}
	return b.deps.Gateway.ReplyWithEmbed(event.ChannelID, event.MessageID, embed)
}

func (b *builtins) status(ctx context.Context, event models.MessageEvent, args []string) error {
	embed := &clients.Embed{
		Title: "📊 Bot Status",
		Color: models.ColorBlue,
	}

	if botUser, err := b.deps.Gateway.BotUser(); err == nil {
		embed.AddField("Bot", fmt.Sprintf("<@%s>\n`%s`", botUser.ID, botUser.Username), true)
	}

	latency := b.deps.Gateway.HeartbeatLatency()
	embed.AddField("Latency", fmt.Sprintf("`%.2fms`", float64(latency)/float64(time.Millisecond)), true)

	if threadID, ok := b.deps.Notifier.ThreadID().Get(); ok {
		embed.AddField("Log Thread",
			fmt.Sprintf("[%s](https://discord.com/channels/%s/%s)",
				b.deps.Notifier.ThreadName(), b.deps.GuildID, threadID),
			false)
	}

	if session, ok := b.deps.Notifier.VoiceSession().Get(); ok {
		embed.AddField("Voice Channel", fmt.Sprintf("🔊 Connected to **%s**", session.ChannelName), false)
	} else {
		embed.AddField("Voice Channel", "❌ Not connected", false)
	}

	voicevoxStatus := "❌ Unavailable"
	if b.deps.Voicevox.IsAvailable(ctx) {
		voicevoxStatus = "✅ Available"
	}
	embed.AddField("VOICEVOX Engine", fmt.Sprintf("%s\n`%s`", voicevoxStatus, b.deps.VoicevoxURL), false)

	if pending := b.deps.Correlator.PendingCount(); pending > 0 {
		embed.AddField("Pending Reactions", fmt.Sprintf("%d wait(s) in flight", pending), false)
	}

	return b.deps.Gateway.ReplyWithEmbed(event.ChannelID, event.MessageID, embed)
}

func (b *builtins) thread(ctx context.Context, event models.MessageEvent, args []string) error {
	_, name, err := b.deps.Notifier.RecreateThread(ctx, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("failed to create new thread: %w", err)
	}
	return b.deps.Gateway.ReplyToMessage(event.ChannelID, event.MessageID,
		fmt.Sprintf("✅ Created new thread: **%s**\nFuture logs will be sent to this thread.", name))
}

func (b *builtins) say(ctx context.Context, event models.MessageEvent, args []string) error {
	if len(args) == 0 {
		return b.deps.Gateway.ReplyToMessage(event.ChannelID, event.MessageID,
			fmt.Sprintf("❌ Usage: `%ssay <message>`", b.deps.Prefix))
	}

	if b.deps.Notifier.VoiceSession().IsAbsent() {
		return b.deps.Gateway.ReplyToMessage(event.ChannelID, event.MessageID,
			fmt.Sprintf("❌ Not connected to voice channel.\nUse `%sjoin <voice_channel_id>` first.", b.deps.Prefix))
	}

	text := strings.Join(args, " ")
	result, err := b.deps.Notifier.NotifyVoice(ctx, text, models.VoicePriorityNormal, b.deps.DefaultSpeakerID)
	if err != nil {
		return fmt.Errorf("failed to speak message: %w", err)
	}

	if result.Status == models.VoiceStatusPlayed {
		if err := b.deps.Gateway.AddReaction(event.ChannelID, event.MessageID, "✅"); err != nil {
			log.Printf("⚠️ Failed to acknowledge say command: %v", err)
		}
		return nil
	}
	return b.deps.Gateway.ReplyToMessage(event.ChannelID, event.MessageID,
		fmt.Sprintf("⚠️ %s", result.Note))
}

func (b *builtins) speakers(ctx context.Context, event models.MessageEvent, args []string) error {
	if !b.deps.Voicevox.IsAvailable(ctx) {
		return b.deps.Gateway.ReplyToMessage(event.ChannelID, event.MessageID,
			fmt.Sprintf("❌ VOICEVOX Engine is not available at `%s`", b.deps.VoicevoxURL))
	}

	speakers, err := b.deps.Voicevox.GetSpeakers(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch speakers: %w", err)
	}

	lines := make([]string, 0, speakersListLimit)
	for i, speaker := range speakers {
		if i >= speakersListLimit {
			break
		}
		styles := make([]string, len(speaker.Styles))
		for j, style := range speaker.Styles {
			styles[j] = style.Name
		}
		line := fmt.Sprintf("**%s** - %s", speaker.Name, strings.Join(styles, ", "))
		if len(speaker.Styles) > 0 {
			line += fmt.Sprintf("\nID: `%d`", speaker.Styles[0].ID)
		}
		lines = append(lines, line)
	}

	embed := &clients.Embed{
		Title:       "🎤 Available VOICEVOX Speakers",
		Description: strings.Join(lines, "\n\n"),
		Color:       models.ColorPurple,
	}
	if len(speakers) > speakersListLimit {
		embed.Footer = fmt.Sprintf("Showing %d of %d speakers. Visit VOICEVOX Engine for full list.",
			speakersListLimit, len(speakers))
	}

	return b.deps.Gateway.ReplyWithEmbed(event.ChannelID, event.MessageID, embed)
}

func (b *builtins) join(ctx context.Context, event models.MessageEvent, args []string) error {
	channelID := b.deps.DefaultVoiceChannelID
	if len(args) > 0 {
		channelID = args[0]
	}
	if channelID == "" {
		return b.deps.Gateway.ReplyToMessage(event.ChannelID, event.MessageID,
			fmt.Sprintf("❌ Usage: `%sjoin <voice_channel_id>`\n"+
				"Right-click on a voice channel and select 'Copy ID' to get the channel ID.\n"+
				"Or set VOICE_CHANNEL_ID in .env file for auto-connect.", b.deps.Prefix))
	}

	session, err := b.deps.Notifier.ConnectVoice(ctx, channelID)
	switch {
	case err == nil:
		return b.deps.Gateway.ReplyToMessage(event.ChannelID, event.MessageID,
			fmt.Sprintf("✅ Connected to voice channel: **%s**\n"+
				"Voice notifications will now be played in this channel.\n"+
				"Use `%sleave` to disconnect.", session.ChannelName, b.deps.Prefix))
	case isVoiceUsageError(err):
		return b.deps.Gateway.ReplyToMessage(event.ChannelID, event.MessageID,
			voiceUsageReply(err, channelID, b.deps.Prefix))
	default:
		return fmt.Errorf("failed to connect to voice channel: %w", err)
	}
}

func (b *builtins) leave(ctx context.Context, event models.MessageEvent, args []string) error {
	maybeName, err := b.deps.Notifier.DisconnectVoice()
	if err != nil {
		return fmt.Errorf("failed to disconnect from voice channel: %w", err)
	}
	name, ok := maybeName.Get()
	if !ok {
		return b.deps.Gateway.ReplyToMessage(event.ChannelID, event.MessageID,
			"⚠️ Not connected to any voice channel.")
	}
	return b.deps.Gateway.ReplyToMessage(event.ChannelID, event.MessageID,
		fmt.Sprintf("✅ Disconnected from voice channel: **%s**", name))
}
