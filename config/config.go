package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type DiscordConfig struct {
	BotToken       string
	GuildID        string
	LogChannelID   string
	LogThreadName  string
	VoiceChannelID string // optional, enables auto-connect at startup
	CommandPrefix  string
}

// IsConfigured returns true if all required Discord configuration is present
func (c DiscordConfig) IsConfigured() bool {
	return c.BotToken != "" &&
		c.GuildID != "" &&
		c.LogChannelID != ""
	// Note: VoiceChannelID is optional
}

type VoicevoxConfig struct {
	BaseURL          string
	DefaultSpeakerID int
}

type AppConfig struct {
	Host               string // Optional with default "127.0.0.1"; the API carries no auth
	Port               string // Optional with default "8765"
	CORSAllowedOrigins string // Optional with default "*"
	Environment        string

	DiscordConfig  DiscordConfig
	VoicevoxConfig VoicevoxConfig
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ Could not load .env file, continuing with system env vars")
	}

	botToken, err := getEnvRequired("DISCORD_BOT_TOKEN")
	if err != nil {
		return nil, err
	}

	guildID, err := getEnvRequired("DISCORD_GUILD_ID")
	if err != nil {
		return nil, err
	}

	logChannelID, err := getEnvRequired("LOG_CHANNEL_ID")
	if err != nil {
		return nil, err
	}

	speakerID, err := getEnvIntWithDefault("VOICEVOX_DEFAULT_SPEAKER_ID", 1)
	if err != nil {
		return nil, err
	}

	config := &AppConfig{
		Host:               getEnvWithDefault("HOST", "127.0.0.1"),
		Port:               getEnvWithDefault("PORT", "8765"),
		CORSAllowedOrigins: getEnvWithDefault("CORS_ALLOWED_ORIGINS", "*"),
		Environment:        getEnvWithDefault("ENVIRONMENT", "dev"),

		DiscordConfig: DiscordConfig{
			BotToken:       botToken,
			GuildID:        guildID,
			LogChannelID:   logChannelID,
			LogThreadName:  getEnvWithDefault("LOG_THREAD_NAME", "Conversation Log"),
			VoiceChannelID: os.Getenv("VOICE_CHANNEL_ID"),
			CommandPrefix:  getEnvWithDefault("COMMAND_PREFIX", "!"),
		},

		VoicevoxConfig: VoicevoxConfig{
			BaseURL:          getEnvWithDefault("VOICEVOX_URL", "http://localhost:50021"),
			DefaultSpeakerID: speakerID,
		},
	}

	if config.DiscordConfig.VoiceChannelID != "" {
		log.Printf("✅ Default voice channel configured - will auto-connect at startup")
	} else {
		log.Printf("⚠️ No default voice channel configured - use !join to connect")
	}

	return config, nil
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return value, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}
