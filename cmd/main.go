package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	discordclient "agentnotify/clients/discord"
	"agentnotify/clients/voicevox"
	"agentnotify/config"
	"agentnotify/handlers"
	"agentnotify/models"
	commandsvc "agentnotify/services/commands"
	"agentnotify/services/reactions"
	"agentnotify/services/voice"
	commanduc "agentnotify/usecases/commands"
	"agentnotify/usecases/notifier"
)

const gatewayConnectTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Printf("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Initialize gateway and VOICEVOX clients
	gateway, err := discordclient.NewDiscordClient(cfg.DiscordConfig.BotToken, cfg.DiscordConfig.GuildID)
	if err != nil {
		return err
	}

	voicevoxClient := voicevox.NewVoicevoxClient(
		&http.Client{Timeout: 30 * time.Second},
		cfg.VoicevoxConfig.BaseURL,
	)

	// Initialize services
	correlator := reactions.NewCorrelator()
	voiceController := voice.NewController(gateway, voicevoxClient)

	// The working directory is appended so threads from parallel agent
	// sessions stay distinguishable
	threadName := cfg.DiscordConfig.LogThreadName
	if cwd, err := os.Getwd(); err == nil {
		threadName = fmt.Sprintf("%s [%s]", threadName, cwd)
	}

	notifierUseCase := notifier.NewNotifierUseCase(
		gateway,
		correlator,
		voiceController,
		cfg.DiscordConfig.LogChannelID,
		threadName,
	)

	// Register built-in commands and the dispatcher
	registry := commandsvc.NewRegistry()
	if err := commanduc.RegisterBuiltins(registry, commanduc.BuiltinDeps{
		Gateway:               gateway,
		Notifier:              notifierUseCase,
		Voicevox:              voicevoxClient,
		Correlator:            correlator,
		Prefix:                cfg.DiscordConfig.CommandPrefix,
		GuildID:               cfg.DiscordConfig.GuildID,
		VoicevoxURL:           cfg.VoicevoxConfig.BaseURL,
		DefaultVoiceChannelID: cfg.DiscordConfig.VoiceChannelID,
		DefaultSpeakerID:      cfg.VoicevoxConfig.DefaultSpeakerID,
	}); err != nil {
		return err
	}

	// Commands are accepted in the log channel and in the active log thread
	channelAllowed := func(channelID string) bool {
		if channelID == cfg.DiscordConfig.LogChannelID {
			return true
		}
		threadID, ok := notifierUseCase.ThreadID().Get()
		return ok && channelID == threadID
	}
	dispatcher := commanduc.NewDispatcher(gateway, registry, cfg.DiscordConfig.CommandPrefix, channelAllowed)

	// Wire gateway events before opening the connection
	gateway.OnMessageCreate(func(event models.MessageEvent) {
		dispatcher.HandleMessageEvent(context.Background(), event)
	})
	gateway.OnReactionAdd(correlator.HandleReactionEvent)

	ctx, cancel := context.WithTimeout(context.Background(), gatewayConnectTimeout)
	defer cancel()
	if err := gateway.Open(ctx); err != nil {
		return fmt.Errorf("failed to connect to Discord: %w", err)
	}
	defer func() {
		if err := gateway.Close(); err != nil {
			log.Printf("⚠️ Failed to close gateway connection: %v", err)
		}
	}()

	if voicevoxClient.IsAvailable(ctx) {
		log.Printf("✅ VOICEVOX Engine available at %s", cfg.VoicevoxConfig.BaseURL)
	} else {
		log.Printf("⚠️ VOICEVOX Engine not reachable at %s - voice synthesis disabled until it comes up",
			cfg.VoicevoxConfig.BaseURL)
	}

	// Auto-connect to the default voice channel when one is configured. A
	// failure here is not fatal; !join can still connect later.
	if cfg.DiscordConfig.VoiceChannelID != "" {
		if _, err := voiceController.Connect(ctx, cfg.DiscordConfig.VoiceChannelID); err != nil {
			log.Printf("⚠️ Failed to auto-connect to voice channel %s: %v",
				cfg.DiscordConfig.VoiceChannelID, err)
		}
	}
	defer func() {
		if voiceController.Session().IsAbsent() {
			return
		}
		if _, err := voiceController.Disconnect(); err != nil {
			log.Printf("⚠️ Failed to disconnect from voice channel: %v", err)
		}
	}()

	// Setup the HTTP API
	apiHandler := handlers.NewNotifierAPIHandler(
		gateway,
		notifierUseCase,
		voicevoxClient,
		cfg.DiscordConfig.VoiceChannelID,
		cfg.VoicevoxConfig.DefaultSpeakerID,
	)

	router := mux.NewRouter()
	apiHandler.RegisterRoutes(router)

	// Setup CORS middleware
	allowedOrigins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	server := &http.Server{
		Addr:              cfg.Host + ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server)
}

func handleGracefulShutdown(server *http.Server) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("✅ Listening on http://%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Server error: %v", err)
		}
	}()

	<-stop
	log.Printf("🛑 Shutdown signal received, cleaning up...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
		return err
	}

	log.Printf("✅ Server stopped gracefully")
	return nil
}
