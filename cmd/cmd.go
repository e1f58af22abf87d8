package cmd

import (
	"errors"
	"os"

	"trip-tales-client/internal/api"
	"trip-tales-client/internal/cli"
	"trip-tales-client/internal/config"
	"trip-tales-client/internal/services"
	"trip-tales-client/internal/session"
	"trip-tales-client/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration; fall back to defaults when no file is present
	cfg, err := config.Load("config.yaml")
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
		cfg = config.Default()
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Open durable session storage
	store, err := storage.OpenSessionStore(cfg.Storage.Dir, cfg.Storage.File)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open session storage")
	}
	defer store.Close()

	// Initialize session and API client
	sess := session.New()
	client := api.NewClient(cfg.Server.BaseURL, cfg.Server.Timeout(), sess)
	sessionMgr := session.NewManager(sess, client, store)

	// Restore any persisted session
	if err := sessionMgr.Restore(); err != nil {
		log.Error().Err(err).Msg("Failed to restore session")
	}

	// Initialize services
	postService := services.NewPostService(client)
	groupService := services.NewGroupService(client, postService, cfg.Sync.OnInvitationAccepted)

	// Run the interactive shell
	shell, err := cli.New(sessionMgr, groupService, postService, cfg.Server.Timeout())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize CLI")
	}

	if err := shell.Run(); err != nil {
		log.Fatal().Err(err).Msg("CLI exited with error")
	}

	log.Info().Msg("Client exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
