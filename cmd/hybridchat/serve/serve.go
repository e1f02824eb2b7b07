package servecmder

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/hybridchat/pkg/chatbot"
	"github.com/papercomputeco/hybridchat/pkg/completion"
	"github.com/papercomputeco/hybridchat/pkg/config"
	"github.com/papercomputeco/hybridchat/pkg/history"
	"github.com/papercomputeco/hybridchat/pkg/logger"
	"github.com/papercomputeco/hybridchat/pkg/search"
	"github.com/papercomputeco/hybridchat/server"
)

const serveLongDesc string = `Run the chatbot HTTP API.

Each POST /chat message is searched on Google Custom Search, the top
snippets and the conversation so far are assembled into a prompt, and
the prompt is completed by the OpenAI completions API.

OPENAI_API_KEY, GOOGLE_API_KEY and GOOGLE_CSE_ID are required, either
in the environment, in a .env file or in the --config TOML file.

Examples:
  hybridchat serve
  PORT=9000 hybridchat serve --debug
  hybridchat serve --config /etc/hybridchat.toml`

const serveShortDesc string = "Run the chatbot API server"

type serveCommander struct {
	configPath string
	envFile    string
	debug      bool
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to a TOML config file")
	cmd.Flags().StringVar(&cmder.envFile, "env-file", ".env", "Path to a dotenv file (ignored when absent)")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	cfg, err := config.Load(c.configPath, c.envFile)
	if err != nil {
		return err
	}
	if c.debug {
		cfg.Log.Debug = true
	}

	log := logger.NewLogger(logger.Options{Debug: cfg.Log.Debug, File: cfg.Log.File})
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", zap.Error(err))
		return err
	}

	log.Info("hybridchat starting",
		zap.String("listen", cfg.ListenAddr()),
		zap.String("model", cfg.OpenAI.Model),
		zap.Int("history_window", cfg.Server.HistoryWindow),
		zap.Duration("provider_timeout", cfg.Server.ProviderTimeout.Duration),
		zap.Bool("debug", cfg.Log.Debug),
	)

	searcher, err := search.New(search.Config{
		APIKey:   cfg.Google.APIKey,
		EngineID: cfg.Google.CSEID,
		BaseURL:  cfg.Google.BaseURL,
		Timeout:  cfg.Server.ProviderTimeout.Duration,
	}, log.Named("search"))
	if err != nil {
		return fmt.Errorf("could not create search client: %w", err)
	}

	completer, err := completion.New(completion.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.Server.ProviderTimeout.Duration,
	}, log.Named("completion"))
	if err != nil {
		return fmt.Errorf("could not create completion client: %w", err)
	}

	bot := chatbot.New(searcher, completer, history.NewLog(), chatbot.Options{
		HistoryWindow: cfg.Server.HistoryWindow,
	}, log.Named("chatbot"))

	srv := server.New(server.Config{ListenAddr: cfg.ListenAddr()}, bot, log)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("chat server failed", zap.Error(err))
		}
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		return srv.Shutdown()
	}
}
