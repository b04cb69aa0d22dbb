/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Seednode/promptphone/providers"
)

const envPrefix = "PROMPTPHONE"

var envReplacer = strings.NewReplacer("-", "_")

type Config struct {
	bind           string
	envFile        string
	playerTimeout  time.Duration
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	falKey              string
	falURL              string
	falModel            string
	openaiKey           string
	openaiURL           string
	chatModel           string
	embeddingModel      string
	collaboratorTimeout time.Duration
	mockImages          bool
	mockDelay           time.Duration
	fightBackWindow     time.Duration
	seed                uint64
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.collaboratorTimeout <= 0 {
		return fmt.Errorf("invalid collaborator timeout (must be positive): %s", c.collaboratorTimeout)
	}
	if c.fightBackWindow < 0 {
		return fmt.Errorf("invalid fight-back window (must not be negative): %s", c.fightBackWindow)
	}
	if c.mockDelay < 0 {
		return fmt.Errorf("invalid mock delay (must not be negative): %s", c.mockDelay)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// useMockImages is true when no image key is configured, or mocks were asked for.
func (c *Config) useMockImages() bool {
	return c.mockImages || c.falKey == ""
}

// loadEnvFile reads KEY=value pairs from path into the environment without
// overriding anything already set. A missing file is fine.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return err
}

// applyEnv fills every flag the user did not set on the command line from
// PROMPTPHONE_* variables, then falls back to the providers' conventional
// variable names for credentials.
func applyEnv(cfg *Config, fs *pflag.FlagSet, v *viper.Viper) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	if cfg.falKey == "" {
		cfg.falKey = os.Getenv("FAL_API_KEY")
	}
	if cfg.openaiKey == "" {
		cfg.openaiKey = os.Getenv("OPENAI_API_KEY")
	}
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "promptphone",
		Short:         "Prompt telephone: a party game where AI images pass a description down the line.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			envFile := cfg.envFile
			if !cmd.Flags().Changed("env-file") {
				if fromEnv := os.Getenv(envPrefix + "_ENV_FILE"); fromEnv != "" {
					envFile = fromEnv
				}
			}
			if err := loadEnvFile(envFile); err != nil {
				return fmt.Errorf("loading %s: %w", envFile, err)
			}

			applyEnv(cfg, cmd.Flags(), v)

			return cfg.validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: PROMPTPHONE_BIND)")
	fs.StringVar(&cfg.envFile, "env-file", ".env", "dotenv file to read credentials from, if present (env: PROMPTPHONE_ENV_FILE)")
	fs.DurationVar(&cfg.playerTimeout, "player-timeout", 10*time.Minute, "time before disconnected players are dropped (env: PROMPTPHONE_PLAYER_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: PROMPTPHONE_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: PROMPTPHONE_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: PROMPTPHONE_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended (env: PROMPTPHONE_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: PROMPTPHONE_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: PROMPTPHONE_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: PROMPTPHONE_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: PROMPTPHONE_VERSION)")

	fs.StringVar(&cfg.falKey, "fal-key", "", "fal.ai API key for image generation (env: PROMPTPHONE_FAL_KEY or FAL_API_KEY)")
	fs.StringVar(&cfg.falURL, "fal-url", providers.DefaultFalURL, "fal.ai endpoint (env: PROMPTPHONE_FAL_URL)")
	fs.StringVar(&cfg.falModel, "fal-model", providers.DefaultFalModel, "fal.ai image model (env: PROMPTPHONE_FAL_MODEL)")
	fs.StringVar(&cfg.openaiKey, "openai-key", "", "OpenAI API key for sabotage and scoring (env: PROMPTPHONE_OPENAI_KEY or OPENAI_API_KEY)")
	fs.StringVar(&cfg.openaiURL, "openai-url", providers.DefaultOpenAIURL, "OpenAI-compatible endpoint (env: PROMPTPHONE_OPENAI_URL)")
	fs.StringVar(&cfg.chatModel, "chat-model", providers.DefaultChatModel, "model used to rewrite prompts (env: PROMPTPHONE_CHAT_MODEL)")
	fs.StringVar(&cfg.embeddingModel, "embedding-model", providers.DefaultEmbeddingModel, "model used to score prompts (env: PROMPTPHONE_EMBEDDING_MODEL)")
	fs.DurationVar(&cfg.collaboratorTimeout, "collaborator-timeout", providers.DefaultTimeout, "timeout for each call to an AI service (env: PROMPTPHONE_COLLABORATOR_TIMEOUT)")
	fs.BoolVar(&cfg.mockImages, "mock-images", false, "use placeholder images even if a fal.ai key is set (env: PROMPTPHONE_MOCK_IMAGES)")
	fs.DurationVar(&cfg.mockDelay, "mock-delay", 2*time.Second, "artificial delay for placeholder images (env: PROMPTPHONE_MOCK_DELAY)")
	fs.DurationVar(&cfg.fightBackWindow, "fight-back-window", 5*time.Second, "how long a sabotaged player may fight back (env: PROMPTPHONE_FIGHT_BACK_WINDOW)")
	fs.Uint64Var(&cfg.seed, "seed", 0, "seed for card and sabotage randomness, 0 for random (env: PROMPTPHONE_SEED)")

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("promptphone v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
