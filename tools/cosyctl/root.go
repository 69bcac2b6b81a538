package main

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AltairaLabs/cosyvoice-bridge/pkg/config"
	pkgerrors "github.com/AltairaLabs/cosyvoice-bridge/pkg/errors"
	"github.com/AltairaLabs/cosyvoice-bridge/runtime/logger"
	"github.com/AltairaLabs/cosyvoice-bridge/runtime/tts"
)

// envPrefix namespaces environment overrides, e.g. COSYVOICE_ENDPOINT.
const envPrefix = "COSYVOICE"

// Flag and viper key names.
const (
	keyConfig    = "config"
	keyEnvFile   = "env-file"
	keyEndpoint  = "endpoint"
	keyFormat    = "format"
	keyLanguage  = "language"
	keyLogLevel  = "log-level"
	keyLogFormat = "log-format"
	keyVerbose   = "verbose"
)

// cli holds the state shared by all subcommands of one root command.
type cli struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}
	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "cosyctl",
		Short:         "CosyVoice TTS bridge and command-line client",
		Version:       GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: false,
		Long: `cosyctl talks to a CosyVoice TTS server. It lists the server's speakers,
synthesizes speech, checks readiness and serves the HTTP/WebSocket bridge used
by host applications.

Provider settings are layered: the config file, then the persisted settings
record, then COSYVOICE_* environment variables (a .env file is loaded first
when present), then flags. Environment and flag values are never persisted.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// A missing .env is normal.
			_ = godotenv.Load(c.v.GetString(keyEnvFile))
			if c.v.GetBool(keyVerbose) {
				logger.SetVerbose(true)
			}
			return nil
		},
	}
	root.SetVersionTemplate(GetVersionInfo() + "\n")

	flags := root.PersistentFlags()
	flags.StringP(keyConfig, "c", "", "Path to a bridge config file")
	flags.String(keyEnvFile, ".env", "Environment file loaded before reading COSYVOICE_* variables")
	flags.String(keyEndpoint, "", "CosyVoice server base URL")
	flags.String(keyFormat, "", "Audio format setting (wav, ogg, silk, mp3, flac)")
	flags.String(keyLanguage, "", "Language setting (auto, zh, en, ja, ko)")
	flags.String(keyLogLevel, "", "Log level (debug, info, warn, error)")
	flags.String(keyLogFormat, "", "Log format (text or json)")
	flags.BoolP(keyVerbose, "v", false, "Enable debug logging")
	for _, name := range []string{
		keyConfig, keyEnvFile, keyEndpoint, keyFormat, keyLanguage, keyLogLevel, keyLogFormat, keyVerbose,
	} {
		_ = c.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		c.newVoicesCmd(),
		c.newSayCmd(),
		c.newReadyCmd(),
		c.newServeCmd(),
		c.newSettingsCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the config file when one is named and applies the logging
// overrides. The provider settings given through the environment or flags are
// returned separately: they rank above the persisted settings record, which
// itself ranks above the config file.
func (c *cli) loadConfig() (*config.Config, map[string]any, error) {
	cfg := config.Defaults()
	if path := c.v.GetString(keyConfig); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	overrideString(c.v, keyLogLevel, &cfg.Spec.Logging.DefaultLevel)
	overrideString(c.v, keyLogFormat, &cfg.Spec.Logging.Format)

	checked := *cfg
	p := &checked.Spec.Provider
	overrideString(c.v, keyEndpoint, &p.Endpoint)
	overrideString(c.v, keyFormat, &p.Format)
	overrideString(c.v, keyLanguage, &p.Language)
	if err := checked.Validate(); err != nil {
		return nil, nil, pkgerrors.New(pkgerrors.ComponentCLI, "LoadConfig", err)
	}

	overrides := map[string]any{}
	for key, setting := range map[string]string{
		keyEndpoint: tts.SettingEndpoint,
		keyFormat:   tts.SettingFormat,
		keyLanguage: tts.SettingLanguage,
	} {
		if v := c.v.GetString(key); v != "" {
			overrides[setting] = v
		}
	}
	return cfg, overrides, nil
}

func overrideString(v *viper.Viper, key string, dst *string) {
	if s := v.GetString(key); s != "" {
		*dst = s
	}
}

func (c *cli) bindFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := c.v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}
