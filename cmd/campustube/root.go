package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"campustube/pkg/client"
	"campustube/pkg/logging"
)

// env is what every subcommand runs against, built once flags are parsed.
type env struct {
	api     *client.Client
	app     *client.App
	session sessionFile
	prober  client.DurationProber
	log     *zap.Logger
	out     io.Writer
	errOut  io.Writer
}

type rootOptions struct {
	configFile string
	apiURL     string
	verbose    bool
}

func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".campustube"
	}
	return filepath.Join(home, ".campustube")
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	e := &env{}
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "campustube",
		Short:         "Share and watch short campus videos",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.init(cmd, v, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default ~/.campustube/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "campustube API base URL")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(
		newSignUpCommand(e),
		newLoginCommand(e),
		newLogoutCommand(e),
		newFeedCommand(e),
		newExploreCommand(e),
		newProfileCommand(e),
		newLikeCommand(e),
		newUploadCommand(e),
	)
	return cmd
}

func (e *env) init(cmd *cobra.Command, v *viper.Viper, opts *rootOptions) error {
	home := defaultHome()
	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("session_file", filepath.Join(home, "session.yaml"))
	v.SetDefault("ffprobe_path", "ffprobe")
	v.SetEnvPrefix("campustube")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.configFile != "" {
		v.SetConfigFile(opts.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(home)
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || opts.configFile != "" {
			return fmt.Errorf("read config: %w", err)
		}
	}
	if opts.apiURL != "" {
		v.Set("api_url", opts.apiURL)
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	log, err := logging.New(level, true)
	if err != nil {
		return err
	}

	e.session = sessionFile(v.GetString("session_file"))
	s, err := e.session.Load()
	if err != nil {
		return err
	}

	e.out = cmd.OutOrStdout()
	e.errOut = cmd.ErrOrStderr()
	e.log = log
	e.api = client.New(v.GetString("api_url"), client.WithSession(s))
	e.app = client.NewApp(e.api, termNotifier{w: e.errOut}, log)
	e.prober = client.FFProbe{Bin: v.GetString("ffprobe_path")}
	return nil
}
