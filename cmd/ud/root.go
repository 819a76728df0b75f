package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/userdeck/userdeck/internal/query"
	"github.com/userdeck/userdeck/internal/remote"
	"github.com/userdeck/userdeck/internal/storage"
	"github.com/userdeck/userdeck/internal/store"
	usersync "github.com/userdeck/userdeck/internal/sync"
	"github.com/userdeck/userdeck/internal/ui"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ud",
	Short: "Offline-first client for the user directory API",
	Long: `ud is a command-line client for a remote user directory.

Reads are served from a local snapshot cache when it is warm and
fetched from the remote API otherwise. Every mutation is written
through to an embedded SQLite cache, so state survives between
invocations and can be shared with the dashboard and watch daemon.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if viper.GetBool("no_color") {
			ui.DisableColor()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default $HOME/.config/userdeck/config.yaml)")
	rootCmd.PersistentFlags().String("api-url", "", "base URL of the remote API")
	rootCmd.PersistentFlags().String("cache", "", "path of the snapshot cache database")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	_ = viper.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("cache.path", rootCmd.PersistentFlags().Lookup("cache"))
	_ = viper.BindPFlag("no_color", rootCmd.PersistentFlags().Lookup("no-color"))
}

// initConfig reads the config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "userdeck"))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("UD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("api.base_url", remote.DefaultBaseURL)
	viper.SetDefault("remote.id_ceiling", usersync.DefaultRemoteIDCeiling)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

// newLogger builds a prefixed logger, mirroring to a rotated file when
// log.file is configured.
func newLogger(prefix string) *log.Logger {
	var w io.Writer = os.Stderr
	if file := viper.GetString("log.file"); file != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    5, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}
	return log.New(w, prefix, log.LstdFlags)
}

// cachePath resolves the snapshot database location.
func cachePath() string {
	if p := viper.GetString("cache.path"); p != "" {
		return p
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "userdeck", "cache.db")
}

// app bundles the wired component stack behind the CLI commands.
type app struct {
	storage *storage.Store
	store   *store.Store
	query   *query.Query
	orch    *usersync.Orchestrator
}

// newApp constructs storage, store, query layer, gateway and
// orchestrator from the resolved configuration. The caller must Close.
func newApp() (*app, error) {
	st, err := storage.Open(cachePath(), newLogger("[storage] "))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	entStore := store.New(st, newLogger("[store] "))
	q := query.New(entStore)

	gw := remote.NewClient(&remote.Config{
		BaseURL: viper.GetString("api.base_url"),
	})

	orch := usersync.New(entStore, q, gw, &usersync.Config{
		RemoteIDCeiling: viper.GetInt("remote.id_ceiling"),
		Logger:          newLogger("[sync] "),
	})

	return &app{
		storage: st,
		store:   entStore,
		query:   q,
		orch:    orch,
	}, nil
}

// Close releases the storage connection.
func (a *app) Close() {
	if err := a.storage.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close cache: %v\n", err)
	}
}

// warnStatus prints the degraded-result message for a call site, if
// one was recorded.
func warnStatus(a *app, key string) {
	if msg, ok := a.orch.Status(key); ok {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	}
}
