// Package commands implements the CLI command structure using Cobra.
package commands

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ragline/ragline/api"
	"github.com/ragline/ragline/cli/config"
	"github.com/ragline/ragline/core"
	"github.com/ragline/ragline/store"
)

// ConfigLoader loads CLI config from a path.
type ConfigLoader func(path string) (*config.Config, error)

// ServiceFactory builds the API service from config. The returned closer
// releases session storage and may be nil.
type ServiceFactory func(cfg *config.Config) (*api.Service, func() error, error)

// AppOption customizes App dependencies.
type AppOption func(*App)

// App holds CLI state and runtime dependencies.
type App struct {
	root *cobra.Command

	loadConfig ConfigLoader
	newService ServiceFactory
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer

	cfgFile string
	baseURL string
	verbose bool
	cfg     *config.Config
}

// WithConfigLoader injects a config loader dependency.
func WithConfigLoader(loader ConfigLoader) AppOption {
	return func(a *App) {
		if loader != nil {
			a.loadConfig = loader
		}
	}
}

// WithServiceFactory injects a service factory dependency.
func WithServiceFactory(factory ServiceFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.newService = factory
		}
	}
}

// WithIO injects process I/O streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) AppOption {
	return func(a *App) {
		if stdin != nil {
			a.stdin = stdin
		}
		if stdout != nil {
			a.stdout = stdout
		}
		if stderr != nil {
			a.stderr = stderr
		}
	}
}

// NewApp creates a new CLI app with default dependencies.
func NewApp(opts ...AppOption) *App {
	a := &App{
		loadConfig: config.LoadConfig,
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
	a.newService = a.defaultServiceFactory

	for _, opt := range opts {
		opt(a)
	}

	a.root = a.newRootCommand()
	return a
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "ragline",
		Short: "Ragline - CLI for a remote RAG backend",
		Long: `Ragline is a command-line interface for a retrieval-augmented
generation backend.

Use Ragline to sign in, manage knowledge bases and documents, and chat
with streaming answers.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		SilenceUsage: true,
	}

	// Global flags available to all commands.
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.ragline/config.yaml)")
	root.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "backend address (overrides config)")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(a.newLoginCommand())
	root.AddCommand(a.newRegisterCommand())
	root.AddCommand(a.newLogoutCommand())
	root.AddCommand(a.newChatCommand())
	root.AddCommand(a.newKBCommand())
	root.AddCommand(a.newDocCommand())
	root.AddCommand(a.newVersionCommand())

	return root
}

// Execute runs the root command.
func (a *App) Execute() error {
	return a.root.Execute()
}

func (a *App) initConfig() error {
	path := a.cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := a.loadConfig(path)
	if err != nil {
		return err
	}
	a.cfg = cfg

	// The flag wins over the config file.
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
	}

	logrus.SetOutput(a.stderr)
	if a.verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}

	return nil
}

// defaultServiceFactory wires session storage and the client from config.
func (a *App) defaultServiceFactory(cfg *config.Config) (*api.Service, func() error, error) {
	var (
		storage store.Store
		closer  func() error
	)
	if cfg.SecureStore {
		storage = store.NewSealed(filepath.Join(cfg.DataDir, "session.enc"), store.MachineKey())
	} else {
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, nil, err
		}
		db, err := store.OpenBolt(filepath.Join(cfg.DataDir, "session.db"))
		if err != nil {
			return nil, nil, err
		}
		storage = db
		closer = db.Close
	}

	opts := []core.Option{
		core.WithStorage(storage),
		core.WithTelemetry(logTelemetry{}),
	}
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		if closer != nil {
			closer()
		}
		return nil, nil, err
	}
	if timeout > 0 {
		opts = append(opts, core.WithTimeout(timeout))
	}

	return api.New(core.New(cfg.BaseURL, opts...)), closer, nil
}

// logTelemetry mirrors request lifecycles into the structured log.
type logTelemetry struct{}

func (logTelemetry) OnRequestStart(ev core.RequestStartEvent) {
	logrus.WithFields(logrus.Fields{
		"method":   ev.Method,
		"endpoint": ev.Endpoint,
	}).Debug("request start")
}

func (logTelemetry) OnRequestEnd(ev core.RequestEndEvent) {
	entry := logrus.WithFields(logrus.Fields{
		"method":   ev.Method,
		"endpoint": ev.Endpoint,
		"status":   ev.Status,
		"duration": ev.End.Sub(ev.Start).String(),
	})
	if ev.Err != nil {
		entry.WithError(ev.Err).Debug("request failed")
		return
	}
	entry.Debug("request done")
}

var defaultApp = NewApp()

// Execute runs the default app root command.
func Execute() error {
	return defaultApp.Execute()
}
