package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cxcheck/internal/app"
	"cxcheck/internal/config"
	"cxcheck/internal/engine"
	"cxcheck/internal/report"
	"cxcheck/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "cxcheck",
	Short: "Dialogflow CX deployment checks",
	Long: `cxcheck validates the post-deployment state of Dialogflow CX agents.
It lists the agents whose display name contains the configured prefix and checks:
- a flow version whose display name contains the expected version
- a playbook version whose description contains the expected version
- an environment (see modes.environment_match)
- a tool version (never listed unless modes.tool_versions is "rest")
- a webhook override whose generic web service URI ends with the expected suffix

The project is taken from --project, GOOGLE_CLOUD_PROJECT, or Application Default Credentials.
The region is taken from --location or LOCATION (default "global").`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	_ = godotenv.Load()
	viper.SetEnvPrefix("CXCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("location", "CXCHECK_LOCATION", "LOCATION")
}

func addPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (YAML); defaults apply when empty")
	flags.String("project", "", "cloud project id (overrides credentials)")
	flags.String("location", "", "agent location, e.g. global or us-central1")
	flags.String("agent-prefix", "", "agent display name filter (case-insensitive)")
	flags.String("environment", "", "environment name to check")
	flags.String("flow-version", "", "expected flow version display name")
	flags.String("playbook-version", "", "expected playbook version description")
	flags.String("tool-version", "", "expected tool version display name")
	flags.String("webhook-suffix", "", "expected webhook override URI suffix")
	flags.String("environment-match", "", "environment selection: self or target")
	flags.String("tool-versions", "", "tool version listing: stub or rest")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.Bool("json", false, "output JSON")
	for _, name := range []string{
		"config", "project", "location", "agent-prefix", "environment", "flow-version",
		"playbook-version", "tool-version", "webhook-suffix", "environment-match",
		"tool-versions", "log-level", "json",
	} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(agentsCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

func runCmd() *cobra.Command {
	var format string
	var failOnFalse bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every deployment check",
		RunE: func(cmd *cobra.Command, args []string) error {
			if viper.GetBool("json") {
				format = report.FormatJSON
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				r, err := e.Run(ctx)
				if err != nil {
					return err
				}
				if err := report.Write(os.Stdout, r, format); err != nil {
					return err
				}
				if failOnFalse && !r.AllPassed() {
					return fmt.Errorf("%d of %d checks failed", countFailed(r.Results()), len(r.Checks))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", report.FormatText, "output format (text, table, json)")
	cmd.Flags().BoolVar(&failOnFalse, "fail-on-false", false, "exit non-zero when any check is false")
	return cmd
}

func agentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List agents matching the prefix",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				agents, err := e.Agents(ctx)
				if err != nil {
					return err
				}
				format := report.FormatTable
				if viper.GetBool("json") {
					format = report.FormatJSON
				}
				return report.WriteAgents(os.Stdout, agents, format)
			})
		},
	}
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Inspect configuration"}
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return printJSON(cfg)
		},
	}
}

func configInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Print the default config YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Print(config.GenerateDefault())
			return nil
		},
	}
}

func configValidateCmd() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.FromFile(filePath); err != nil {
				return err
			}
			fmt.Printf("%s is valid\n", filePath)
			return nil
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "cxcheck.yml", "config file")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the checks over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				handler, err := server.New(server.Config{Engine: e, BasePath: basePath})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				e.Logger.Info("serving", zap.String("addr", addr), zap.String("base_path", basePath))
				fmt.Printf("Serving cxcheck API on http://%s%s (OpenAPI at %s/openapi.json)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(viper.GetString("log-level"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	project, err := app.ResolveProject(ctx, cfg.Project)
	if err != nil {
		return err
	}
	client, err := app.OpenClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()
	e := engine.New(client, cfg, project, logger)
	return fn(ctx, e)
}

// loadConfig layers flags and env over the config file (or defaults).
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if path := viper.GetString("config"); path != "" {
		var err error
		if cfg, err = config.FromFile(path); err != nil {
			return nil, err
		}
	}
	overrides := map[string]*string{
		"project":           &cfg.Project,
		"location":          &cfg.Location,
		"agent-prefix":      &cfg.AgentPrefix,
		"environment":       &cfg.Environment,
		"flow-version":      &cfg.Checks.FlowVersion,
		"playbook-version":  &cfg.Checks.PlaybookVersion,
		"tool-version":      &cfg.Checks.ToolVersion,
		"webhook-suffix":    &cfg.Checks.WebhookSuffix,
		"environment-match": &cfg.Modes.EnvironmentMatch,
		"tool-versions":     &cfg.Modes.ToolVersions,
	}
	for key, field := range overrides {
		if v := viper.GetString(key); v != "" {
			*field = v
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func countFailed(results map[string]bool) int {
	n := 0
	for _, ok := range results {
		if !ok {
			n++
		}
	}
	return n
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
