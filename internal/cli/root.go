package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/chroma-client/internal/config"
	"github.com/samvad-hq/chroma-client/internal/logger"
	"github.com/samvad-hq/chroma-client/pkg/chroma"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	host     string
	apiKey   string
	tenant   string
	database string
	useTLS   bool
	timeout  time.Duration
	output   string
	verbose  bool
}

// runtime resolves configuration and clients for a command invocation.
type runtime struct {
	env  *Env
	opts *globalOptions
}

// NewRootCmd builds the chromactl command tree.
func NewRootCmd(env *Env, version string) *cobra.Command {
	rt := &runtime{env: env, opts: &globalOptions{}}

	cmd := &cobra.Command{
		Use:   "chromactl",
		Short: "Inspect and manage a Chroma vector database",
		Long: `chromactl talks to a Chroma server over its REST API.

Connection settings come from the environment (CHROMA_HOST, CHROMA_API_KEY,
CHROMA_TENANT, CHROMA_DATABASE, CHROMA_USE_TLS) or configs/.env and can be
overridden with flags.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(env.Stdout)
	cmd.SetErr(env.Stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&rt.opts.host, "host", "", "Chroma server URL (overrides CHROMA_HOST)")
	flags.StringVar(&rt.opts.apiKey, "api-key", "", "API token sent as x-chroma-token")
	flags.StringVar(&rt.opts.tenant, "tenant", "", "tenant name")
	flags.StringVar(&rt.opts.database, "database", "", "database name")
	flags.BoolVar(&rt.opts.useTLS, "tls", false, "upgrade http:// URLs to https://")
	flags.DurationVar(&rt.opts.timeout, "timeout", 0, "request timeout (e.g. 10s)")
	flags.StringVarP(&rt.opts.output, "output", "o", outputJSON, "output format: json or yaml")
	flags.BoolVarP(&rt.opts.verbose, "verbose", "v", false, "log requests and responses to stderr")

	cmd.AddCommand(heartbeatCmd(rt))
	cmd.AddCommand(versionCmd(rt))
	cmd.AddCommand(resetCmd(rt))
	cmd.AddCommand(collectionsCmd(rt))
	cmd.AddCommand(queryCmd(rt))
	cmd.AddCommand(getCmd(rt))
	cmd.AddCommand(syncCmd(rt))

	return cmd
}

// config loads the configuration and applies flag overrides.
func (rt *runtime) config(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := rt.env.ConfigLoader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.ChromaHost = rt.opts.host
	}
	if flags.Changed("api-key") {
		cfg.ChromaAPIKey = rt.opts.apiKey
	}
	if flags.Changed("tenant") {
		cfg.ChromaTenant = rt.opts.tenant
	}
	if flags.Changed("database") {
		cfg.ChromaDatabase = rt.opts.database
	}
	if flags.Changed("tls") {
		cfg.ChromaUseTLS = rt.opts.useTLS
	}
	if flags.Changed("timeout") {
		cfg.ChromaTimeout = rt.opts.timeout
	}
	return cfg, nil
}

// logger returns a debug zap logger when --verbose is set and a no-op logger otherwise.
func (rt *runtime) logger() (logger.Logger, error) {
	if !rt.opts.verbose {
		return logger.NopLogger{}, nil
	}
	return logger.Init("debug")
}

// client builds a chroma client from the resolved configuration.
func (rt *runtime) client(cmd *cobra.Command) (*chroma.Client, error) {
	cfg, err := rt.config(cmd)
	if err != nil {
		return nil, err
	}
	log, err := rt.logger()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cc := cfg.ChromaConfiguration(log)
	if rt.opts.verbose {
		cc.LogLevel = chroma.LevelDebug
	}
	return rt.env.ClientFactory.NewClient(cc)
}
