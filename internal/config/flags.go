package config

import (
	"io"
	"time"

	"github.com/spf13/pflag"
)

// globalFlags are the options accepted before the command name:
//
//	-c, --config string       JSON configuration file
//	    --env-file string     dotenv file (default ".env")
//	-d, --dsn string          database DSN
//	    --secret-key string   token signing secret
//	    --token-ttl duration  lifetime of issued tokens
//	    --token-file string   session token location
//	    --log-level string    debug, info, warn, error
//
// Parsing stops at the first non-flag argument so that subcommand flags
// are left for the command layer.
type globalFlags struct {
	fs *pflag.FlagSet

	configFile string
	envFile    string
	dsn        string
	secretKey  string
	tokenTTL   time.Duration
	tokenFile  string
	logLevel   string
}

func newGlobalFlags() *globalFlags {
	g := &globalFlags{fs: pflag.NewFlagSet("crm", pflag.ContinueOnError)}
	g.fs.SetInterspersed(false)
	g.fs.SetOutput(io.Discard)

	g.fs.StringVarP(&g.configFile, "config", "c", "", "JSON configuration file")
	g.fs.StringVar(&g.envFile, "env-file", ".env", "dotenv file")
	g.fs.StringVarP(&g.dsn, "dsn", "d", "", "database DSN")
	g.fs.StringVar(&g.secretKey, "secret-key", "", "token signing secret")
	g.fs.DurationVar(&g.tokenTTL, "token-ttl", 0, "lifetime of issued tokens")
	g.fs.StringVar(&g.tokenFile, "token-file", "", "session token location")
	g.fs.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	return g
}

// parseFlags parses the global flags in args and returns the rest.
func parseFlags(args []string) (*globalFlags, []string, error) {
	g := newGlobalFlags()
	if err := g.fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return g, g.fs.Args(), nil
}

// apply copies explicitly set flags into cfg.
func (g *globalFlags) apply(cfg *Config) {
	if g.fs.Changed("dsn") {
		cfg.DatabaseDSN = g.dsn
	}
	if g.fs.Changed("secret-key") {
		cfg.SecretKey = g.secretKey
	}
	if g.fs.Changed("token-ttl") {
		cfg.TokenTTL = g.tokenTTL
	}
	if g.fs.Changed("token-file") {
		cfg.TokenFile = g.tokenFile
	}
	if g.fs.Changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
}

// Usage returns the global flag help text.
func Usage() string {
	return newGlobalFlags().fs.FlagUsages()
}
