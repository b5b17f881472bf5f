package cli

import (
	"fmt"

	"github.com/mchmarny/celleval/pkg/auth"
	"github.com/mchmarny/celleval/pkg/config"
	"github.com/urfave/cli/v3"
)

// Flag names. Flags hold parse state, so every command builds its own instances.
const (
	flagDebug          = "debug"
	flagLogLevel       = "log-level"
	flagFormat         = "format"
	flagConfig         = "config"
	flagTrue           = "true"
	flagGenerated      = "generated"
	flagOut            = "out"
	flagAttempts       = "attempts"
	flagArrow          = "arrow"
	flagMetricsFile    = "metrics-file"
	flagDB             = "db"
	flagLabel          = "label"
	flagAllowUndefined = "allow-undefined"
	flagQuiet          = "quiet"
	flagToken          = "token"
	flagIn             = "in"
	flagIndex          = "index"
	flagLimit          = "limit"
	flagID             = "id"
	flagDelete         = "delete"
	flagPath           = "path"
	flagForce          = "force"
)

func envVars(name string) cli.ValueSourceChain {
	return cli.EnvVars(envPrefix + name)
}

func configFileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    flagConfig,
		Aliases: []string{"c"},
		Usage:   "Path to the YAML run config (optional)",
		Sources: envVars("CONFIG"),
	}
}

// runFlags are the settings a run config file can also carry.
func runFlags() []cli.Flag {
	return []cli.Flag{
		configFileFlag(),
		&cli.StringFlag{
			Name:    flagTrue,
			Usage:   "True collection (path, http(s):// or s3:// URI)",
			Sources: envVars("TRUE"),
		},
		&cli.StringFlag{
			Name:    flagGenerated,
			Aliases: []string{"gen"},
			Usage:   "Generated collection (path, http(s):// or s3:// URI)",
			Sources: envVars("GENERATED"),
		},
		&cli.StringFlag{
			Name:    flagOut,
			Aliases: []string{"o"},
			Usage:   fmt.Sprintf("Result table CSV path (default: %s)", config.DefaultOutput),
			Sources: envVars("OUTPUT"),
		},
		&cli.IntFlag{
			Name:    flagAttempts,
			Aliases: []string{"k"},
			Usage:   fmt.Sprintf("Generation attempts per structure (default: %d)", config.DefaultAttempts),
			Sources: envVars("ATTEMPTS"),
		},
		&cli.StringFlag{
			Name:    flagArrow,
			Usage:   "Also write the result table as an Arrow IPC file (optional)",
			Sources: envVars("ARROW"),
		},
		metricsFileFlag(),
		dbFlag(),
		labelFlag(),
	}
}

func metricsFileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    flagMetricsFile,
		Usage:   "Write scores as a Prometheus textfile (optional)",
		Sources: envVars("METRICS_FILE"),
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    flagDB,
		Usage:   "Run history database, sqlite path or postgres:// DSN",
		Sources: envVars("DB"),
	}
}

func labelFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    flagLabel,
		Usage:   "Run label",
		Sources: envVars("LABEL"),
	}
}

func allowUndefinedFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  flagAllowUndefined,
		Usage: "Exit zero even when some metrics are undefined",
	}
}

func tokenFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  flagToken,
		Usage: fmt.Sprintf("Bearer token for http(s) sources (default: $%s or stored token)", auth.TokenEnvVar),
	}
}

func inFlag(usage string) cli.Flag {
	return &cli.StringFlag{
		Name:    flagIn,
		Aliases: []string{"i"},
		Usage:   usage,
	}
}

func runIDFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  flagID,
		Usage: "Run ID",
	}
}
