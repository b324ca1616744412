// Package cli contains the daq command line tool.
package cli

import (
	"io"
	"sync"

	"github.com/urfave/cli/v2"

	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/export"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/logging"
)

const (
	// Flags.
	flagDebug    = "debug"
	flagLogLevel = "log-level"
	flagLogFile  = "log-file"
	flagOut      = "out"
	flagFormat   = "format"
	flagVersion  = "version"
	flagCompress = "compress"
)

// daqApp holds the state shared by every command of one invocation.
type daqApp struct {
	logger   logging.Logger
	closeLog func() error

	outMu sync.Mutex
}

func (a *daqApp) before(c *cli.Context) error {
	if c.Bool(flagDebug) {
		a.logger = logging.NewDebugLogger("daq")
	} else {
		level, err := logging.LevelFromString(c.String(flagLogLevel))
		if err != nil {
			return err
		}
		a.logger = logging.NewLogger("daq")
		a.logger.SetLevel(level)
	}
	if path := c.String(flagLogFile); path != "" {
		appender, closeLog := logging.NewFileAppender(logging.FileAppenderConfig{
			Filename:   path,
			MaxSizeMB:  50,
			MaxBackups: 3,
		})
		a.logger.AddAppender(appender)
		a.closeLog = closeLog
	}
	logging.ReplaceGlobal(a.logger)
	return nil
}

func (a *daqApp) after(c *cli.Context) error {
	if a.logger != nil {
		//nolint:errcheck
		a.logger.Sync()
	}
	if a.closeLog != nil {
		return a.closeLog()
	}
	return nil
}

// NewApp returns the daq application writing command output to out and errors to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	a := &daqApp{}
	return &cli.App{
		Name:            "daq",
		Usage:           "decode Northwestern Formula Racing data-acquisition logs",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging, same as --log-level debug",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "minimum log level: debug, info, warn or error",
				Value: "info",
			},
			&cli.StringFlag{
				Name:      flagLogFile,
				Usage:     "also write json logs to `FILE`, rotated as it grows",
				TakesFile: true,
			},
		},
		Before: a.before,
		After:  a.after,
		Commands: []*cli.Command{
			{
				Name:   "parsers",
				Usage:  "list the log versions this tool can decode",
				Action: a.parsersAction,
			},
			{
				Name:      "inspect",
				Usage:     "show the version header of logs and the decoder each resolves to",
				ArgsUsage: "<log> [log...]",
				Action:    a.inspectAction,
			},
			{
				Name:      "schema",
				Usage:     "print the telemetry schema embedded in a log",
				ArgsUsage: "<log>",
				Action:    a.schemaAction,
			},
			{
				Name:  "transform",
				Usage: "decode logs and export the snapshots",
				Description: `Decode a log file, or every file of a directory, and write one export per log.

Logs written before version headers existed must be given a version explicitly:
daq transform --out exports --version 0.0.1 old_run.bin`,
				ArgsUsage: "<log file or directory>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagOut,
						Usage:    "directory to write exports to",
						Required: true,
					},
					&cli.StringFlag{
						Name:  flagFormat,
						Usage: "export format, " + string(export.FormatCSV) + " or " + string(export.FormatCBOR),
						Value: string(export.FormatCSV),
					},
					&cli.StringFlag{
						Name:  flagVersion,
						Usage: "decode as this version instead of reading the header, e.g. \"0.0.2\" or \"NFR25 v0.0.2\"",
					},
					&cli.BoolFlag{
						Name:  flagCompress,
						Usage: "zstd compress the exports",
					},
				},
				Action: a.transformAction,
			},
		},
	}
}
