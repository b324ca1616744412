package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/export"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/logfile"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/parser"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/parsers/register"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/parsers/telemdaq"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/snapshot"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/telem"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/utils"
)

func (a *daqApp) printf(c *cli.Context, format string, args ...interface{}) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	//nolint:errcheck
	fmt.Fprintf(c.App.Writer, format+"\n", args...)
}

func (a *daqApp) parsersAction(c *cli.Context) error {
	reg := register.NewRegistry(a.logger)
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Version", "Description"})
	for _, v := range reg.Versions() {
		t.AppendRow(table.Row{v, reg.Lookup(v).Description})
	}
	a.printf(c, "%s", t.Render())
	return nil
}

func (a *daqApp) inspectAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("no log given")
	}
	reg := register.NewRegistry(a.logger)
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Log", "Size", "Header", "Decoder"})
	for _, path := range c.Args().Slice() {
		info, err := os.Stat(path)
		if err != nil {
			return errors.Wrapf(err, "inspecting %s", path)
		}
		size := humanize.Bytes(uint64(info.Size()))
		if logfile.IsCompressed(path) {
			size += " compressed"
		}

		header, versioned, err := parser.ReadHeader(path)
		if err != nil {
			t.AppendRow(table.Row{path, size, err.Error(), "-"})
			continue
		}
		headerText := header.String()
		if !versioned {
			headerText = "none"
		}
		decoder := "-"
		if resolved, _, err := reg.Resolve(header); err == nil {
			decoder = resolved.String()
		}
		t.AppendRow(table.Row{path, size, headerText, decoder})
	}
	a.printf(c, "%s", t.Render())
	return nil
}

func (a *daqApp) schemaAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("no log given")
	}
	raw, err := logfile.ReadAll(path)
	if err != nil {
		return err
	}
	cfg, dataOffset, err := telemdaq.Schema(raw)
	if err != nil {
		return errors.Wrapf(err, "reading schema of %s", path)
	}

	optionKeys := lo.Keys(cfg.Options)
	sort.Strings(optionKeys)
	for _, k := range optionKeys {
		a.printf(c, "%s = %v", k, cfg.Options[k])
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Board", "Message", "ID", "Signal", "Type", "Bits", "Factor", "Offset", "Enums"})
	for _, b := range cfg.Boards {
		for _, m := range b.Messages {
			for _, s := range m.Signals {
				enums := make([]string, len(s.Enums))
				for i, e := range s.Enums {
					enums[i] = fmt.Sprintf("%s=%d", e.Name, e.RawValue)
				}
				typ := s.DataType
				if s.Endianness == telem.BigEndian {
					typ += " big"
				}
				t.AppendRow(table.Row{
					b.Name, m.Name, fmt.Sprintf("0x%03X", m.ID), s.Name, typ,
					fmt.Sprintf("%d+%d", s.StartBit, s.Length), s.Factor, s.Offset, strings.Join(enums, " "),
				})
			}
		}
	}
	a.printf(c, "%s", t.Render())

	recordLen := telemdaq.RecordTimeLen + cfg.TotalBytes()
	a.printf(c, "%d boards, %d signals, %d byte records, %s records",
		len(cfg.Boards), len(cfg.Keys()), recordLen,
		humanize.Comma(int64((len(raw)-dataOffset)/recordLen)))
	return nil
}

type transformOptions struct {
	outDir   string
	format   export.Format
	compress bool
	forced   *parser.Version
}

func (a *daqApp) transformAction(c *cli.Context) error {
	input := c.Args().First()
	if input == "" {
		return errors.New("no log file or directory given")
	}
	format, err := export.ParseFormat(c.String(flagFormat))
	if err != nil {
		return err
	}
	opts := transformOptions{outDir: c.String(flagOut), format: format, compress: c.Bool(flagCompress)}
	if s := c.String(flagVersion); s != "" {
		v, err := parser.ParseVersion(s)
		if err != nil {
			return err
		}
		opts.forced = &v
	}

	inputs, err := listLogs(input)
	if err != nil {
		return err
	}
	if err := checkOutputs(inputs, opts); err != nil {
		return err
	}
	if err := os.MkdirAll(opts.outDir, 0o750); err != nil {
		return errors.Wrapf(err, "creating %s", opts.outDir)
	}

	reg := register.NewRegistry(a.logger)
	var records atomic.Int64
	fs := make([]utils.SimpleFunc, len(inputs))
	for i, path := range inputs {
		path := path
		fs[i] = func(ctx context.Context) error {
			n, err := a.transformFile(ctx, c, reg, path, opts)
			records.Add(int64(n))
			return err
		}
	}
	elapsed, err := utils.RunInParallel(c.Context, fs)
	if err != nil {
		return err
	}
	a.logger.Infow("transform done", "logs", len(inputs), "records", records.Load(), "elapsed", elapsed)
	return nil
}

func (a *daqApp) transformFile(
	ctx context.Context,
	c *cli.Context,
	reg *parser.Registry,
	path string,
	opts transformOptions,
) (int, error) {
	var (
		db       *snapshot.DB
		resolved parser.Version
		err      error
	)
	if opts.forced != nil {
		db, resolved, err = reg.ParseAs(ctx, path, *opts.forced)
	} else {
		db, resolved, err = reg.Parse(ctx, path)
	}
	if err != nil {
		return 0, err
	}

	out := export.OutputPath(opts.outDir, path, opts.format, opts.compress)
	if err := export.WriteFile(out, opts.format, path, resolved.String(), db); err != nil {
		return 0, errors.Wrapf(err, "exporting %s", path)
	}
	a.printf(c, "%s -> %s (%s, %s records)", path, out, resolved, humanize.Comma(int64(db.Len())))
	return db.Len(), nil
}

// checkOutputs fails when two inputs would be exported to the same file.
func checkOutputs(inputs []string, opts transformOptions) error {
	owners := make(map[string]string, len(inputs))
	for _, in := range inputs {
		out := export.OutputPath(opts.outDir, in, opts.format, opts.compress)
		if other, ok := owners[out]; ok {
			return errors.Errorf("%s and %s would both be exported to %s", other, in, out)
		}
		owners[out] = in
	}
	return nil
}

// listLogs returns input itself, or the regular files directly inside it when input is a
// directory.
func listLogs(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", input)
	}
	if !info.IsDir() {
		return []string{input}, nil
	}
	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", input)
	}
	var logs []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			logs = append(logs, filepath.Join(input, e.Name()))
		}
	}
	if len(logs) == 0 {
		return nil, errors.Errorf("no log files in %s", input)
	}
	return logs, nil
}
