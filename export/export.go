// Package export writes decoded snapshots out as flat tables, one row per record and one column
// per snapshot field.
package export

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/logfile"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/snapshot"
)

// Format is an output encoding.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatCBOR Format = "cbor"
)

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatCSV, FormatCBOR:
		return f, nil
	default:
		return "", errors.Errorf("unknown export format %q (want %s or %s)", s, FormatCSV, FormatCBOR)
	}
}

// Ext is the file extension of the format, with the leading dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Document is the CBOR form of an export.
type Document struct {
	Source  string      `cbor:"source"`
	Version string      `cbor:"version"`
	Columns []string    `cbor:"columns"`
	Rows    [][]float64 `cbor:"rows"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	// Core Deterministic Encoding: the same records always produce the same bytes.
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("export: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("export: CBOR decoder initialization failed: " + err.Error())
	}
}

// WriteCSV writes a header of snapshot.Columns followed by one row per record.
func WriteCSV(w io.Writer, db *snapshot.DB) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(snapshot.Columns()); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	for i := 0; i < db.Len(); i++ {
		row := lo.Map(snapshot.Values(db.At(i)), func(v float64, _ int) string {
			return strconv.FormatFloat(v, 'g', -1, 64)
		})
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "writing csv row %d", i)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}

// WriteCBOR writes db as a single Document.
func WriteCBOR(w io.Writer, source, version string, db *snapshot.DB) error {
	doc := Document{
		Source:  source,
		Version: version,
		Columns: snapshot.Columns(),
		Rows:    make([][]float64, db.Len()),
	}
	for i := range doc.Rows {
		doc.Rows[i] = snapshot.Values(db.At(i))
	}
	return errors.Wrap(encMode.NewEncoder(w).Encode(doc), "writing cbor")
}

// ReadCBOR reads a Document written by WriteCBOR.
func ReadCBOR(r io.Reader) (*Document, error) {
	var doc Document
	if err := decMode.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "reading cbor")
	}
	return &doc, nil
}

// OutputPath names the export of input inside dir: the input's base name with its extensions
// replaced by the format's, plus ".zst" when compress is set.
func OutputPath(dir, input string, format Format, compress bool) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, logfile.ZstdExt)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	name := base + format.Ext()
	if compress {
		name += logfile.ZstdExt
	}
	return filepath.Join(dir, name)
}

// WriteFile exports db to path in format. Paths ending in ".zst" are compressed.
func WriteFile(path string, format Format, source, version string, db *snapshot.DB) (err error) {
	w, err := logfile.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, w.Close())
	}()

	switch format {
	case FormatCSV:
		return WriteCSV(w, db)
	case FormatCBOR:
		return WriteCBOR(w, source, version, db)
	default:
		return errors.Errorf("unknown export format %q", format)
	}
}
