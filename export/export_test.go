package export

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	"go.viam.com/test"

	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/logfile"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/snapshot"
)

func testDB() *snapshot.DB {
	db := snapshot.NewDB(2)
	db.At(0).Time.TimeSinceStartup = 100
	db.At(0).Inverter.RPM = -250.5
	db.At(0).PDM.BatVoltageWarning = true
	db.At(1).Time.TimeSinceStartup = 110
	db.At(1).BMS.CellVoltages[139] = 3.5
	db.At(1).Dynamics.GPSLocation[0] = 42.0565
	return db
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	test.That(t, WriteCSV(&buf, testDB()), test.ShouldBeNil)

	rows, err := csv.NewReader(&buf).ReadAll()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rows, test.ShouldHaveLength, 3)
	test.That(t, rows[0], test.ShouldResemble, snapshot.Columns())

	col := func(name string) int {
		idx := lo.IndexOf(rows[0], name)
		test.That(t, idx, test.ShouldBeGreaterThanOrEqualTo, 0)
		return idx
	}
	test.That(t, rows[1][col("time.time_since_startup")], test.ShouldEqual, "100")
	test.That(t, rows[1][col("inverter.rpm")], test.ShouldEqual, "-250.5")
	test.That(t, rows[1][col("pdm.bat_voltage_warning")], test.ShouldEqual, "1")
	test.That(t, rows[2][col("bms.cell_voltages[139]")], test.ShouldEqual, "3.5")
	test.That(t, rows[2][col("dynamics.gps_location[0]")], test.ShouldEqual, "42.0565")
	test.That(t, rows[2][col("pdm.bat_voltage_warning")], test.ShouldEqual, "0")
}

func TestWriteFileCBOR(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.cbor.zst")
	test.That(t, WriteFile(path, FormatCBOR, "run.bin", "NFR25 v0.0.2", testDB()), test.ShouldBeNil)

	data, err := logfile.ReadAll(path)
	test.That(t, err, test.ShouldBeNil)
	doc, err := ReadCBOR(bytes.NewReader(data))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, doc.Source, test.ShouldEqual, "run.bin")
	test.That(t, doc.Version, test.ShouldEqual, "NFR25 v0.0.2")
	test.That(t, doc.Columns, test.ShouldResemble, snapshot.Columns())
	test.That(t, doc.Rows, test.ShouldHaveLength, 2)
	test.That(t, doc.Rows[1], test.ShouldResemble, snapshot.Values(testDB().At(1)))

	// Deterministic encoding.
	var a, b bytes.Buffer
	test.That(t, WriteCBOR(&a, "x", "y", testDB()), test.ShouldBeNil)
	test.That(t, WriteCBOR(&b, "x", "y", testDB()), test.ShouldBeNil)
	test.That(t, a.Bytes(), test.ShouldResemble, b.Bytes())
}

func TestWriteFileCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")
	test.That(t, WriteFile(path, FormatCSV, "run.bin", "", snapshot.NewDB(0)), test.ShouldBeNil)
	data, err := logfile.ReadAll(path)
	test.That(t, err, test.ShouldBeNil)
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rows, test.ShouldHaveLength, 1)

	test.That(t, WriteFile(filepath.Join(t.TempDir(), "x.bin"), Format("xml"), "", "", snapshot.NewDB(0)), test.ShouldNotBeNil)
}

func TestFormats(t *testing.T) {
	f, err := ParseFormat("CSV")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f, test.ShouldEqual, FormatCSV)
	f, err = ParseFormat("cbor")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.Ext(), test.ShouldEqual, ".cbor")
	_, err = ParseFormat("parquet")
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, OutputPath("out", "/logs/run_12.bin", FormatCSV, false), test.ShouldEqual, filepath.Join("out", "run_12.csv"))
	test.That(t, OutputPath("out", "/logs/run_12.bin.zst", FormatCBOR, true), test.ShouldEqual, filepath.Join("out", "run_12.cbor.zst"))
	test.That(t, OutputPath("out", "LOG", FormatCSV, false), test.ShouldEqual, filepath.Join("out", "LOG.csv"))
}
