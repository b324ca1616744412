package frontdaq

import (
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/parser/layout"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/snapshot"
)

// Record sizes as compiled by the front data-acquisition firmware.
const (
	RecordSizeV001 = 1004
	RecordSizeV002 = 2484
)

func scalars(kind layout.Kind, names ...string) []layout.Entry {
	out := make([]layout.Entry, 0, len(names))
	for _, name := range names {
		out = append(out, layout.Scalar(name, kind)...)
	}
	return out
}

func cells() []layout.Entry {
	return append(
		layout.Array("cell_temps", layout.Float32, snapshot.CellTempCount),
		layout.Array("cell_voltages", layout.Float32, snapshot.CellVoltageCount)...,
	)
}

var driveBusV001 = layout.MustNew("DriveBusData v0.0.1", 120,
	layout.Array("bms_faults", layout.Bool, snapshot.BMSFaultCount),
	layout.Array("ecu_implausibilities", layout.Bool, snapshot.ImplausibleCount),
	layout.Pad(3),
	scalars(layout.Float32,
		"hv_voltage", "lv_voltage", "battery_temp", "max_cell_temp", "min_cell_temp",
		"max_cell_voltage", "min_cell_voltage", "max_discharge_current", "max_regen_current", "soc"),
	layout.Array("wheel_speeds", layout.Float32, snapshot.CornerCount),
	layout.Array("wheel_displacement", layout.Float32, snapshot.CornerCount),
	layout.Array("pr_strain", layout.Float32, snapshot.CornerCount),
	layout.Scalar("bms_faults_raw", layout.Uint16),
	scalars(layout.Int16, "motor_rpm", "motor_current", "dc_voltage", "dc_current"),
	scalars(layout.Uint8, "drive_state", "bms_state", "imd_state", "inverter_status"),
	layout.Scalar("lv_voltage_warning", layout.Bool),
	layout.Pad(1),
)

var recordV001 = layout.MustNew("front daq v0.0.1", RecordSizeV001,
	layout.Scalar("millis", layout.Uint32),
	layout.Embed(driveBusV001),
	cells(),
)

var driveBusV002 = layout.MustNew("DriveBusData v0.0.2", 1600,
	layout.Array("bms_faults", layout.Bool, snapshot.BMSFaultCount),
	layout.Array("ecu_implausibilities", layout.Bool, snapshot.ImplausibleCount),
	layout.Pad(3),
	scalars(layout.Float32,
		"hv_voltage", "lv_voltage", "battery_temp", "max_cell_temp", "min_cell_temp",
		"max_cell_voltage", "min_cell_voltage", "max_discharge_current", "max_regen_current", "soc"),
	layout.Array("wheel_speeds", layout.Float32, snapshot.CornerCount),
	layout.Array("wheel_displacement", layout.Float32, snapshot.CornerCount),
	layout.Array("pr_strain", layout.Float32, snapshot.CornerCount),
	scalars(layout.Float32, "gen_amps", "fan_amps", "pump_amps"),
	layout.Scalar("bms_faults_raw", layout.Uint16),
	scalars(layout.Int16,
		"motor_rpm", "motor_current", "dc_voltage", "dc_current",
		"front_brake_pressure", "rear_brake_pressure", "apps1", "apps2"),
	scalars(layout.Uint16, "igbt_temp", "motor_temp"),
	scalars(layout.Uint8, "drive_state", "bms_state", "imd_state", "inverter_status", "bms_command"),
	scalars(layout.Bool, "brake_pressed", "lv_voltage_warning", "pdm_gen_efuse", "pdm_ac_efuse"),
	layout.Pad(1),
	scalars(layout.Uint32, "ah_drawn", "ah_charged", "wh_drawn", "wh_charged"),
	scalars(layout.Int32, "ecu_set_current", "ecu_set_current_brake"),
	layout.Scalar("pump_duty_cycle", layout.Uint8),
	layout.Pad(1),
	layout.Scalar("fan_duty_cycle", layout.Int16),
	layout.Scalar("active_aero_state", layout.Bool),
	layout.Pad(1),
	layout.Scalar("active_aero_position", layout.Int16),
	layout.Scalar("accel_lut_id_response", layout.Uint8),
	scalars(layout.Bool,
		"reset_gen_efuse", "reset_ac_efuse", "igbt_temp_limiting", "battery_temp_limiting", "motor_temp_limiting"),
	layout.Scalar("torque_status", layout.Uint8),
	layout.Pad(1),
	layout.Array("tire_temps", layout.Float32, 32),
	scalars(layout.Float32,
		"fl_speed", "fl_displacement", "fl_load",
		"fr_speed", "fr_displacement", "fr_load",
		"bl_speed", "bl_displacement", "bl_load",
		"br_speed", "br_displacement", "br_load"),
	scalars(layout.Uint8, "file_status", "num_lut_pairs", "interp_type", "lut_id"),
	// 30 (int16 x, 2 pad, float32 y) accelerator lookup table pairs.
	layout.Skip("accel_lut", 30*8),
	layout.Array("acceleration", layout.Float32, 3),
	layout.Array("angular_speed", layout.Float32, 3),
	layout.Array("air_speed", layout.Float32, snapshot.AirSpeedCount),
	scalars(layout.Float32,
		"before_motor_flow_rate", "before_accumulator_flow_rate",
		"before_motor_temperature", "before_accumulator_temperature"),
	layout.Scalar("time_since_1970", layout.Uint32),
	scalars(layout.Float32, "longitude", "latitude"),
	scalars(layout.Uint8, "wireless_status", "logger_status"),
	layout.Array("enable_responses", layout.Uint8, 10),
	layout.Array("board_statuses", layout.Uint8, 10),
	layout.Pad(2),
	layout.Scalar("steering_angle", layout.Float32),
	cells(),
)

// The v0.0.2 firmware appends a second copy of the cell arrays (DataBusData) after DriveBusData.
var recordV002 = layout.MustNew("front daq v0.0.2", RecordSizeV002,
	layout.Scalar("millis", layout.Uint32),
	layout.Embed(driveBusV002),
	layout.Skip("data_bus", 4*(snapshot.CellTempCount+snapshot.CellVoltageCount)),
)
