package frontdaq

import (
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/parser/layout"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/snapshot"
)

// driveBusFields are the DriveBusData members both firmware revisions share, by name.
type driveBusFields struct {
	millis           layout.Field[uint32]
	bmsFaults        layout.Field[bool]
	implausibilities layout.Field[bool]
	hvVoltage        layout.Field[float32]
	lvVoltage        layout.Field[float32]
	batteryTemp      layout.Field[float32]
	maxDischarge     layout.Field[float32]
	maxRegen         layout.Field[float32]
	wheelSpeeds      layout.Field[float32]
	wheelDisp        layout.Field[float32]
	prStrain         layout.Field[float32]
	motorRPM         layout.Field[int16]
	motorCurrent     layout.Field[int16]
	dcVoltage        layout.Field[int16]
	dcCurrent        layout.Field[int16]
	driveState       layout.Field[uint8]
	bmsState         layout.Field[uint8]
	lvWarning        layout.Field[bool]
	cellTemps        layout.Field[float32]
	cellVoltages     layout.Field[float32]
}

func lookupDriveBus(l *layout.Layout) driveBusFields {
	return driveBusFields{
		millis:           layout.MustLookup[uint32](l, "millis"),
		bmsFaults:        layout.MustLookup[bool](l, "bms_faults"),
		implausibilities: layout.MustLookup[bool](l, "ecu_implausibilities"),
		hvVoltage:        layout.MustLookup[float32](l, "hv_voltage"),
		lvVoltage:        layout.MustLookup[float32](l, "lv_voltage"),
		batteryTemp:      layout.MustLookup[float32](l, "battery_temp"),
		maxDischarge:     layout.MustLookup[float32](l, "max_discharge_current"),
		maxRegen:         layout.MustLookup[float32](l, "max_regen_current"),
		wheelSpeeds:      layout.MustLookup[float32](l, "wheel_speeds"),
		wheelDisp:        layout.MustLookup[float32](l, "wheel_displacement"),
		prStrain:         layout.MustLookup[float32](l, "pr_strain"),
		motorRPM:         layout.MustLookup[int16](l, "motor_rpm"),
		motorCurrent:     layout.MustLookup[int16](l, "motor_current"),
		dcVoltage:        layout.MustLookup[int16](l, "dc_voltage"),
		dcCurrent:        layout.MustLookup[int16](l, "dc_current"),
		driveState:       layout.MustLookup[uint8](l, "drive_state"),
		bmsState:         layout.MustLookup[uint8](l, "bms_state"),
		lvWarning:        layout.MustLookup[bool](l, "lv_voltage_warning"),
		cellTemps:        layout.MustLookup[float32](l, "cell_temps"),
		cellVoltages:     layout.MustLookup[float32](l, "cell_voltages"),
	}
}

func (f *driveBusFields) decode(rec []byte, s *snapshot.Snapshot) {
	s.Time.TimeSinceStartup = f.millis.Get(rec)

	f.bmsFaults.Copy(rec, s.BMS.Faults[:])
	s.BMS.SoeBatVoltage = f.hvVoltage.Get(rec)
	s.BMS.SoeBatTemp = f.batteryTemp.Get(rec)
	s.BMS.SoeMaxDischargeCurrent = f.maxDischarge.Get(rec)
	s.BMS.SoeMaxRegenCurrent = f.maxRegen.Get(rec)
	s.BMS.BMSState = int32(f.bmsState.Get(rec))
	f.cellTemps.Copy(rec, s.BMS.CellTemps[:])
	f.cellVoltages.Copy(rec, s.BMS.CellVoltages[:])

	s.PDM.BatVoltage = f.lvVoltage.Get(rec)
	s.PDM.BatVoltageWarning = f.lvWarning.Get(rec)

	f.implausibilities.Copy(rec, s.ECU.Implausibilities[:])
	s.ECU.DriveState = int32(f.driveState.Get(rec))

	for i := range s.Corners {
		s.Corners[i].WheelSpeed = f.wheelSpeeds.At(rec, i)
		s.Corners[i].WheelDisplacement = f.wheelDisp.At(rec, i)
		s.Corners[i].PRStrain = f.prStrain.At(rec, i)
	}

	s.Inverter.RPM = float32(f.motorRPM.Get(rec))
	s.Inverter.MotorCurrent = float32(f.motorCurrent.Get(rec))
	s.Inverter.DCVoltage = float32(f.dcVoltage.Get(rec))
	s.Inverter.DCCurrent = float32(f.dcCurrent.Get(rec))
}

var fieldsV001 = lookupDriveBus(recordV001)

func decodeV001(rec []byte, s *snapshot.Snapshot) {
	fieldsV001.decode(rec, s)
}
