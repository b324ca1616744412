package frontdaq

import (
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/parser/layout"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/snapshot"
)

type cornerFields struct {
	speed        layout.Field[float32]
	displacement layout.Field[float32]
}

var fieldsV002 = struct {
	driveBusFields

	genAmps, fanAmps, pumpAmps layout.Field[float32]
	frontBrake, rearBrake      layout.Field[int16]
	apps1, apps2               layout.Field[int16]
	igbtTemp, motorTemp        layout.Field[uint16]
	ahDrawn, ahCharged         layout.Field[uint32]
	whDrawn, whCharged         layout.Field[uint32]
	brakePressed               layout.Field[bool]
	genEfuse                   layout.Field[bool]
	corners                    [snapshot.CornerCount]cornerFields
	accel                      layout.Field[float32]
	airSpeed                   layout.Field[float32]
	motorFlow                  layout.Field[float32]
	motorCoolant, accumCoolant layout.Field[float32]
	unixTime                   layout.Field[uint32]
	longitude, latitude        layout.Field[float32]
	steeringAngle              layout.Field[float32]
}{
	driveBusFields: lookupDriveBus(recordV002),

	genAmps:      layout.MustLookup[float32](recordV002, "gen_amps"),
	fanAmps:      layout.MustLookup[float32](recordV002, "fan_amps"),
	pumpAmps:     layout.MustLookup[float32](recordV002, "pump_amps"),
	frontBrake:   layout.MustLookup[int16](recordV002, "front_brake_pressure"),
	rearBrake:    layout.MustLookup[int16](recordV002, "rear_brake_pressure"),
	apps1:        layout.MustLookup[int16](recordV002, "apps1"),
	apps2:        layout.MustLookup[int16](recordV002, "apps2"),
	igbtTemp:     layout.MustLookup[uint16](recordV002, "igbt_temp"),
	motorTemp:    layout.MustLookup[uint16](recordV002, "motor_temp"),
	ahDrawn:      layout.MustLookup[uint32](recordV002, "ah_drawn"),
	ahCharged:    layout.MustLookup[uint32](recordV002, "ah_charged"),
	whDrawn:      layout.MustLookup[uint32](recordV002, "wh_drawn"),
	whCharged:    layout.MustLookup[uint32](recordV002, "wh_charged"),
	brakePressed: layout.MustLookup[bool](recordV002, "brake_pressed"),
	genEfuse:     layout.MustLookup[bool](recordV002, "pdm_gen_efuse"),
	corners: [snapshot.CornerCount]cornerFields{
		snapshot.FrontLeft:  lookupCorner(recordV002, "fl"),
		snapshot.FrontRight: lookupCorner(recordV002, "fr"),
		snapshot.BackLeft:   lookupCorner(recordV002, "bl"),
		snapshot.BackRight:  lookupCorner(recordV002, "br"),
	},
	accel:         layout.MustLookup[float32](recordV002, "acceleration"),
	airSpeed:      layout.MustLookup[float32](recordV002, "air_speed"),
	motorFlow:     layout.MustLookup[float32](recordV002, "before_motor_flow_rate"),
	motorCoolant:  layout.MustLookup[float32](recordV002, "before_motor_temperature"),
	accumCoolant:  layout.MustLookup[float32](recordV002, "before_accumulator_temperature"),
	unixTime:      layout.MustLookup[uint32](recordV002, "time_since_1970"),
	longitude:     layout.MustLookup[float32](recordV002, "longitude"),
	latitude:      layout.MustLookup[float32](recordV002, "latitude"),
	steeringAngle: layout.MustLookup[float32](recordV002, "steering_angle"),
}

func lookupCorner(l *layout.Layout, prefix string) cornerFields {
	return cornerFields{
		speed:        layout.MustLookup[float32](l, prefix+"_speed"),
		displacement: layout.MustLookup[float32](l, prefix+"_displacement"),
	}
}

func boolToFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func decodeV002(rec []byte, s *snapshot.Snapshot) {
	f := &fieldsV002
	f.driveBusFields.decode(rec, s)

	s.Time.UnixTime = f.unixTime.Get(rec)

	// DriveBusData's wheelDisplacement array is the raw sensor reading; the corner boards report
	// the calibrated displacement.
	for i := range s.Corners {
		c := &s.Corners[i]
		c.RawSusDisplacement = f.wheelDisp.At(rec, i)
		c.WheelSpeed = f.corners[i].speed.Get(rec)
		c.WheelDisplacement = f.corners[i].displacement.Get(rec)
	}

	s.PDM.GenAmps = f.genAmps.Get(rec)
	s.PDM.FanAmps = f.fanAmps.Get(rec)
	s.PDM.PumpAmps = f.pumpAmps.Get(rec)
	s.PDM.GenEfuseTriggered = f.genEfuse.Get(rec)

	s.ECU.BrakePressures[0] = float32(f.frontBrake.Get(rec))
	s.ECU.BrakePressures[1] = float32(f.rearBrake.Get(rec))
	s.ECU.AppsPositions[0] = float32(f.apps1.Get(rec))
	s.ECU.AppsPositions[1] = float32(f.apps2.Get(rec))
	s.ECU.BrakePressed = boolToFloat(f.brakePressed.Get(rec))

	s.Inverter.IGBTTemp = float32(f.igbtTemp.Get(rec))
	s.Inverter.MotorTemp = float32(f.motorTemp.Get(rec))
	s.Inverter.AhDrawn = float32(f.ahDrawn.Get(rec))
	s.Inverter.AhCharged = float32(f.ahCharged.Get(rec))
	s.Inverter.WhDrawn = float32(f.whDrawn.Get(rec))
	s.Inverter.WhCharged = float32(f.whCharged.Get(rec))

	f.accel.Copy(rec, s.Dynamics.IMU.Accel[:])
	f.airSpeed.Copy(rec, s.Dynamics.AirSpeed[:])
	s.Dynamics.CoolantFlow = f.motorFlow.Get(rec)
	s.Dynamics.CoolantTemps[0] = f.motorCoolant.Get(rec)
	s.Dynamics.CoolantTemps[1] = f.accumCoolant.Get(rec)
	s.Dynamics.GPSLocation[0] = float64(f.latitude.Get(rec))
	s.Dynamics.GPSLocation[1] = float64(f.longitude.Get(rec))
	s.Dynamics.SteeringAngle = f.steeringAngle.Get(rec)
}
