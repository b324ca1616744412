// Package snapshot defines the fixed-shape record every decoder produces, one per logged frame.
package snapshot

// Array sizes of the snapshot.
const (
	CornerCount      = 4
	AirSpeedCount    = 8
	CoolantTempCount = 2
	CellTempCount    = 80
	CellVoltageCount = 140
	BMSFaultCount    = 8
	APPSCount        = 2
	BrakeCount       = 2
	ImplausibleCount = 5
)

// Corner indices.
const (
	FrontLeft = iota
	FrontRight
	BackLeft
	BackRight
)

// Time holds the clocks of a frame.
type Time struct {
	TimeSinceStartup uint32 `snap:"time_since_startup"`
	UnixTime         uint32 `snap:"unix_time"`
	Hour             uint8  `snap:"hour"`
	Minute           uint8  `snap:"minute"`
	Second           uint8  `snap:"second"`
	Millis           uint16 `snap:"millis"`
}

// Corner holds the per-wheel measurements.
type Corner struct {
	WheelSpeed         float32 `snap:"wheel_speed"`
	RawSusDisplacement float32 `snap:"raw_sus_displacement"`
	WheelDisplacement  float32 `snap:"wheel_displacement"`
	PRStrain           float32 `snap:"pr_strain"`
}

// IMU is indexed x, y, z.
type IMU struct {
	Accel       [3]float32 `snap:"accel"`
	Vel         [3]float32 `snap:"vel"`
	Pos         [3]float32 `snap:"pos"`
	Orientation [3]float32 `snap:"orientation"`
}

// Dynamics holds vehicle-level motion and cooling. GPSLocation is latitude, longitude.
type Dynamics struct {
	AirSpeed      [AirSpeedCount]float32    `snap:"air_speed"`
	CoolantTemps  [CoolantTempCount]float32 `snap:"coolant_temps"`
	CoolantFlow   float32                   `snap:"coolant_flow"`
	SteeringAngle float32                   `snap:"steering_angle"`
	IMU           IMU                       `snap:"imu"`
	GPSLocation   [2]float64                `snap:"gps_location"`
}

// BMS is the battery management system state.
type BMS struct {
	CellTemps              [CellTempCount]float32    `snap:"cell_temps"`
	CellVoltages           [CellVoltageCount]float32 `snap:"cell_voltages"`
	SoeMaxDischargeCurrent float32                   `snap:"soe_max_discharge_current"`
	SoeMaxRegenCurrent     float32                   `snap:"soe_max_regen_current"`
	SoeBatTemp             float32                   `snap:"soe_bat_temp"`
	SoeBatVoltage          float32                   `snap:"soe_bat_voltage"`
	SoeBatCurrent          float32                   `snap:"soe_bat_current"`
	Faults                 [BMSFaultCount]bool       `snap:"faults"`
	BMSState               int32                     `snap:"bms_state"`
}

// PDM is the power distribution module state.
type PDM struct {
	GenAmps            float32 `snap:"gen_amps"`
	FanAmps            float32 `snap:"fan_amps"`
	PumpAmps           float32 `snap:"pump_amps"`
	BatVoltage         float32 `snap:"bat_voltage"`
	BatVoltageWarning  bool    `snap:"bat_voltage_warning"`
	GenEfuseTriggered  bool    `snap:"gen_efuse_triggered"`
	FanEfuseTriggered  bool    `snap:"fan_efuse_triggered"`
	PumpEfuseTriggered bool    `snap:"pump_efuse_triggered"`
}

// Inverter is the motor controller state.
type Inverter struct {
	RPM          float32 `snap:"rpm"`
	MotorCurrent float32 `snap:"motor_current"`
	DCVoltage    float32 `snap:"dc_voltage"`
	DCCurrent    float32 `snap:"dc_current"`
	IGBTTemp     float32 `snap:"igbt_temp"`
	MotorTemp    float32 `snap:"motor_temp"`
	AhDrawn      float32 `snap:"ah_drawn"`
	AhCharged    float32 `snap:"ah_charged"`
	WhDrawn      float32 `snap:"wh_drawn"`
	WhCharged    float32 `snap:"wh_charged"`
	FaultCode    float32 `snap:"fault_code"`
}

// ECU is the vehicle control unit state.
type ECU struct {
	AppsPositions    [APPSCount]float32     `snap:"apps_positions"`
	BrakePressures   [BrakeCount]float32    `snap:"brake_pressures"`
	BrakePressed     float32                `snap:"brake_pressed"`
	DriveState       int32                  `snap:"drive_state"`
	Implausibilities [ImplausibleCount]bool `snap:"implausibilities"`
}

// Snapshot is one decoded frame of the whole car.
type Snapshot struct {
	Time     Time                `snap:"time"`
	Corners  [CornerCount]Corner `snap:"corners"`
	Dynamics Dynamics            `snap:"dynamics"`
	BMS      BMS                 `snap:"bms"`
	PDM      PDM                 `snap:"pdm"`
	Inverter Inverter            `snap:"inverter"`
	ECU      ECU                 `snap:"ecu"`
}

// DB is a pre-sized arena of snapshots indexed by record position. Decoders allocate it once per
// file and write record i only into At(i), so disjoint index ranges can be filled concurrently.
type DB struct {
	records []Snapshot
}

// NewDB allocates n zeroed snapshots.
func NewDB(n int) *DB {
	if n < 0 {
		n = 0
	}
	return &DB{records: make([]Snapshot, n)}
}

// Len is the number of records.
func (db *DB) Len() int {
	return len(db.records)
}

// At returns the i-th record.
func (db *DB) At(i int) *Snapshot {
	return &db.records[i]
}

// Records returns the backing slice.
func (db *DB) Records() []Snapshot {
	return db.records
}
