// Package register builds the registry of every log decoder this module ships.
package register

import (
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/logging"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/parser"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/parsers/frontdaq"
	"github.com/merc-cyy/Northwestern-Formula-Racing-Telemetry/parsers/telemdaq"
)

// All adds every known decoder to reg.
func All(reg *parser.Registry) {
	frontdaq.Register(reg)
	telemdaq.Register(reg)
}

// NewRegistry returns a registry holding every known decoder.
func NewRegistry(logger logging.Logger) *parser.Registry {
	reg := parser.NewRegistry(logger)
	All(reg)
	return reg
}
