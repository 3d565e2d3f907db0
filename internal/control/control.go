// Package control defines the contract of the control collaborator the main
// loop drives, and provides a simulated implementation for running the
// daemon without hardware. Real GPIO/sensor backed implementations live
// outside this repository and plug in through the Service interface.
package control

import "terrariumd/pkg/types"

// Status reports the collaborator's view of the system it controls.
type Status struct {
	Initialized bool           `json:"initialized"`
	Running     bool           `json:"running"`
	Updates     uint64         `json:"updates"`
	Detail      map[string]any `json:"detail,omitempty"`
}

// Service is the control collaborator contract. The main loop calls Update
// once per cycle and SensorData to feed the safety service; everything
// behind these methods (drivers, actuators, pin wiring) is the
// implementation's business.
type Service interface {
	Initialize() error
	Start() error
	Stop()
	Update() error
	SensorData() (types.SensorSnapshot, error)
	SystemStatus() Status
}
