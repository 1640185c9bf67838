package robot

import (
	"go.viam.com/beaconbot/board"
	"go.viam.com/beaconbot/config"
	"go.viam.com/beaconbot/serial"
	"go.viam.com/beaconbot/sim"
)

// Model names.
const (
	ModelGPIO    = "gpio"
	ModelFake    = "fake"
	ModelSerial  = "serial"
	ModelConsole = "console"
)

func init() {
	config.RegisterModel(config.SectionActuator, ModelGPIO, func() config.Validator {
		return &board.PWMMotorConfig{}
	})
	config.RegisterModel(config.SectionActuator, ModelFake, nil)

	config.RegisterModel(config.SectionCapture, ModelGPIO, func() config.Validator {
		return &board.PulseCaptureConfig{}
	})
	config.RegisterModel(config.SectionCapture, config.SimModel, func() config.Validator {
		conf := sim.DefaultConfig()
		return &conf
	})

	config.RegisterModel(config.SectionFrames, ModelSerial, func() config.Validator {
		return &serial.ReaderConfig{}
	})
	config.RegisterModel(config.SectionFrames, config.SimModel, nil)

	config.RegisterModel(config.SectionDisplay, ModelConsole, nil)

	config.RegisterModel(config.SectionIndicator, ModelGPIO, func() config.Validator {
		return &board.LEDIndicatorConfig{}
	})
	config.RegisterModel(config.SectionIndicator, ModelConsole, nil)
}
