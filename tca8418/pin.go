package tca8418

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "Input"
	case Output:
		return "Output"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// DigitalIO is a single digital input/output line
type DigitalIO interface {
	ReadValue() (bool, error)
	WriteValue(value bool) error
	SetDirection(dir Direction) error
	SetPull(pull gpio.Pull) error
}

// Pin is one GPIO pin of a Device. It implements DigitalIO and gpio.PinIO.
type Pin struct {
	dev    *Device
	number int
}

var (
	_ DigitalIO  = &Pin{}
	_ gpio.PinIO = &Pin{}
)

// ReadValue returns the level of the pin, also for output pins
func (p *Pin) ReadValue() (bool, error) {
	return p.dev.InputValue.Get(p.number)
}

// WriteValue sets the output latch. Only visible on the pin, if the direction is Output.
func (p *Pin) WriteValue(value bool) error {
	return p.dev.OutputValue.Set(p.number, value)
}

func (p *Pin) SetDirection(dir Direction) error {
	switch dir {
	case Input, Output:
	default:
		return fmt.Errorf("Expected Input or Output direction, got %v", dir)
	}
	return p.dev.GpioDirection.Set(p.number, dir == Output)
}

// Direction reads the current direction of the pin from the device
func (p *Pin) Direction() (Direction, error) {
	output, err := p.dev.GpioDirection.Get(p.number)
	if err != nil || !output {
		return Input, err
	}
	return Output, nil
}

// SetPull accepts gpio.PullUp, gpio.Float (pull-up disabled) and gpio.PullNoChange,
// which leaves the pull-up untouched as usual for periph.io pins.
func (p *Pin) SetPull(pull gpio.Pull) error {
	switch pull {
	case gpio.PullUp:
		return p.dev.Pullup.Set(p.number, true)
	case gpio.Float:
		return p.dev.Pullup.Set(p.number, false)
	case gpio.PullNoChange:
		return nil
	default:
		return errors.Wrapf(ErrUnsupportedPull, "pin %v: %v", p.Name(), pull)
	}
}

func (p *Pin) GetPull() (gpio.Pull, error) {
	up, err := p.dev.Pullup.Get(p.number)
	if err != nil {
		return gpio.PullNoChange, err
	}
	if up {
		return gpio.PullUp, nil
	}
	return gpio.Float, nil
}

func (p *Pin) SwitchToOutput(value bool) error {
	if err := p.SetDirection(Output); err != nil {
		return err
	}
	return p.WriteValue(value)
}

func (p *Pin) SwitchToInput(pull gpio.Pull) error {
	if err := p.SetDirection(Input); err != nil {
		return err
	}
	return p.SetPull(pull)
}

// ============== gpio.PinIO

func (p *Pin) Name() string {
	return PinName(p.number)
}

func (p *Pin) Number() int {
	return p.number
}

func (p *Pin) String() string {
	return fmt.Sprintf("TCA8418(%#02x) %v", p.dev.Addr, p.Name())
}

func (p *Pin) Halt() error {
	return nil
}

func (p *Pin) Function() string {
	dir, err := p.Direction()
	if err != nil {
		log.Errorf("%v: failed to read direction: %v", p, err)
		return "Unknown"
	}
	if dir == Output {
		return "Out"
	}
	return "In"
}

// In switches to input. Edge detection uses the GPI interrupt of the pin, BothEdges is not supported.
func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	if err := p.SwitchToInput(pull); err != nil {
		return err
	}
	switch edge {
	case gpio.NoEdge:
		return p.dev.EnableInt.Set(p.number, false)
	case gpio.RisingEdge, gpio.FallingEdge:
		if err := p.dev.IntOnRising.Set(p.number, edge == gpio.RisingEdge); err != nil {
			return err
		}
		return p.dev.EnableInt.Set(p.number, true)
	default:
		return fmt.Errorf("%v: edge %v is not supported", p, edge)
	}
}

func (p *Pin) Read() gpio.Level {
	val, err := p.ReadValue()
	if err != nil {
		log.Errorf("%v: failed to read value: %v", p, err)
		return gpio.Low
	}
	return gpio.Level(val)
}

// WaitForEdge polls the GPIO interrupt status of the pin. A negative timeout waits forever.
// Reading the status also clears the interrupt status of the other pins in the same register.
func (p *Pin) WaitForEdge(timeout time.Duration) bool {
	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		triggered, err := p.dev.GpioIntStatus.Get(p.number)
		if err != nil {
			log.Errorf("%v: failed to read interrupt status: %v", p, err)
			return false
		}
		if triggered {
			return true
		}
		if timeout >= 0 && !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(DefaultPollInterval)
	}
}

func (p *Pin) Pull() gpio.Pull {
	pull, err := p.GetPull()
	if err != nil {
		log.Errorf("%v: failed to read pull: %v", p, err)
	}
	return pull
}

func (p *Pin) DefaultPull() gpio.Pull {
	return gpio.PullUp
}

func (p *Pin) Out(l gpio.Level) error {
	return p.SwitchToOutput(bool(l))
}

func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return errors.New("tca8418: PWM is not supported")
}
