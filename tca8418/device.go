// Package tca8418 drives the TI TCA8418 I2C keypad scan IC and GPIO expander.
// Datasheet: https://www.ti.com/lit/ds/symlink/tca8418.pdf
package tca8418

import (
	"github.com/antongulenko/tca8418/i2cbus"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Device is one TCA8418 chip. Every access queries the hardware, no register values are cached.
// Concurrent use requires a bus that serializes transactions, such as i2cbus.Sequencer.
type Device struct {
	bus  i2cbus.I2cBus
	Addr byte

	GpioDirection Bank // true: output
	GpioMode      Bank // true: GPIO
	KeypadMode    Bank // true: keypad matrix
	OutputValue   Bank
	InputValue    Bank // read only
	Pullup        Bank // true: pull-up enabled
	Debounce      Bank // true: debounce enabled
	IntOnRising   Bank // true: rising edge, false: falling edge
	EnableInt     Bank
	EventModeFifo Bank // true: GPI transitions are logged in the FIFO
	GpioIntStatus Bank // read only, cleared when read
}

// New creates the device and resets it to a known state, see Init()
func New(bus i2cbus.I2cBus, addr byte) (*Device, error) {
	d := &Device{
		bus:  bus,
		Addr: addr,
	}
	d.GpioDirection = NewBank(d, REG_GPIO_DIR1, false, false)
	d.GpioMode = NewBank(d, REG_KP_GPIO1, true, false)
	d.KeypadMode = NewBank(d, REG_KP_GPIO1, false, false)
	d.OutputValue = NewBank(d, REG_GPIO_DAT_OUT1, false, false)
	d.InputValue = NewBank(d, REG_GPIO_DAT_STAT1, false, true)
	d.Pullup = NewBank(d, REG_GPIO_PULL1, true, false)
	d.Debounce = NewBank(d, REG_DEBOUNCE_DIS1, true, false)
	d.IntOnRising = NewBank(d, REG_GPIO_INT_LVL1, false, false)
	d.EnableInt = NewBank(d, REG_GPIO_INT_EN1, false, false)
	d.EventModeFifo = NewBank(d, REG_GPI_EM1, false, false)
	d.GpioIntStatus = NewBank(d, REG_GPIO_INT_STAT1, false, true)

	if err := d.Init(); err != nil {
		return nil, err
	}
	return d, nil
}

// Init configures all pins as GPIO inputs with pull-up and debounce, interrupts on falling edges,
// disables all interrupts and FIFO events, and clears all pending events and interrupts.
func (d *Device) Init() (err error) {
	log.Debugf("Initializing TCA8418 at %#02x...", d.Addr)
	d.fill(&err, d.EnableInt, false)
	if err == nil {
		// Reading clears interrupts latched before
		_, err = d.GpioIntStatus.ReadAll()
	}
	d.fill(&err, d.GpioDirection, false)
	d.fill(&err, d.GpioMode, true)
	d.fill(&err, d.OutputValue, false)
	d.fill(&err, d.Pullup, true)
	d.fill(&err, d.Debounce, true)
	d.fill(&err, d.IntOnRising, false)
	d.fill(&err, d.EventModeFifo, false)
	if err != nil {
		return
	}

	stale, err := d.DrainEvents()
	if err != nil {
		return err
	}
	if len(stale) > 0 {
		log.Debugf("TCA8418 at %#02x: discarded %v stale event(s): %v", d.Addr, len(stale), stale)
	}

	if err := d.WriteRegister(REG_INT_STAT, INT_STAT_ALL); err != nil {
		return err
	}
	return d.SetInterrupt(INT_STAT_GPI_INT, true)
}

func (d *Device) fill(outErr *error, bank Bank, value bool) {
	if *outErr == nil {
		*outErr = bank.Fill(value)
	}
}

func (d *Device) ReadRegister(reg byte) (byte, error) {
	return i2cbus.ReadRegister(d.bus, d.Addr, reg)
}

func (d *Device) WriteRegister(reg byte, val byte) error {
	return i2cbus.WriteRegister(d.bus, d.Addr, reg, val)
}

// UpdateRegister performs a read-modify-write cycle. If the bus supports exclusive access,
// no other transaction can interleave between the read and the write.
func (d *Device) UpdateRegister(reg byte, update func(val byte) byte) error {
	rmw := func(bus i2cbus.I2cBus) error {
		val, err := i2cbus.ReadRegister(bus, d.Addr, reg)
		if err != nil {
			return err
		}
		return i2cbus.WriteRegister(bus, d.Addr, reg, update(val))
	}
	if ex, ok := d.bus.(i2cbus.Exclusive); ok {
		return ex.Exclusive(rmw)
	}
	return rmw(d.bus)
}

// EventsCount returns the number of events in the FIFO (0..10)
func (d *Device) EventsCount() (int, error) {
	val, err := d.ReadRegister(REG_KEY_LCK_EC)
	if err != nil {
		return 0, err
	}
	return int(val & KEY_LCK_EC_KEC_MASK), nil
}

// NextEvent pops the oldest event from the FIFO. Fails with ErrEmptyQueue if there are no events.
func (d *Device) NextEvent() (Event, error) {
	count, err := d.EventsCount()
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, errors.WithStack(ErrEmptyQueue)
	}
	val, err := d.ReadRegister(REG_KEY_EVENT_A)
	return Event(val), err
}

// DrainEvents pops all events currently in the FIFO, oldest first
func (d *Device) DrainEvents() ([]Event, error) {
	count, err := d.EventsCount()
	if err != nil {
		return nil, err
	}
	var events []Event
	for count > 0 {
		val, err := d.ReadRegister(REG_KEY_EVENT_A)
		if err != nil {
			return events, err
		}
		events = append(events, Event(val))
		if count, err = d.EventsCount(); err != nil {
			return events, err
		}
	}
	return events, nil
}

// InterruptStatus returns the INT_STAT_* bits that are currently set
func (d *Device) InterruptStatus() (byte, error) {
	val, err := d.ReadRegister(REG_INT_STAT)
	return val & INT_STAT_ALL, err
}

// Interrupt returns whether any of the given INT_STAT_* bits is set
func (d *Device) Interrupt(mask byte) (bool, error) {
	val, err := d.InterruptStatus()
	return val&mask != 0, err
}

// SetInterrupt with value=true clears the given INT_STAT_* bits (write-1-to-clear).
// Other bits are not affected. Writing false has no effect on the hardware, so nothing is written.
func (d *Device) SetInterrupt(mask byte, value bool) error {
	if !value {
		return nil
	}
	return d.WriteRegister(REG_INT_STAT, mask&INT_STAT_ALL)
}

// Config returns whether all of the given CFG_* bits are set
func (d *Device) Config(mask byte) (bool, error) {
	val, err := d.ReadRegister(REG_CFG)
	return val&mask == mask, err
}

// SetConfig sets or clears the given CFG_* bits
func (d *Device) SetConfig(mask byte, value bool) error {
	return d.UpdateRegister(REG_CFG, func(val byte) byte {
		if value {
			return val | mask
		}
		return val &^ mask
	})
}

// Pin returns a handle for one pin and switches the pin to GPIO mode
func (d *Device) Pin(number int) (*Pin, error) {
	if err := checkPin(number); err != nil {
		return nil, err
	}
	if err := d.GpioMode.Set(number, true); err != nil {
		return nil, err
	}
	return &Pin{
		dev:    d,
		number: number,
	}, nil
}

// ConfigureKeypad assigns rows R0..rows-1 and columns C0..cols-1 to the keypad matrix scanner
// and enables key event interrupts. All other pins are set to GPIO mode.
func (d *Device) ConfigureKeypad(rows, cols int) error {
	if rows < 1 || rows > NUM_ROWS || cols < 1 || cols > NUM_COLS {
		return errors.Errorf("invalid keypad matrix size %vx%v (maximum %vx%v)", rows, cols, NUM_ROWS, NUM_COLS)
	}
	bits := uint32(1)<<uint(rows) - 1
	bits |= (uint32(1)<<uint(cols) - 1) << NUM_ROWS
	if err := d.KeypadMode.WriteAll(bits); err != nil {
		return err
	}
	return d.SetConfig(CFG_KE_IEN, true)
}
