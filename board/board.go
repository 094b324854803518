package board

import (
	"flag"
	"fmt"

	"github.com/antongulenko/golib"
	"github.com/antongulenko/hid"
	"github.com/antongulenko/tca8418/ft260"
	"github.com/antongulenko/tca8418/i2cbus"
	"github.com/antongulenko/tca8418/tca8418"
	"github.com/antongulenko/tca8418/tca8418/tca8418test"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

var DefaultBoard = Board{
	I2cAddr:         uint(tca8418.ADDRESS),
	I2cFreq:         uint(400),
	I2cRequestQueue: 20,
}

// Board collects the flags and peripherals needed to talk to one TCA8418
type Board struct {
	I2cBus          string // periph.io bus name, empty for the first available bus
	I2cAddr         uint
	I2cFreq         uint // kHz
	UseFt260        bool
	UsbDevice       string
	IrqPin          string
	I2cRequestQueue int
	NoI2cSequencer  bool
	DebugI2c        bool
	Dummy           bool

	Device *tca8418.Device
	Chip   *tca8418test.Chip // Only set for dummy boards

	hidInit   bool
	usb       *ft260.Ft260
	periphBus i2c.BusCloser
	sequencer *i2cbus.Sequencer
	bus       i2cbus.I2cBus
	irq       gpio.PinIO
}

func (b *Board) RegisterFlags() {
	flag.StringVar(&b.I2cBus, "bus", b.I2cBus, "Name or number of the I2C bus, as known to periph.io")
	flag.UintVar(&b.I2cAddr, "addr", b.I2cAddr, "I2C address of the TCA8418")
	flag.UintVar(&b.I2cFreq, "freq", b.I2cFreq, "The I2C bus frequency in kHz (FT260: 60 - 3400)")
	flag.BoolVar(&b.UseFt260, "ft260", b.UseFt260, "Use an FT260 USB to I2C bridge instead of a native I2C bus")
	flag.StringVar(&b.UsbDevice, "dev", b.UsbDevice, "Specify a USB path for FT260")
	flag.StringVar(&b.IrqPin, "irq", b.IrqPin, "Host GPIO pin connected to the INT output, polling is used if empty")
	flag.IntVar(&b.I2cRequestQueue, "queue", b.I2cRequestQueue, "Size of the I2C request queue")
	flag.BoolVar(&b.NoI2cSequencer, "no-i2c-sequencer", b.NoI2cSequencer, "Disable the extra goroutine for sequencing I2C commands")
	flag.BoolVar(&b.DebugI2c, "debug-i2c", b.DebugI2c, "Log every I2C transaction (requires debug logging)")
	flag.BoolVar(&b.Dummy, "dummy", b.Dummy, "Use a simulated TCA8418 instead of real USB/I2C peripherals")
}

func (b *Board) Setup() error {
	if b.I2cAddr > 0x7F {
		return fmt.Errorf("Invalid I2C address %#x", b.I2cAddr)
	}
	addr := byte(b.I2cAddr)
	if err := b.openBus(addr); err != nil {
		b.Cleanup()
		return err
	}
	if b.DebugI2c {
		b.bus = &i2cbus.Debug{Bus: b.bus}
	}
	if !b.NoI2cSequencer {
		b.sequencer = i2cbus.NewSequencer(b.bus, b.I2cRequestQueue)
		b.sequencer.Start()
		b.bus = b.sequencer
	}

	dev, err := tca8418.New(b.bus, addr)
	if err != nil {
		b.Cleanup()
		return errors.Wrapf(err, "Failed to initialize TCA8418 at %#02x", addr)
	}
	b.Device = dev

	if b.IrqPin != "" {
		pin := gpioreg.ByName(b.IrqPin)
		if pin == nil {
			b.Cleanup()
			return fmt.Errorf("Unknown GPIO pin for IRQ: %v", b.IrqPin)
		}
		b.irq = pin
	}
	log.Printf("Successfully initialized TCA8418 at %#02x", addr)
	return nil
}

func (b *Board) openBus(addr byte) error {
	switch {
	case b.Dummy:
		log.Println("Dummy board: using a simulated TCA8418")
		b.Chip = tca8418test.New(addr)
		b.bus = b.Chip
	case b.UseFt260:
		// Prepare Usb HID library, open FT260 device
		if err := hid.Init(); err != nil {
			return err
		}
		b.hidInit = true
		usb, err := (&ft260.Ft260Driver{Path: b.UsbDevice}).Open()
		if err != nil {
			return err
		}
		b.usb = usb
		if err := usb.Configure(uint16(b.I2cFreq)); err != nil {
			return err
		}
		b.bus = usb
	default:
		if _, err := host.Init(); err != nil {
			return errors.Wrap(err, "Failed to initialize periph.io host drivers")
		}
		bus, err := i2creg.Open(b.I2cBus)
		if err != nil {
			return errors.Wrapf(err, "Failed to open I2C bus %q", b.I2cBus)
		}
		b.periphBus = bus
		if err := bus.SetSpeed(physic.Frequency(b.I2cFreq) * physic.KiloHertz); err != nil {
			log.Warnf("Failed to set I2C bus speed to %vkHz: %v", b.I2cFreq, err)
		}
		b.bus = &i2cbus.Periph{Bus: bus}
	}
	return nil
}

// Bus returns the bus used by the Device, including the sequencer and debug layers
func (b *Board) Bus() i2cbus.I2cBus {
	return b.bus
}

// Irq returns the configured interrupt input, or nil if the chip must be polled
func (b *Board) Irq() gpio.PinIn {
	if b.irq == nil {
		return nil
	}
	return b.irq
}

func (b *Board) Watcher() *tca8418.Watcher {
	return &tca8418.Watcher{
		Device: b.Device,
		Irq:    b.Irq(),
	}
}

func (b *Board) Cleanup() {
	if b.sequencer != nil {
		b.sequencer.Stop()
		b.sequencer = nil
	}
	if b.periphBus != nil {
		golib.Printerr(b.periphBus.Close())
		b.periphBus = nil
	}
	if b.usb != nil {
		golib.Printerr(b.usb.Close())
		b.usb = nil
	}
	if b.hidInit {
		golib.Printerr(hid.Shutdown())
		b.hidInit = false
	}
}
