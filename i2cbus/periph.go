package i2cbus

import (
	"periph.io/x/conn/v3/i2c"
)

// Periph adapts a periph.io I2C bus (sysfs, FTDI MPSSE, ...) to I2cBus
type Periph struct {
	Bus i2c.Bus
}

func (p *Periph) I2cWrite(addr byte, data ...byte) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	return p.Bus.Tx(uint16(addr), data, nil)
}

func (p *Periph) I2cRead(addr byte, data []byte) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	return p.Bus.Tx(uint16(addr), nil, data)
}

func (p *Periph) I2cWriteRead(addr byte, out, in []byte) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	return p.Bus.Tx(uint16(addr), out, in)
}

func (p *Periph) String() string {
	return p.Bus.String()
}
