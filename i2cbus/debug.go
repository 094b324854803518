package i2cbus

import (
	log "github.com/sirupsen/logrus"
)

// Debug logs every transaction of the wrapped bus on the debug level
type Debug struct {
	Bus I2cBus
}

func (d *Debug) I2cWrite(addr byte, data ...byte) error {
	err := d.Bus.I2cWrite(addr, data...)
	log.Debugf("I2C %#02x write %#02x: %v", addr, data, errString(err))
	return err
}

func (d *Debug) I2cRead(addr byte, data []byte) error {
	err := d.Bus.I2cRead(addr, data)
	log.Debugf("I2C %#02x read %#02x: %v", addr, data, errString(err))
	return err
}

func (d *Debug) I2cWriteRead(addr byte, out, in []byte) error {
	err := d.Bus.I2cWriteRead(addr, out, in)
	log.Debugf("I2C %#02x write %#02x, read %#02x: %v", addr, out, in, errString(err))
	return err
}

// Exclusive forwards to the wrapped bus, if it supports exclusive access
func (d *Debug) Exclusive(f func(bus I2cBus) error) error {
	if ex, ok := d.Bus.(Exclusive); ok {
		return ex.Exclusive(func(bus I2cBus) error {
			return f(&Debug{Bus: bus})
		})
	}
	return f(d)
}

func errString(err error) string {
	if err == nil {
		return "ok"
	}
	return err.Error()
}
