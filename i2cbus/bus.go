package i2cbus

import (
	"fmt"
)

const (
	// Range of regular 7-bit slave addresses, probed by Scan
	FirstAddress = byte(0x08)
	LastAddress  = byte(0x77)
)

// I2cBus is a blocking I2C master. Every call is one complete bus transaction.
type I2cBus interface {
	I2cWrite(addr byte, data ...byte) error
	I2cRead(addr byte, data []byte) error

	// Write followed by a repeated start and a read
	I2cWriteRead(addr byte, out, in []byte) error
}

// Exclusive is implemented by buses that can grant exclusive access for a sequence of transactions.
// The function receives the underlying bus and must not use the Exclusive bus itself.
type Exclusive interface {
	Exclusive(func(bus I2cBus) error) error
}

// ReadRegister writes the register address and reads back one byte
func ReadRegister(bus I2cBus, addr byte, register byte) (byte, error) {
	var buf [1]byte
	if err := bus.I2cWriteRead(addr, []byte{register}, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// WriteRegister writes the register address followed by one data byte
func WriteRegister(bus I2cBus, addr byte, register byte, val byte) error {
	return bus.I2cWrite(addr, register, val)
}

// Scan returns the addresses of all slaves that acknowledge a one-byte read
func Scan(bus I2cBus) ([]byte, error) {
	var slaves []byte
	var buf [1]byte
	for addr := FirstAddress; addr <= LastAddress; addr++ {
		if err := bus.I2cRead(addr, buf[:]); err == nil {
			slaves = append(slaves, addr)
		}
	}
	return slaves, nil
}

func checkAddr(addr byte) error {
	if addr&0x80 != 0 {
		return fmt.Errorf("Invalid I2C slave address: %02x", addr)
	}
	return nil
}
