package tca8418

import (
	"github.com/pkg/errors"
)

// Registers gives access to single 8-bit registers of a device
type Registers interface {
	ReadRegister(reg byte) (byte, error)
	WriteRegister(reg byte, val byte) error

	// UpdateRegister reads the register, applies update and writes the result back.
	// The implementation decides whether the sequence is protected against concurrent access.
	UpdateRegister(reg byte, update func(val byte) byte) error
}

// Bank is one 18-bit setting stored in three consecutive registers.
// Pin p is stored in register Base + p/8, bit p%8.
type Bank struct {
	regs Registers

	Base     byte
	Invert   bool // The hardware bit is the complement of the logical value
	ReadOnly bool
}

func NewBank(regs Registers, base byte, invert, readOnly bool) Bank {
	return Bank{
		regs:     regs,
		Base:     base,
		Invert:   invert,
		ReadOnly: readOnly,
	}
}

func checkPin(pin int) error {
	if pin < 0 || pin >= NUM_PINS {
		return errors.Wrapf(ErrPinRange, "invalid pin %v", pin)
	}
	return nil
}

func (b Bank) location(pin int) (reg byte, mask byte) {
	return b.Base + byte(pin/8), 1 << uint(pin%8)
}

// ReadAll returns the raw bits of all 18 pins, without applying the inversion.
// Bit n is pin n.
func (b Bank) ReadAll() (uint32, error) {
	var val uint32
	for i := 2; i >= 0; i-- {
		reg, err := b.regs.ReadRegister(b.Base + byte(i))
		if err != nil {
			return 0, err
		}
		val = val<<8 | uint32(reg)
	}
	return val & PIN_MASK, nil
}

// WriteAll writes the raw bits of all 18 pins, without applying the inversion
func (b Bank) WriteAll(bits uint32) error {
	if b.ReadOnly {
		return errors.Wrapf(ErrReadOnly, "register %#02x", b.Base)
	}
	bits &= PIN_MASK
	for i := 0; i < 3; i++ {
		if err := b.regs.WriteRegister(b.Base+byte(i), byte(bits>>(8*uint(i)))); err != nil {
			return err
		}
	}
	return nil
}

// Fill sets all 18 pins to the same logical value.
// The unused bits 2-7 of the C8/C9 register are written as 0.
func (b Bank) Fill(value bool) error {
	if value != b.Invert {
		return b.WriteAll(PIN_MASK)
	}
	return b.WriteAll(0)
}

func (b Bank) Get(pin int) (bool, error) {
	if err := checkPin(pin); err != nil {
		return false, err
	}
	reg, mask := b.location(pin)
	val, err := b.regs.ReadRegister(reg)
	if err != nil {
		return false, err
	}
	return (val&mask != 0) != b.Invert, nil
}

// Set changes the bit of one pin and leaves all other bits of the register unchanged
func (b Bank) Set(pin int, value bool) error {
	if err := checkPin(pin); err != nil {
		return err
	}
	if b.ReadOnly {
		return errors.Wrapf(ErrReadOnly, "register %#02x", b.Base)
	}
	bit := value != b.Invert
	reg, mask := b.location(pin)
	return b.regs.UpdateRegister(reg, func(val byte) byte {
		if bit {
			return val | mask
		}
		return val &^ mask
	})
}
