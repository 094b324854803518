package tca8418_test

import (
	"errors"

	"github.com/antongulenko/tca8418/tca8418"
)

func (s *testSuite) TestBankTable() {
	test := func(bank tca8418.Bank, base byte, invert, readOnly bool) {
		s.Equal(base, bank.Base, "base of bank %#02x", base)
		s.Equal(invert, bank.Invert, "inversion of bank %#02x", base)
		s.Equal(readOnly, bank.ReadOnly, "read only flag of bank %#02x", base)
	}
	test(s.dev.GpioDirection, 0x23, false, false)
	test(s.dev.GpioMode, 0x1D, true, false)
	test(s.dev.KeypadMode, 0x1D, false, false)
	test(s.dev.OutputValue, 0x17, false, false)
	test(s.dev.InputValue, 0x14, false, true)
	test(s.dev.Pullup, 0x2C, true, false)
	test(s.dev.Debounce, 0x29, true, false)
	test(s.dev.IntOnRising, 0x26, false, false)
	test(s.dev.EnableInt, 0x1A, false, false)
	test(s.dev.EventModeFifo, 0x20, false, false)
	test(s.dev.GpioIntStatus, 0x11, false, true)
}

func (s *testSuite) TestBankRoundTrip() {
	for name, bank := range s.writableBanks() {
		for pin := 0; pin < tca8418.NUM_PINS; pin++ {
			for _, value := range []bool{true, false, true} {
				s.NoError(bank.Set(pin, value))
				actual, err := bank.Get(pin)
				s.NoError(err)
				s.Equal(value, actual, "%v pin %v", name, pin)
			}
		}
	}
}

func (s *testSuite) TestBankInversion() {
	s.NoError(s.dev.Pullup.Set(tca8418.R2, false))
	s.Equal(byte(0x04), s.chip.Register(tca8418.REG_GPIO_PULL1), "disabled pull-up is a set bit")
	s.NoError(s.dev.Pullup.Set(tca8418.R2, true))
	s.Equal(byte(0x00), s.chip.Register(tca8418.REG_GPIO_PULL1))

	// GpioMode and KeypadMode are two views of the same registers
	s.NoError(s.dev.KeypadMode.Set(tca8418.C9, true))
	s.Equal(byte(0x02), s.chip.Register(tca8418.REG_KP_GPIO3))
	gpio, err := s.dev.GpioMode.Get(tca8418.C9)
	s.NoError(err)
	s.False(gpio)
}

func (s *testSuite) TestBankIsolation() {
	for name, bank := range s.writableBanks() {
		// Alternating pattern, as logical values
		expected := make([]bool, tca8418.NUM_PINS)
		for pin := range expected {
			expected[pin] = pin%3 == 0
			s.NoError(bank.Set(pin, expected[pin]))
		}
		for pin := 0; pin < tca8418.NUM_PINS; pin++ {
			expected[pin] = !expected[pin]
			s.NoError(bank.Set(pin, expected[pin]))
			for other := 0; other < tca8418.NUM_PINS; other++ {
				actual, err := bank.Get(other)
				s.NoError(err)
				s.Equal(expected[other], actual, "%v: pin %v after setting pin %v", name, other, pin)
			}
		}
	}
}

func (s *testSuite) TestBankPin3() {
	bank := s.dev.GpioDirection
	s.Equal(byte(0x23), bank.Base)
	s.NoError(bank.Set(3, true))
	val, err := bank.Get(3)
	s.NoError(err)
	s.True(val)
	val, err = bank.Get(4)
	s.NoError(err)
	s.False(val)
	s.Equal(byte(0x08), s.chip.Register(tca8418.REG_GPIO_DIR1))
}

func (s *testSuite) TestBankPreservesSiblingBits() {
	// Bits not owned by a pin must survive a read-modify-write as well
	s.chip.SetRegister(tca8418.REG_GPIO_DAT_OUT3, 0xF0)
	s.NoError(s.dev.OutputValue.Set(tca8418.C8, true))
	s.Equal(byte(0xF1), s.chip.Register(tca8418.REG_GPIO_DAT_OUT3))
	s.NoError(s.dev.OutputValue.Set(tca8418.C8, false))
	s.Equal(byte(0xF0), s.chip.Register(tca8418.REG_GPIO_DAT_OUT3))
}

func (s *testSuite) TestBankReadOnly() {
	for _, bank := range []tca8418.Bank{s.dev.InputValue, s.dev.GpioIntStatus} {
		writes := s.chip.Writes()
		accesses := s.chip.Accesses()
		for pin := 0; pin < tca8418.NUM_PINS; pin++ {
			for _, value := range []bool{true, false} {
				err := bank.Set(pin, value)
				s.True(errors.Is(err, tca8418.ErrReadOnly), "unexpected error %v", err)
			}
		}
		s.True(errors.Is(bank.Fill(true), tca8418.ErrReadOnly))
		s.True(errors.Is(bank.WriteAll(0), tca8418.ErrReadOnly))
		s.Equal(writes, s.chip.Writes(), "read only bank wrote to the device")
		s.Equal(accesses, s.chip.Accesses(), "read only bank accessed the device")
	}
}

func (s *testSuite) TestBankPinRange() {
	accesses := s.chip.Accesses()
	for _, bank := range s.allBanks() {
		for _, pin := range []int{-1, -100, 18, 19, 255} {
			_, err := bank.Get(pin)
			s.True(errors.Is(err, tca8418.ErrPinRange), "Get(%v): unexpected error %v", pin, err)
			err = bank.Set(pin, true)
			s.True(errors.Is(err, tca8418.ErrPinRange), "Set(%v): unexpected error %v", pin, err)
		}
	}
	s.Equal(accesses, s.chip.Accesses(), "out of range pin accessed the device")
}

func (s *testSuite) TestBankReadAll() {
	s.chip.SetRegister(tca8418.REG_GPIO_DAT_STAT1, 0x81)
	s.chip.SetRegister(tca8418.REG_GPIO_DAT_STAT2, 0x42)
	s.chip.SetRegister(tca8418.REG_GPIO_DAT_STAT3, 0xFE)
	val, err := s.dev.InputValue.ReadAll()
	s.NoError(err)
	s.Equal(uint32(0x24281), val, "only 18 bits, most significant register last")

	high, err := s.dev.InputValue.Get(tca8418.C9)
	s.NoError(err)
	s.True(high)
	high, err = s.dev.InputValue.Get(tca8418.C8)
	s.NoError(err)
	s.False(high)
}

func (s *testSuite) TestBankFill() {
	s.NoError(s.dev.EventModeFifo.Fill(true))
	s.Equal(byte(0xFF), s.chip.Register(tca8418.REG_GPI_EM1))
	s.Equal(byte(0xFF), s.chip.Register(tca8418.REG_GPI_EM2))
	s.Equal(byte(0x03), s.chip.Register(tca8418.REG_GPI_EM3))
	all, err := s.dev.EventModeFifo.ReadAll()
	s.NoError(err)
	s.Equal(tca8418.PIN_MASK, all)

	// Inverted: disabling all pull-ups sets all bits
	s.NoError(s.dev.Pullup.Fill(false))
	all, err = s.dev.Pullup.ReadAll()
	s.NoError(err)
	s.Equal(tca8418.PIN_MASK, all)
	s.NoError(s.dev.Pullup.Fill(true))
	all, err = s.dev.Pullup.ReadAll()
	s.NoError(err)
	s.Equal(uint32(0), all)
}

func (s *testSuite) TestBankTransportError() {
	busErr := errors.New("bus is on fire")
	s.chip.Err = busErr
	_, err := s.dev.OutputValue.Get(tca8418.R0)
	s.Equal(busErr, err, "transport errors must not be wrapped")
	s.Equal(busErr, s.dev.OutputValue.Set(tca8418.R0, true))
	_, err = s.dev.OutputValue.ReadAll()
	s.Equal(busErr, err)
	s.Equal(busErr, s.dev.OutputValue.Fill(true))
}
