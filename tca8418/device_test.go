package tca8418_test

import (
	"errors"
	"sync"

	"github.com/antongulenko/tca8418/i2cbus"
	"github.com/antongulenko/tca8418/tca8418"
	"github.com/antongulenko/tca8418/tca8418/tca8418test"
)

func (s *testSuite) TestInitRegisterState() {
	expected := map[byte]byte{
		tca8418.REG_GPIO_INT_EN1:   0,
		tca8418.REG_GPIO_DIR1:      0,
		tca8418.REG_KP_GPIO1:       0,
		tca8418.REG_GPIO_DAT_OUT1:  0,
		tca8418.REG_GPIO_PULL1:     0,
		tca8418.REG_DEBOUNCE_DIS1:  0,
		tca8418.REG_GPIO_INT_LVL1:  0,
		tca8418.REG_GPI_EM1:        0,
		tca8418.REG_GPIO_INT_STAT1: 0,
	}
	for base, val := range expected {
		for i := byte(0); i < 3; i++ {
			s.Equal(val, s.chip.Register(base+i), "register %#02x", base+i)
		}
	}
	count, err := s.dev.EventsCount()
	s.NoError(err)
	s.Equal(0, count)
	status, err := s.dev.InterruptStatus()
	s.NoError(err)
	s.Equal(byte(0), status)
}

func (s *testSuite) TestInitClearsDirtyChip() {
	chip := tca8418test.New(tca8418.ADDRESS)
	for reg := tca8418.REG_GPIO_DAT_OUT1; reg < tca8418.NUM_REGISTERS; reg++ {
		chip.SetRegister(reg, 0xFF)
	}
	chip.SetRegister(tca8418.REG_GPIO_INT_STAT2, 0x10)
	chip.SetRegister(tca8418.REG_INT_STAT, tca8418.INT_STAT_ALL)
	for i := 0; i < 4; i++ {
		chip.PushEvent(tca8418.KeyCode(1, i) | tca8418.EVENT_PRESSED)
	}

	dev, err := tca8418.New(chip, tca8418.ADDRESS)
	s.NoError(err)
	count, err := dev.EventsCount()
	s.NoError(err)
	s.Equal(0, count)
	status, err := dev.InterruptStatus()
	s.NoError(err)
	s.Equal(byte(0), status)
	s.Equal(byte(0), chip.Register(tca8418.REG_GPIO_INT_STAT2))

	for name, bank := range map[string]tca8418.Bank{
		"input":    dev.GpioDirection,
		"GPIO":     dev.GpioMode,
		"pull-up":  dev.Pullup,
		"debounce": dev.Debounce,
	} {
		for pin := 0; pin < tca8418.NUM_PINS; pin++ {
			val, err := bank.Get(pin)
			s.NoError(err)
			s.Equal(name != "input", val, "%v on pin %v", name, pin)
		}
	}
}

func (s *testSuite) TestInitWrongAddress() {
	_, err := tca8418.New(s.chip, tca8418.ADDRESS+1)
	s.Error(err)
}

func (s *testSuite) TestFifoDrain() {
	pushed := []byte{0xE1, 0x61, tca8418.KeyCode(7, 9) | tca8418.EVENT_PRESSED, tca8418.KeyCode(7, 9)}
	for _, e := range pushed {
		s.chip.PushEvent(e)
	}
	count, err := s.dev.EventsCount()
	s.NoError(err)
	s.Equal(len(pushed), count)

	for i := 0; i < count; i++ {
		event, err := s.dev.NextEvent()
		s.NoError(err)
		s.Equal(tca8418.Event(pushed[i]), event, "event %v out of order", i)
		remaining, err := s.dev.EventsCount()
		s.NoError(err)
		s.Equal(count-i-1, remaining, "reading one event must pop exactly one")
	}
	_, err = s.dev.NextEvent()
	s.True(errors.Is(err, tca8418.ErrEmptyQueue), "unexpected error %v", err)
}

func (s *testSuite) TestFifoTwoEvents() {
	s.chip.PushEvent(0xE3)
	s.chip.PushEvent(0x63)
	_, err := s.dev.NextEvent()
	s.NoError(err)
	_, err = s.dev.NextEvent()
	s.NoError(err)
	accesses := s.chip.Accesses()
	_, err = s.dev.NextEvent()
	s.True(errors.Is(err, tca8418.ErrEmptyQueue))
	s.Equal(accesses+1, s.chip.Accesses(), "empty FIFO must not be read")
}

func (s *testSuite) TestDrainEvents() {
	events, err := s.dev.DrainEvents()
	s.NoError(err)
	s.Empty(events)

	for i := 0; i < tca8418.FIFO_DEPTH+2; i++ {
		s.chip.PushEvent(tca8418.KeyCode(0, i%tca8418.NUM_COLS))
	}
	events, err = s.dev.DrainEvents()
	s.NoError(err)
	s.Len(events, tca8418.FIFO_DEPTH, "overflowing events are dropped")
	s.Equal(tca8418.Event(tca8418.KeyCode(0, 0)), events[0])
	overflow, err := s.dev.Interrupt(tca8418.INT_STAT_OVR_FLOW_INT)
	s.NoError(err)
	s.True(overflow)
}

func (s *testSuite) TestInterruptWriteOneToClear() {
	s.chip.PushEvent(tca8418.KeyCode(0, 0))
	s.chip.PushEvent(tca8418.GpiCode(tca8418.R1))
	s.chip.SetRegister(tca8418.REG_INT_STAT, s.chip.Register(tca8418.REG_INT_STAT)|tca8418.INT_STAT_CAD_INT)

	test := func(mask byte, expectSet bool) {
		set, err := s.dev.Interrupt(mask)
		s.NoError(err)
		s.Equal(expectSet, set, "interrupt %#02x", mask)
	}
	test(tca8418.INT_STAT_K_INT, true)
	test(tca8418.INT_STAT_GPI_INT, true)
	test(tca8418.INT_STAT_CAD_INT, true)
	test(tca8418.INT_STAT_OVR_FLOW_INT, false)

	// Writing false does not change anything
	s.NoError(s.dev.SetInterrupt(tca8418.INT_STAT_K_INT, false))
	test(tca8418.INT_STAT_K_INT, true)

	// Clearing one bit leaves the others
	s.NoError(s.dev.SetInterrupt(tca8418.INT_STAT_K_INT, true))
	test(tca8418.INT_STAT_K_INT, false)
	test(tca8418.INT_STAT_GPI_INT, true)
	test(tca8418.INT_STAT_CAD_INT, true)

	// Idempotent
	s.NoError(s.dev.SetInterrupt(tca8418.INT_STAT_K_INT, true))
	test(tca8418.INT_STAT_K_INT, false)
	test(tca8418.INT_STAT_GPI_INT, true)

	s.NoError(s.dev.SetInterrupt(tca8418.INT_STAT_GPI_INT|tca8418.INT_STAT_CAD_INT, true))
	status, err := s.dev.InterruptStatus()
	s.NoError(err)
	s.Equal(byte(0), status)
}

func (s *testSuite) TestConfigBits() {
	test := func(mask byte, expected bool) {
		val, err := s.dev.Config(mask)
		s.NoError(err)
		s.Equal(expected, val, "config %#02x", mask)
	}
	test(tca8418.CFG_KE_IEN, false)
	s.NoError(s.dev.SetConfig(tca8418.CFG_KE_IEN|tca8418.CFG_GPI_IEN, true))
	test(tca8418.CFG_KE_IEN, true)
	test(tca8418.CFG_GPI_IEN, true)
	test(tca8418.CFG_KE_IEN|tca8418.CFG_OVR_FLOW_IEN, false)
	s.NoError(s.dev.SetConfig(tca8418.CFG_OVR_FLOW_M, true))
	s.NoError(s.dev.SetConfig(tca8418.CFG_KE_IEN, false))
	test(tca8418.CFG_KE_IEN, false)
	test(tca8418.CFG_GPI_IEN|tca8418.CFG_OVR_FLOW_M, true)
	s.Equal(tca8418.CFG_GPI_IEN|tca8418.CFG_OVR_FLOW_M, s.chip.Register(tca8418.REG_CFG))
}

func (s *testSuite) TestConfigureKeypad() {
	s.NoError(s.dev.ConfigureKeypad(4, 3))
	s.Equal(byte(0x0F), s.chip.Register(tca8418.REG_KP_GPIO1))
	s.Equal(byte(0x07), s.chip.Register(tca8418.REG_KP_GPIO2))
	s.Equal(byte(0x00), s.chip.Register(tca8418.REG_KP_GPIO3))
	enabled, err := s.dev.Config(tca8418.CFG_KE_IEN)
	s.NoError(err)
	s.True(enabled)

	s.NoError(s.dev.ConfigureKeypad(tca8418.NUM_ROWS, tca8418.NUM_COLS))
	all, err := s.dev.KeypadMode.ReadAll()
	s.NoError(err)
	s.Equal(tca8418.PIN_MASK, all)

	s.Error(s.dev.ConfigureKeypad(0, 3))
	s.Error(s.dev.ConfigureKeypad(9, 3))
	s.Error(s.dev.ConfigureKeypad(8, 11))
}

func (s *testSuite) TestPoll() {
	res, err := s.dev.Poll()
	s.NoError(err)
	s.Equal(byte(0), res.Status)
	s.Empty(res.Events)

	s.NoError(s.dev.EnableInt.Set(tca8418.R1, true))
	s.NoError(s.dev.EventModeFifo.Set(tca8418.R1, true))
	s.NoError(s.dev.EnableInt.Set(tca8418.C2, true))
	s.chip.SetInput(tca8418.R1, true)  // released: pull-up, falling edge is active
	s.chip.SetInput(tca8418.R1, false) // pressed
	s.chip.SetInput(tca8418.C2, true)
	s.chip.SetInput(tca8418.C2, false) // GPI interrupt without FIFO event

	res, err = s.dev.Poll()
	s.NoError(err)
	s.Equal(tca8418.INT_STAT_GPI_INT, res.Status)
	s.Equal([]tca8418.Event{0x62, 0xE2}, res.Events)
	s.Equal(uint32(1)<<tca8418.C2, res.GpioIntStatus)

	res, err = s.dev.Poll()
	s.NoError(err)
	s.Equal(byte(0), res.Status, "interrupts must be acknowledged")
}

func (s *testSuite) TestUpdateRegisterExclusive() {
	sequencer := i2cbus.NewSequencer(s.chip, 5)
	sequencer.Start()
	defer sequencer.Stop()
	dev, err := tca8418.New(sequencer, tca8418.ADDRESS)
	s.NoError(err)

	var wg sync.WaitGroup
	for pin := 0; pin < 8; pin++ {
		wg.Add(1)
		go func(pin int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				if err := dev.OutputValue.Set(pin, i%2 == 0); err != nil {
					panic(err)
				}
			}
			if err := dev.OutputValue.Set(pin, true); err != nil {
				panic(err)
			}
		}(pin)
	}
	wg.Wait()
	s.Equal(byte(0xFF), s.chip.Register(tca8418.REG_GPIO_DAT_OUT1), "lost update")
}
