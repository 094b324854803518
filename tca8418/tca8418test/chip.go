// Package tca8418test provides a simulated TCA8418 that can be used as an i2cbus.I2cBus
// in tests and dummy setups.
package tca8418test

import (
	"fmt"
	"sync"

	"github.com/antongulenko/tca8418/i2cbus"
	"github.com/antongulenko/tca8418/tca8418"
)

// Chip simulates the register behavior of a TCA8418:
// INT_STAT is write-1-to-clear, reading KEY_EVENT_A pops the FIFO, reading GPIO_INT_STAT clears it,
// and status registers ignore writes. Pin levels and FIFO events are injected by the test.
type Chip struct {
	Addr byte

	// If set, every transaction fails with this error
	Err error

	lock     sync.Mutex
	regs     [tca8418.NUM_REGISTERS]byte
	fifo     []byte
	pointer  byte
	writes   int
	accesses int
}

var _ i2cbus.I2cBus = &Chip{}

func New(addr byte) *Chip {
	return &Chip{Addr: addr}
}

// Writes returns the number of register values written so far
func (c *Chip) Writes() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.writes
}

// Accesses returns the number of I2C transactions addressed to the chip so far
func (c *Chip) Accesses() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.accesses
}

// Register returns a register value without the side effects of reading it over I2C
func (c *Chip) Register(reg byte) byte {
	c.lock.Lock()
	defer c.lock.Unlock()
	if reg == tca8418.REG_KEY_EVENT_A {
		if len(c.fifo) == 0 {
			return 0
		}
		return c.fifo[0]
	}
	return c.regs[reg]
}

// SetRegister changes a register value directly, bypassing all I2C semantics
func (c *Chip) SetRegister(reg byte, val byte) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.regs[reg] = val
}

// PushEvent adds a raw event to the FIFO and raises the interrupt of the event type.
// A full FIFO raises the overflow interrupt and drops or overwrites, depending on CFG_OVR_FLOW_M.
func (c *Chip) PushEvent(event byte) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.pushEvent(event)
}

func (c *Chip) pushEvent(event byte) {
	if len(c.fifo) >= tca8418.FIFO_DEPTH {
		c.regs[tca8418.REG_INT_STAT] |= tca8418.INT_STAT_OVR_FLOW_INT
		if c.regs[tca8418.REG_CFG]&tca8418.CFG_OVR_FLOW_M == 0 {
			return
		}
		c.fifo = c.fifo[1:]
	}
	c.fifo = append(c.fifo, event)
	if _, ok := tca8418.Event(event).Pin(); ok {
		c.regs[tca8418.REG_INT_STAT] |= tca8418.INT_STAT_GPI_INT
	} else {
		c.regs[tca8418.REG_INT_STAT] |= tca8418.INT_STAT_K_INT
	}
	c.updateEventCount()
}

func (c *Chip) updateEventCount() {
	kec := c.regs[tca8418.REG_KEY_LCK_EC]
	c.regs[tca8418.REG_KEY_LCK_EC] = kec&^tca8418.KEY_LCK_EC_KEC_MASK | byte(len(c.fifo))
}

// SetInput changes the level of a pin. For GPIO pins with enabled interrupt, a transition in the
// configured direction sets the GPIO interrupt status, and a FIFO event is logged if GPI_EM is set.
func (c *Chip) SetInput(pin int, level bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	reg, mask := byte(pin/8), byte(1)<<uint(pin%8)
	old := c.regs[tca8418.REG_GPIO_DAT_STAT1+reg]&mask != 0
	if old == level {
		return
	}
	c.setBit(tca8418.REG_GPIO_DAT_STAT1+reg, mask, level)

	if c.regs[tca8418.REG_KP_GPIO1+reg]&mask != 0 || c.regs[tca8418.REG_GPIO_INT_EN1+reg]&mask == 0 {
		return
	}
	rising := c.regs[tca8418.REG_GPIO_INT_LVL1+reg]&mask != 0
	if c.regs[tca8418.REG_GPI_EM1+reg]&mask != 0 {
		// Events are logged for both transitions. Active means the configured level.
		event := tca8418.GpiCode(pin)
		if level == rising {
			event |= tca8418.EVENT_PRESSED
		}
		c.pushEvent(event)
	} else if level == rising {
		c.regs[tca8418.REG_GPIO_INT_STAT1+reg] |= mask
		c.regs[tca8418.REG_INT_STAT] |= tca8418.INT_STAT_GPI_INT
	}
}

func (c *Chip) setBit(reg byte, mask byte, value bool) {
	if value {
		c.regs[reg] |= mask
	} else {
		c.regs[reg] &^= mask
	}
}

func (c *Chip) transaction(addr byte) error {
	if addr != c.Addr {
		return fmt.Errorf("I2C slave %#02x: no ACK", addr)
	}
	if c.Err != nil {
		return c.Err
	}
	c.accesses++
	return nil
}

func (c *Chip) I2cWrite(addr byte, data ...byte) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if err := c.transaction(addr); err != nil {
		return err
	}
	c.write(data)
	return nil
}

func (c *Chip) I2cRead(addr byte, data []byte) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if err := c.transaction(addr); err != nil {
		return err
	}
	c.read(data)
	return nil
}

func (c *Chip) I2cWriteRead(addr byte, out, in []byte) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if err := c.transaction(addr); err != nil {
		return err
	}
	c.write(out)
	c.read(in)
	return nil
}

func (c *Chip) write(data []byte) {
	if len(data) == 0 {
		return
	}
	c.pointer = data[0]
	for _, val := range data[1:] {
		c.writeRegister(c.pointer, val)
		c.advance()
	}
}

func (c *Chip) read(data []byte) {
	for i := range data {
		data[i] = c.readRegister(c.pointer)
		c.advance()
	}
}

// Without CFG_AI, the register pointer stays on the same register
func (c *Chip) advance() {
	if c.regs[tca8418.REG_CFG]&tca8418.CFG_AI != 0 {
		c.pointer++
	}
}

func (c *Chip) writeRegister(reg byte, val byte) {
	c.writes++
	switch {
	case reg == tca8418.REG_INT_STAT:
		c.regs[reg] &^= val
	case reg == tca8418.REG_KEY_LCK_EC:
		// Only the lock enable bit is writable
		c.setBit(reg, tca8418.KEY_LCK_EC_K_LCK_EN, val&tca8418.KEY_LCK_EC_K_LCK_EN != 0)
	case reg >= tca8418.REG_KEY_EVENT_A && reg <= tca8418.REG_KEY_EVENT_J,
		reg >= tca8418.REG_GPIO_INT_STAT1 && reg <= tca8418.REG_GPIO_DAT_STAT3:
		// Read only
	case reg < tca8418.NUM_REGISTERS:
		c.regs[reg] = val
	}
}

func (c *Chip) readRegister(reg byte) byte {
	switch {
	case reg == tca8418.REG_KEY_EVENT_A:
		if len(c.fifo) == 0 {
			return 0
		}
		val := c.fifo[0]
		c.fifo = c.fifo[1:]
		c.updateEventCount()
		return val
	case reg >= tca8418.REG_GPIO_INT_STAT1 && reg <= tca8418.REG_GPIO_INT_STAT3:
		val := c.regs[reg]
		c.regs[reg] = 0
		return val
	case reg < tca8418.NUM_REGISTERS:
		return c.regs[reg]
	default:
		return 0
	}
}
