package tca8418

// Default register values all zero.

// ============== Per-pin settings
// Each setting occupies 3 consecutive registers: R0-R7, C0-C7, C8-C9 (bits 0-1).
// GPIO_INT_STAT: (read only) 1: interrupt on the pin. Cleared when read.
// GPIO_DAT_STAT: (read only) current pin level
// GPIO_DAT_OUT: output latch
// GPIO_INT_EN: 1: pin generates GPI interrupts (and FIFO events, if GPI_EM is set)
// KP_GPIO: 0: GPIO 1: keypad matrix
// GPI_EM: 1: GPI transitions are logged in the key event FIFO
// GPIO_DIR: 0: input 1: output
// GPIO_INT_LVL: 0: interrupt on falling edge (low level) 1: rising edge (high level)
// DEBOUNCE_DIS: 0: debounce enabled 1: debounce disabled
// GPIO_PULL: 0: pull-up enabled 1: pull-up disabled

const (
	_ = byte(iota)
	REG_CFG
	REG_INT_STAT
	REG_KEY_LCK_EC
	REG_KEY_EVENT_A // Reading pops the oldest event from the FIFO
	REG_KEY_EVENT_B
	REG_KEY_EVENT_C
	REG_KEY_EVENT_D
	REG_KEY_EVENT_E
	REG_KEY_EVENT_F
	REG_KEY_EVENT_G
	REG_KEY_EVENT_H
	REG_KEY_EVENT_I
	REG_KEY_EVENT_J
	REG_KP_LCK_TIMER
	REG_UNLOCK1
	REG_UNLOCK2
	REG_GPIO_INT_STAT1
	REG_GPIO_INT_STAT2
	REG_GPIO_INT_STAT3
	REG_GPIO_DAT_STAT1
	REG_GPIO_DAT_STAT2
	REG_GPIO_DAT_STAT3
	REG_GPIO_DAT_OUT1
	REG_GPIO_DAT_OUT2
	REG_GPIO_DAT_OUT3
	REG_GPIO_INT_EN1
	REG_GPIO_INT_EN2
	REG_GPIO_INT_EN3
	REG_KP_GPIO1
	REG_KP_GPIO2
	REG_KP_GPIO3
	REG_GPI_EM1
	REG_GPI_EM2
	REG_GPI_EM3
	REG_GPIO_DIR1
	REG_GPIO_DIR2
	REG_GPIO_DIR3
	REG_GPIO_INT_LVL1
	REG_GPIO_INT_LVL2
	REG_GPIO_INT_LVL3
	REG_DEBOUNCE_DIS1
	REG_DEBOUNCE_DIS2
	REG_DEBOUNCE_DIS3
	REG_GPIO_PULL1
	REG_GPIO_PULL2
	REG_GPIO_PULL3

	NUM_REGISTERS = REG_GPIO_PULL3 + 1
)

// Bits of REG_CFG
const (
	CFG_KE_IEN       = byte(1 << iota) // 1: key events generate an interrupt
	CFG_GPI_IEN                        // 1: GPI events generate an interrupt
	CFG_K_LCK_IEN                      // 1: keypad lock events generate an interrupt
	CFG_OVR_FLOW_IEN                   // 1: FIFO overflow generates an interrupt
	CFG_INT_CFG                        // 1: INT is de-asserted for 50us and re-asserted if interrupts are pending
	CFG_OVR_FLOW_M                     // 0: events are dropped when the FIFO is full 1: oldest events are overwritten
	CFG_GPI_E_CFG                      // 0: GPI events are tracked while the keypad is locked 1: not tracked
	CFG_AI                             // 1: auto-increment for consecutive register access
)

// Bits of REG_INT_STAT. Writing 1 clears the bit, writing 0 has no effect.
const (
	INT_STAT_K_INT        = byte(1 << iota) // Key event interrupt
	INT_STAT_GPI_INT                        // GPI interrupt
	INT_STAT_K_LCK_INT                      // Keypad lock interrupt
	INT_STAT_OVR_FLOW_INT                   // FIFO overflow interrupt
	INT_STAT_CAD_INT                        // CTRL-ALT-DEL key sequence interrupt

	INT_STAT_ALL = INT_STAT_K_INT | INT_STAT_GPI_INT | INT_STAT_K_LCK_INT | INT_STAT_OVR_FLOW_INT | INT_STAT_CAD_INT
)

// Bits of REG_KEY_LCK_EC
const (
	KEY_LCK_EC_KEC_MASK = byte(0x0F) // Number of events in the FIFO
	KEY_LCK_EC_LCK1     = byte(0x10)
	KEY_LCK_EC_LCK2     = byte(0x20)
	KEY_LCK_EC_K_LCK_EN = byte(0x40)
)

// Pin numbers
const (
	R0 = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	C0
	C1
	C2
	C3
	C4
	C5
	C6
	C7
	C8
	C9

	NUM_PINS = C9 + 1
	NUM_ROWS = C0
	NUM_COLS = NUM_PINS - NUM_ROWS
)

const (
	ADDRESS = byte(0x34) // Fixed, not configurable through address pins

	FIFO_DEPTH = 10

	// Mask of the bits used by a bank: 8 rows, 10 columns
	PIN_MASK = uint32(1)<<NUM_PINS - 1
)
