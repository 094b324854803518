package tca8418

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	EVENT_PRESSED   = byte(0x80) // 1: key pressed (or GPI active) 0: released
	EVENT_CODE_MASK = byte(0x7F)

	// Keypad matrix keys are numbered row*10 + col + 1
	KEY_CODE_MIN = byte(1)
	KEY_CODE_MAX = byte(NUM_ROWS * NUM_COLS)

	// GPI events: R0-R7 are 97-104, C0-C9 are 105-114
	GPI_CODE_MIN = byte(97)
	GPI_CODE_MAX = GPI_CODE_MIN + NUM_PINS - 1
)

// Event is one entry of the key event FIFO
type Event byte

func KeyCode(row, col int) byte {
	return byte(row*NUM_COLS+col) + KEY_CODE_MIN
}

func GpiCode(pin int) byte {
	return byte(pin) + GPI_CODE_MIN
}

func (e Event) Pressed() bool {
	return byte(e)&EVENT_PRESSED != 0
}

func (e Event) Code() byte {
	return byte(e) & EVENT_CODE_MASK
}

// Pin returns the pin of a GPI event
func (e Event) Pin() (int, bool) {
	code := e.Code()
	if code < GPI_CODE_MIN || code > GPI_CODE_MAX {
		return 0, false
	}
	return int(code - GPI_CODE_MIN), true
}

// Key returns the matrix position of a keypad event
func (e Event) Key() (row, col int, ok bool) {
	code := e.Code()
	if code < KEY_CODE_MIN || code > KEY_CODE_MAX {
		return 0, 0, false
	}
	n := int(code - KEY_CODE_MIN)
	return n / NUM_COLS, n % NUM_COLS, true
}

func (e Event) String() string {
	action := "released"
	if e.Pressed() {
		action = "pressed"
	}
	if pin, ok := e.Pin(); ok {
		return fmt.Sprintf("GPI %v %v (%#02x)", PinName(pin), action, byte(e))
	}
	if row, col, ok := e.Key(); ok {
		return fmt.Sprintf("Key R%vC%v %v (%#02x)", row, col, action, byte(e))
	}
	return fmt.Sprintf("Unknown event %#02x", byte(e))
}

// PinName returns R0-R7 or C0-C9
func PinName(pin int) string {
	switch {
	case pin >= R0 && pin <= R7:
		return fmt.Sprintf("R%v", pin-R0)
	case pin >= C0 && pin <= C9:
		return fmt.Sprintf("C%v", pin-C0)
	default:
		return fmt.Sprintf("invalid pin %v", pin)
	}
}

// ParsePin accepts pin names as returned by PinName, or plain pin numbers
func ParsePin(name string) (int, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	base, limit := 0, NUM_PINS
	switch {
	case strings.HasPrefix(upper, "R"):
		base, limit, upper = R0, NUM_ROWS, upper[1:]
	case strings.HasPrefix(upper, "C"):
		base, limit, upper = C0, NUM_COLS, upper[1:]
	}
	n, err := strconv.Atoi(upper)
	if err != nil {
		return 0, errors.Errorf("invalid pin name %q", name)
	}
	if n < 0 || n >= limit {
		return 0, errors.Wrapf(ErrPinRange, "invalid pin name %q", name)
	}
	return base + n, nil
}
