// Package input implements the NES controller-port protocol: $4016/$4017
// latch button state on a strobe write and shift it out one bit per read.
package input

import "log"

// Button identifies one of the eight NES controller buttons. Values are the
// bit positions spec.md §4.5 assigns to the packed controller byte
// (Right|Left|Down|Up|Start|Select|B|A, MSB to LSB).
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Short aliases used by callers that pass buttons by name.
const (
	A      = ButtonA
	B      = ButtonB
	Select = ButtonSelect
	Start  = ButtonStart
	Up     = ButtonUp
	Down   = ButtonDown
	Left   = ButtonLeft
	Right  = ButtonRight
)

// Controller models one NES controller port: a live button-state register
// plus the shift register that $4016/$4017 reads drain one bit at a time
// while strobe is low.
type Controller struct {
	buttons uint8 // live state, updated by SetButton/SetButtons at any time

	strobe   bool
	shiftReg uint8 // snapshot of buttons, consumed bit-by-bit while strobe is low
	readPos  uint8 // bits already shifted out this read sequence

	reads, writes uint64
	debug         bool
}

// New creates a Controller with no buttons held.
func New() *Controller {
	return &Controller{}
}

// SetButton updates a single button's held state.
func (c *Controller) SetButton(button Button, pressed bool) {
	before := c.buttons
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
	if c.debug && before != c.buttons {
		log.Printf("[input] button %#02x pressed=%t: %#02x -> %#02x", uint8(button), pressed, before, c.buttons)
	}
}

// SetButtons replaces all eight button states at once, in NES order
// (A, B, Select, Start, Up, Down, Left, Right).
func (c *Controller) SetButtons(buttons [8]bool) {
	var packed uint8
	order := [8]Button{ButtonA, ButtonB, ButtonSelect, ButtonStart, ButtonUp, ButtonDown, ButtonLeft, ButtonRight}
	for i, held := range buttons {
		if held {
			packed |= uint8(order[i])
		}
	}
	before := c.buttons
	c.buttons = packed
	if c.debug && before != c.buttons {
		log.Printf("[input] buttons: %#02x -> %#02x", before, c.buttons)
	}
}

// IsPressed reports whether button is currently held.
func (c *Controller) IsPressed(button Button) bool {
	return c.buttons&uint8(button) != 0
}

// Write handles a strobe write. While strobe stays high the shift register
// keeps re-latching the live button state every write; the instant it drops
// back to low, whatever was latched becomes the sequence the next 8 reads
// drain starting from button A.
func (c *Controller) Write(value uint8) {
	c.writes++
	strobeHigh := value&1 != 0

	if strobeHigh || c.strobe {
		c.shiftReg = c.buttons
		c.readPos = 0
	}
	c.strobe = strobeHigh

	if c.debug {
		log.Printf("[input] write %#02x strobe=%t shiftReg=%#02x", value, c.strobe, c.shiftReg)
	}
}

// Read shifts out the next bit in bit 0, with bit 6 set for the open-bus
// upper bits. While strobe is held high, reads keep returning button A's
// current state (readPos never advances past 0); once strobe drops, each
// read drains one more bit of the latched snapshot, and reads past the 8th
// bit return 0x40 (bit 0 clear).
func (c *Controller) Read() uint8 {
	c.reads++

	if c.strobe {
		return c.buttons&1 | 0x40
	}

	var result uint8 = 0x40
	if c.readPos < 8 {
		result |= c.shiftReg & 1
		c.shiftReg >>= 1
	}
	c.readPos++

	if c.debug && c.reads%10 == 0 {
		log.Printf("[input] read -> %#02x (pos=%d)", result, c.readPos)
	}
	return result
}

// Reset clears all controller state, as on power-up.
func (c *Controller) Reset() {
	*c = Controller{}
}

// EnableDebug toggles verbose logging of button and protocol state.
func (c *Controller) EnableDebug(enable bool) { c.debug = enable }

// GetBitPosition exposes the shift-register cursor for tests.
func (c *Controller) GetBitPosition() uint8 { return c.readPos }

// InputState owns both controller ports and answers the bus's $4016/$4017
// reads and writes.
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller
}

// NewInputState creates a fresh pair of controllers.
func NewInputState() *InputState {
	return &InputState{Controller1: New(), Controller2: New()}
}

// Reset clears both controllers.
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
}

// EnableDebug toggles logging on both controllers.
func (is *InputState) EnableDebug(enable bool) {
	is.Controller1.EnableDebug(enable)
	is.Controller2.EnableDebug(enable)
}

// SetButtons1 sets controller 1's button state.
func (is *InputState) SetButtons1(buttons [8]bool) { is.Controller1.SetButtons(buttons) }

// SetButtons2 sets controller 2's button state.
func (is *InputState) SetButtons2(buttons [8]bool) { is.Controller2.SetButtons(buttons) }

// Read dispatches a controller-port read. On both ports the upper bits carry
// the open-bus pattern (bit 6 set) rather than meaningful controller data.
func (is *InputState) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return is.Controller1.Read()
	case 0x4017:
		return is.Controller2.Read() | 0x40
	default:
		return 0
	}
}

// Write dispatches a controller-port write. Only $4016 carries the strobe
// signal, and it latches both controllers simultaneously.
func (is *InputState) Write(address uint16, value uint8) {
	if address == 0x4016 {
		is.Controller1.Write(value)
		is.Controller2.Write(value)
	}
}
