// Package button defines the identity of a console button and the compact
// press/release event encoding used by input sources.
package button

import (
	"fmt"
	"strconv"
	"strings"
)

// Button identifies one physical or simulated button. Implementations must be
// comparable with == because buttons are used as map keys; two values are the
// same button iff they are equal.
type Button interface {
	String() string
}

// Key is the Button implementation shipped with the console.
type Key uint8

// List of all supported key codes.
const (
	NoKey Key = iota

	// LCD buttons, numbered left to right.
	KeyLCD1
	KeyLCD2
	KeyLCD3
	KeyLCD4
	KeyLCD5
	KeyLCD6
	KeyLCD7
	KeyLCD8

	// Hard buttons below the LCD strip.
	KeyMenu
	KeyBack
	KeyUp
	KeyDown
	KeyEnter

	numKeys
)

var keyNames = [...]string{
	NoKey:    "none",
	KeyLCD1:  "lcd1",
	KeyLCD2:  "lcd2",
	KeyLCD3:  "lcd3",
	KeyLCD4:  "lcd4",
	KeyLCD5:  "lcd5",
	KeyLCD6:  "lcd6",
	KeyLCD7:  "lcd7",
	KeyLCD8:  "lcd8",
	KeyMenu:  "menu",
	KeyBack:  "back",
	KeyUp:    "up",
	KeyDown:  "down",
	KeyEnter: "enter",
}

func (k Key) String() string {
	if k < numKeys {
		return keyNames[k]
	}
	return "INVALID"
}

// Hard reports whether k is a hard (mechanical) button rather than an LCD
// button. Hard buttons get a longer deferred classification window.
func (k Key) Hard() bool {
	return k >= KeyMenu && k < numKeys
}

// Valid reports whether k is a real key code.
func (k Key) Valid() bool {
	return k > NoKey && k < numKeys
}

// ParseKey accepts a key name ("menu", "lcd3") or its numeric code.
func ParseKey(s string) (Key, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range keyNames {
		if i != int(NoKey) && name == s {
			return Key(i), nil
		}
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil || !Key(n).Valid() {
		return NoKey, fmt.Errorf("unknown key %q", s)
	}
	return Key(n), nil
}

// Keys returns every valid key in code order.
func Keys() []Key {
	keys := make([]Key, 0, numKeys-1)
	for k := KeyLCD1; k < numKeys; k++ {
		keys = append(keys, k)
	}
	return keys
}

// KeyEvent is a single key press or release event.
type KeyEvent uint16

const (
	NoKeyEvent KeyEvent = iota // No key event was available.

	keyReleased = KeyEvent(1 << 15) // The upper bit is set when this is a release event
)

// Press returns the press event for k.
func Press(k Key) KeyEvent {
	return KeyEvent(k)
}

// Release returns the release event for k.
func Release(k Key) KeyEvent {
	return KeyEvent(k) | keyReleased
}

// Key returns the key code for this key event.
func (e KeyEvent) Key() Key {
	return Key(e) // lower 8 bits are the key code
}

// Pressed returns whether this event indicates a key press event. It returns
// true for a press, false for a release.
func (e KeyEvent) Pressed() bool {
	return e&keyReleased == 0
}

func (e KeyEvent) String() string {
	if e == NoKeyEvent {
		return "none"
	}
	if e.Pressed() {
		return "press " + e.Key().String()
	}
	return "release " + e.Key().String()
}
