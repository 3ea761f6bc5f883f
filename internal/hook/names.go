package hook

import "strconv"

// runeNames covers printable ASCII keys. X11 keysyms for these equal the rune.
var runeNames = map[rune]string{
	' ':  "Space",
	'-':  "Minus",
	'=':  "Equal",
	'[':  "BracketLeft",
	']':  "BracketRight",
	'\\': "Backslash",
	';':  "Semicolon",
	'\'': "Quote",
	'`':  "Backquote",
	',':  "Comma",
	'.':  "Period",
	'/':  "Slash",
}

// shiftedRunes maps shifted symbols back to the key that produces them on
// a US layout
var shiftedRunes = map[rune]rune{
	'!': '1', '@': '2', '#': '3', '$': '4', '%': '5',
	'^': '6', '&': '7', '*': '8', '(': '9', ')': '0',
	'_': '-', '+': '=', '{': '[', '}': ']', '|': '\\',
	':': ';', '"': '\'', '~': '`', '<': ',', '>': '.', '?': '/',
}

// RuneName returns the key name for a typed character, or "" if unknown
func RuneName(r rune) string {
	if base, ok := shiftedRunes[r]; ok {
		r = base
	}
	switch {
	case r >= 'a' && r <= 'z':
		return "Key" + string(r-'a'+'A')
	case r >= 'A' && r <= 'Z':
		return "Key" + string(r)
	case r >= '0' && r <= '9':
		return "Digit" + string(r)
	}
	return runeNames[r]
}

// keysymNames covers the non-printable X11 keysyms
var keysymNames = map[uint32]string{
	0xff08: "Backspace",
	0xff09: "Tab",
	0xff0d: "Enter",
	0xff13: "Pause",
	0xff14: "ScrollLock",
	0xff1b: "Escape",
	0xff50: "Home",
	0xff51: "ArrowLeft",
	0xff52: "ArrowUp",
	0xff53: "ArrowRight",
	0xff54: "ArrowDown",
	0xff55: "PageUp",
	0xff56: "PageDown",
	0xff57: "End",
	0xff61: "PrintScreen",
	0xff63: "Insert",
	0xff67: "ContextMenu",
	0xff7f: "NumLock",
	0xff8d: "NumpadEnter",
	0xffe1: "ShiftLeft",
	0xffe2: "ShiftRight",
	0xffe3: "ControlLeft",
	0xffe4: "ControlRight",
	0xffe5: "CapsLock",
	0xffe9: "AltLeft",
	0xffea: "AltRight",
	0xffeb: "MetaLeft",
	0xffec: "MetaRight",
	0xfe03: "AltRight", // ISO_Level3_Shift
	0xffff: "Delete",
}

// KeysymName returns the key name for an X11 keysym, or "" if unknown
func KeysymName(sym uint32) string {
	switch {
	case sym >= 0xffbe && sym <= 0xffc9: // F1..F12
		return "F" + strconv.Itoa(int(sym-0xffbe)+1)
	case sym >= 0x20 && sym < 0x7f:
		return RuneName(rune(sym))
	}
	return keysymNames[sym]
}
