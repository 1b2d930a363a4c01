package input

// ANSI (US QWERTY) virtual key codes for the characters a shortcut can use.
var ansiKeyCodes = map[byte]uint16{
	'a': 0, 's': 1, 'd': 2, 'f': 3, 'h': 4, 'g': 5, 'z': 6, 'x': 7,
	'c': 8, 'v': 9, 'b': 11, 'q': 12, 'w': 13, 'e': 14, 'r': 15,
	'y': 16, 't': 17, '1': 18, '2': 19, '3': 20, '4': 21, '6': 22,
	'5': 23, '=': 24, '9': 25, '7': 26, '-': 27, '8': 28, '0': 29,
	']': 30, 'o': 31, 'u': 32, '[': 33, 'i': 34, 'p': 35, 'l': 37,
	'j': 38, '\'': 39, 'k': 40, ';': 41, '\\': 42, ',': 43, '/': 44,
	'n': 45, 'm': 46, '.': 47,
}

// KeyCodeFor returns the key code producing char on an ANSI layout.
// char must be a single character; letters are matched case-insensitively.
func KeyCodeFor(char string) (uint16, bool) {
	if len(char) != 1 {
		return 0, false
	}
	c := char[0]
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	code, ok := ansiKeyCodes[c]
	return code, ok
}
