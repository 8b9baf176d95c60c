package metrics

// keyClass buckets keycodes for weighting. Codes follow the common desktop
// virtual-keycode layout delivered by the input hook.
type keyClass int

const (
	classProductive keyClass = iota
	classNavigation
	classOther
)

var navigationCodes = map[int]struct{}{
	16: {}, // shift
	17: {}, // control
	18: {}, // alt
	20: {}, // caps lock
	27: {}, // escape
	33: {}, // page up
	34: {}, // page down
	35: {}, // end
	36: {}, // home
	37: {}, // left
	38: {}, // up
	39: {}, // right
	40: {}, // down
	45: {}, // insert
	91: {}, // meta left
	92: {}, // meta right
	93: {}, // context menu
}

func classify(code int) keyClass {
	if _, ok := navigationCodes[code]; ok {
		return classNavigation
	}
	// Function keys F1-F12.
	if code >= 112 && code <= 123 {
		return classNavigation
	}
	switch {
	case code == 8 || code == 9 || code == 13 || code == 32: // backspace, tab, enter, space
		return classProductive
	case code >= 48 && code <= 57: // digits
		return classProductive
	case code >= 65 && code <= 90: // letters
		return classProductive
	case code >= 96 && code <= 111: // numpad
		return classProductive
	case code >= 186 && code <= 222: // punctuation
		return classProductive
	}
	return classOther
}
