package result

// Modifier is the modifier key held when a result was dispatched.
type Modifier string

const (
	ModNone      Modifier = "none"
	ModShift     Modifier = "shift"
	ModCtrl      Modifier = "ctrl"
	ModAlt       Modifier = "alt"
	ModAltGr     Modifier = "altgr"
	ModShiftCtrl Modifier = "shift_ctrl"
)

// ModifierFromFlags collapses raw key flags into a single Modifier.
// AltGr wins over everything because it arrives with spurious ctrl on
// some keyboard layouts.
func ModifierFromFlags(shift, ctrl, alt, altgr bool) Modifier {
	switch {
	case altgr:
		return ModAltGr
	case shift && ctrl:
		return ModShiftCtrl
	case shift:
		return ModShift
	case ctrl:
		return ModCtrl
	case alt:
		return ModAlt
	default:
		return ModNone
	}
}
