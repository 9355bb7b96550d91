package domain

// ExposureState is the signed net position in one asset aggregated across
// both venues, in quote-currency units, together with the configured cap.
type ExposureState struct {
	Asset   string
	NetSize float64
	MaxSize float64
}

// Reduces reports whether opening the given direction would move the current
// net position toward zero. Reducing trades are never blocked by the cap.
func (e ExposureState) Reduces(d Direction) bool {
	switch d {
	case DirectionLong:
		return e.NetSize < 0
	case DirectionShort:
		return e.NetSize > 0
	}
	return false
}

// CanOpen reports whether a new position in the given direction is allowed
// under the cap. Reducing directions are always allowed.
func (e ExposureState) CanOpen(d Direction) bool {
	if e.Reduces(d) {
		return true
	}
	switch d {
	case DirectionLong:
		return e.NetSize < e.MaxSize
	case DirectionShort:
		return e.NetSize > -e.MaxSize
	}
	return false
}
