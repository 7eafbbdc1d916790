package calibration

import "encoding/json"

// DeviceOrientation is how the handheld was held when the baseline
// calibration was taken. It decides whether the accelerometer X/Y axes
// are swapped before any offset math is applied.
type DeviceOrientation int

const (
	OrientationUnknown DeviceOrientation = iota
	OrientationPortrait
	OrientationLandscapeRight
	OrientationLandscapeLeft
	OrientationFlat
)

func (o DeviceOrientation) String() string {
	switch o {
	case OrientationPortrait:
		return "portrait"
	case OrientationLandscapeRight:
		return "landscapeRight"
	case OrientationLandscapeLeft:
		return "landscapeLeft"
	case OrientationFlat:
		return "flat"
	default:
		return "unknown"
	}
}

// ParseOrientation maps an identifier string back to an orientation.
// Unrecognized strings map to OrientationUnknown rather than failing, so
// records written by newer app versions stay loadable.
func ParseOrientation(s string) DeviceOrientation {
	switch s {
	case "portrait":
		return OrientationPortrait
	case "landscapeRight":
		return OrientationLandscapeRight
	case "landscapeLeft":
		return OrientationLandscapeLeft
	case "flat":
		return OrientationFlat
	default:
		return OrientationUnknown
	}
}

func (o DeviceOrientation) IsLandscape() bool {
	return o == OrientationLandscapeRight || o == OrientationLandscapeLeft
}

func (o DeviceOrientation) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *DeviceOrientation) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*o = ParseOrientation(s)
	return nil
}

// CanonicalAccel maps a raw accelerometer reading into the canonical
// device frame. Landscape holds swap X and Y; portrait, flat and unknown
// pass through unchanged.
func CanonicalAccel(ax, ay, az float64, o DeviceOrientation) (float64, float64, float64) {
	if o.IsLandscape() {
		return ay, ax, az
	}
	return ax, ay, az
}
