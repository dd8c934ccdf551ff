package voxel

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolution is a voxel edge length, one of the power-of-two centimeter sizes.
type Resolution uint8

const (
	Size1cm Resolution = iota
	Size2cm
	Size4cm
	Size8cm
	Size16cm
	Size32cm
	Size64cm
	Size128cm
	Size256cm
	Size512cm
)

// ResolutionCount is the number of valid resolutions.
const ResolutionCount = 10

// AllResolutions returns every valid resolution, finest first.
func AllResolutions() []Resolution {
	out := make([]Resolution, ResolutionCount)
	for i := range out {
		out[i] = Resolution(i)
	}
	return out
}

// Valid reports whether r is one of the defined sizes.
func (r Resolution) Valid() bool {
	return r < ResolutionCount
}

// Centimeters returns the edge length in centimeters.
func (r Resolution) Centimeters() int {
	return 1 << r
}

// Meters returns the edge length in meters.
func (r Resolution) Meters() float64 {
	return float64(r.Centimeters()) / CentimetersPerMeter
}

// String returns the resolution in "4cm" form.
func (r Resolution) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Resolution(%d)", uint8(r))
	}
	return strconv.Itoa(r.Centimeters()) + "cm"
}

// MarshalText implements encoding.TextMarshaler.
func (r Resolution) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid resolution %d", uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Resolution) UnmarshalText(b []byte) error {
	parsed, err := ParseResolution(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseResolution accepts "4cm", "4" or "4 cm".
func ParseResolution(s string) (Resolution, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimSpace(strings.TrimSuffix(s, "cm"))
	cm, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid resolution %q: want one of 1cm..512cm", s)
	}
	return ResolutionFromCentimeters(cm)
}

// ResolutionFromCentimeters maps an edge length to its Resolution.
func ResolutionFromCentimeters(cm int) (Resolution, error) {
	for _, r := range AllResolutions() {
		if r.Centimeters() == cm {
			return r, nil
		}
	}
	return 0, fmt.Errorf("invalid resolution %dcm: want a power of two from 1 to 512", cm)
}
