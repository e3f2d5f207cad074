// SPDX-License-Identifier: EPL-2.0

package playback

import "github.com/ik5/audfx/engine"

const (
	DefaultVolume  = 1.0
	DefaultPanning = 0.0
	DefaultSpeed   = 1.0
	DefaultPitch   = 0.0
)

// Attributes are the scalar sound settings of a player. Pitch is in
// semitones, Speed is a factor of the original tempo.
type Attributes struct {
	Volume  float64
	Panning float64
	Speed   float64
	Pitch   float64
}

// DefaultAttributes returns unity volume, centre panning, original speed
// and pitch.
func DefaultAttributes() Attributes {
	return Attributes{
		Volume:  DefaultVolume,
		Panning: DefaultPanning,
		Speed:   DefaultSpeed,
		Pitch:   DefaultPitch,
	}
}

var attrRanges = map[engine.Attribute][2]float64{
	engine.AttrVolume:  {0, 1},
	engine.AttrPanning: {-1, 1},
	engine.AttrSpeed:   {0.1, 4},
	engine.AttrPitch:   {-12, 12},
}

// set stores v, clamped to the attribute's range, and returns the stored
// value. Unknown attributes are ignored.
func (a *Attributes) set(attr engine.Attribute, v float64) (float64, bool) {
	r, ok := attrRanges[attr]
	if !ok {
		return 0, false
	}
	v = min(max(v, r[0]), r[1])

	switch attr {
	case engine.AttrVolume:
		a.Volume = v
	case engine.AttrPanning:
		a.Panning = v
	case engine.AttrSpeed:
		a.Speed = v
	case engine.AttrPitch:
		a.Pitch = v
	}
	return v, true
}

// each calls fn for every attribute in a fixed order.
func (a Attributes) each(fn func(engine.Attribute, float64) error) error {
	for _, kv := range []struct {
		attr engine.Attribute
		v    float64
	}{
		{engine.AttrVolume, a.Volume},
		{engine.AttrPanning, a.Panning},
		{engine.AttrSpeed, a.Speed},
		{engine.AttrPitch, a.Pitch},
	} {
		if err := fn(kv.attr, kv.v); err != nil {
			return err
		}
	}
	return nil
}
