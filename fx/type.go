// SPDX-License-Identifier: EPL-2.0

package fx

import (
	"fmt"
	"strings"
)

// Type identifies a category of DSP effect. The numeric values follow the
// engine numbering and are not contiguous; use the registry slot table to
// turn a Type into an index.
type Type int

// DirectX-style effects.
const (
	DXChorus Type = iota
	DXDistortion
	DXEcho
	DXFlanger
	DXCompressor
	DXGargle
	DXI3DL2Reverb
	DXParamEQ
	DXReverb
)

// Extended effects.
const (
	Rotate         Type = 0x10000
	Volume         Type = 0x10003
	PeakEQ         Type = 0x10004
	Mix            Type = 0x10007
	Damp           Type = 0x10008
	AutoWah        Type = 0x10009
	Phaser         Type = 0x1000B
	Chorus         Type = 0x1000D
	Distortion     Type = 0x10010
	VolumeEnvelope Type = 0x10012
	BQF            Type = 0x10013
	Echo           Type = 0x10014
	PitchShift     Type = 0x10015
	Freeverb       Type = 0x10016
)

// slots lists every Type in registry order. It is the only place the
// Type -> slot mapping is written down.
var slots = [...]struct {
	t    Type
	name string
}{
	{DXChorus, "dxchorus"},
	{DXDistortion, "dxdistortion"},
	{DXEcho, "dxecho"},
	{DXFlanger, "dxflanger"},
	{DXCompressor, "dxcompressor"},
	{DXGargle, "dxgargle"},
	{DXI3DL2Reverb, "dxi3dl2reverb"},
	{DXParamEQ, "dxparameq"},
	{DXReverb, "dxreverb"},
	{Rotate, "rotate"},
	{Volume, "volume"},
	{PeakEQ, "peakeq"},
	{Mix, "mix"},
	{Damp, "damp"},
	{AutoWah, "autowah"},
	{Phaser, "phaser"},
	{Chorus, "chorus"},
	{Distortion, "distortion"},
	{VolumeEnvelope, "volumeenvelope"},
	{BQF, "bqf"},
	{PitchShift, "pitchshift"},
	{Freeverb, "freeverb"},
	{Echo, "echo"},
}

// NumTypes is the number of defined effect types, and the number of slots in
// a Registry.
const NumTypes = len(slots)

var slotOf = make(map[Type]int, NumTypes)

func init() {
	for i, s := range slots {
		if _, dup := slotOf[s.t]; dup {
			panic(fmt.Sprintf("fx: type %#x bound to more than one slot", int(s.t)))
		}
		slotOf[s.t] = i
	}
}

// slot returns the registry index of t, or false when t is not a defined type.
func slot(t Type) (int, bool) {
	i, ok := slotOf[t]
	return i, ok
}

// Valid reports whether t is one of the defined effect types.
func (t Type) Valid() bool {
	_, ok := slot(t)
	return ok
}

func (t Type) String() string {
	if i, ok := slot(t); ok {
		return slots[i].name
	}
	return fmt.Sprintf("fx.Type(%#x)", int(t))
}

// Types returns every defined effect type in slot order.
func Types() []Type {
	out := make([]Type, NumTypes)
	for i, s := range slots {
		out[i] = s.t
	}
	return out
}

// ParseType resolves a case-insensitive effect name such as "echo" or
// "DXParamEQ".
func ParseType(name string) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, s := range slots {
		if s.name == key {
			return s.t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown effect %q", ErrInvalidArgument, name)
}
