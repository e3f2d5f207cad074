// SPDX-License-Identifier: EPL-2.0

package fx

import "fmt"

// Handle is the engine identifier of an effect instance. The registry holds
// it by value and never releases it.
type Handle int

const (
	// None marks an empty slot.
	None Handle = 0
	// Invalid is what Get returns for a type outside the enumeration.
	Invalid Handle = -1
)

// Registry maps each effect Type to at most one Handle. The zero value is an
// empty registry. A Registry is not safe for concurrent use.
type Registry struct {
	handles [NumTypes]Handle
}

// Get returns the handle stored for t, None when nothing is attached and
// Invalid when t is not a defined type.
func (r *Registry) Get(t Type) Handle {
	i, ok := slot(t)
	if !ok {
		return Invalid
	}
	return r.handles[i]
}

// Set stores h in the slot of t, replacing whatever was there. The previous
// handle is not released.
func (r *Registry) Set(t Type, h Handle) error {
	i, ok := slot(t)
	if !ok {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, t)
	}
	r.handles[i] = h
	return nil
}

// Attached lists the types that currently hold a handle, in slot order.
func (r *Registry) Attached() []Type {
	var out []Type
	for i, h := range r.handles {
		if h != None {
			out = append(out, slots[i].t)
		}
	}
	return out
}

// Reset empties every slot.
func (r *Registry) Reset() {
	r.handles = [NumTypes]Handle{}
}
