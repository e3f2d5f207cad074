// SPDX-License-Identifier: EPL-2.0

// Package fx keeps track of the native effect instances attached to a
// playback stream.
//
// Every effect category the engine knows about is a Type. A Registry holds at
// most one Handle per Type in a fixed slot, so looking up the echo instance of
// a stream is an array index, not a map lookup:
//
//	var reg fx.Registry
//	if err := reg.Set(fx.Echo, h); err != nil {
//	    return err
//	}
//	h = reg.Get(fx.Echo)
//
// The registry never creates or frees native instances. Whoever stores a
// handle is responsible for releasing it through the engine before the slot
// is overwritten.
package fx
