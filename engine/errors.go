// SPDX-License-Identifier: EPL-2.0

package engine

import "errors"

var (
	ErrEngineUnavailable = errors.New("audio engine unavailable")
	ErrUnknownStream     = errors.New("unknown stream handle")
	ErrUnknownEffect     = errors.New("unknown effect handle")
	ErrUnsupportedEffect = errors.New("effect not supported by engine")
)
