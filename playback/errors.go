// SPDX-License-Identifier: EPL-2.0

package playback

import "errors"

var (
	// ErrInvalidOperation is returned when a lifecycle call is not allowed
	// from the current state.
	ErrInvalidOperation = errors.New("operation not allowed in current playback state")
)
