// SPDX-License-Identifier: EPL-2.0

package fx

import "errors"

var (
	// ErrInvalidArgument is returned when an effect type outside the
	// defined enumeration is used where a slot is required.
	ErrInvalidArgument = errors.New("effect type is not recognized")
)
