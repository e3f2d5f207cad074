// SPDX-License-Identifier: EPL-2.0

package player

import "errors"

var (
	ErrNoSource          = errors.New("no source to play")
	ErrUnsupportedSource = errors.New("unsupported source type")
)
