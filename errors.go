// Copyright (c) 2025 Alfredo Vallejo
// SPDX-License-Identifier: MIT

package symbolic

import (
	"github.com/pkg/errors"
)

var (
	// ErrNotLive is returned when an id has no row in the hash-cons
	// table, whether it was reclaimed or never existed.
	ErrNotLive = errors.New("symbolic: id not live")

	// ErrMalformed is returned for constructions that indicate caller
	// bugs: wrong arity, wrong primitive entry point, container ops
	// applied to non-container nodes.
	ErrMalformed = errors.New("symbolic: malformed construction")

	// ErrCorrupt signals a broken structural invariant inside a
	// persistent container.
	ErrCorrupt = errors.New("symbolic: corrupt structure")
)

// notLive wraps ErrNotLive with the offending id and its operator.
func notLive(id ID) error {
	return errors.Wrapf(ErrNotLive, "op=%v id=%s", id.Op(), id)
}
