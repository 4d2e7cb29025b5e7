// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// order engine and the payment reconciler to distinguish between
// different failure scenarios without inspecting SQL errors directly.
package repository

import "errors"

// ErrNoActiveSession is returned when a session lookup finds no row for
// a customer where one was expected. Sessions are created eagerly on
// first contact, so hitting this error indicates a bootstrap bug
// upstream and is not recovered from.
var ErrNoActiveSession = errors.New("no active session")

// ErrInvalidStep is returned when a stored step value falls outside the
// known enumeration. This is data corruption and is surfaced loudly
// rather than guessed at.
var ErrInvalidStep = errors.New("invalid step value")

// ErrStaleSession is returned when an optimistic update found the
// session no longer in the expected step, meaning another handler won
// the race. The losing write is simply not applied.
var ErrStaleSession = errors.New("stale session")
