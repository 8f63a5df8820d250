package room

import "errors"

// ErrBadRequest marks a malformed operation: a join without a user id or a
// send without content.
var ErrBadRequest = errors.New("bad request")

// ErrProtocol marks an inbound frame that could not be parsed or dispatched.
// It is isolated to the offending connection; the room is unaffected.
var ErrProtocol = errors.New("protocol error")
