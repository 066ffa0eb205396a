// Package presence counts live sessions per user so that a user with several
// open devices only goes offline when the last one disconnects.
package presence

import "context"

type Tracker interface {
	// Connect registers a session. first is true when this is the user's
	// only live session, i.e. the user just came online.
	Connect(ctx context.Context, userID, connID string) (first bool, err error)

	// Disconnect removes a session. last is true when no sessions remain,
	// i.e. the user just went offline.
	Disconnect(ctx context.Context, userID, connID string) (last bool, err error)
}
