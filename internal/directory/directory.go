// Package directory is the boundary to the platform's user service: profile
// lookup for message enrichment and the presence flags stored on the user.
package directory

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNotFound = errors.New("user not found")

// Profile carries the display fields chat attaches to messages and
// conversation summaries.
type Profile struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	FirstName string             `bson:"firstName" json:"firstName"`
	LastName  string             `bson:"lastName" json:"lastName"`
	ImageURL  string             `bson:"avatar" json:"imageUrl"`
	IsOnline  bool               `bson:"isOnline" json:"isOnline"`
	LastSeen  *time.Time         `bson:"lastSeen,omitempty" json:"lastSeen,omitempty"`
}

type UserDirectory interface {
	Get(ctx context.Context, userID primitive.ObjectID) (*Profile, error)

	// SetPresence flips the user's online flag. lastSeen is stamped only on
	// the transition to offline; online implies "now".
	SetPresence(ctx context.Context, userID primitive.ObjectID, online bool, lastSeen *time.Time) error
}
