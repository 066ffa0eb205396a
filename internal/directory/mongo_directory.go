package directory

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoDirectory struct {
	coll *mongo.Collection
}

// NewMongoDirectory reads and updates the shared users collection owned by
// the user service. Chat only touches the presence fields.
func NewMongoDirectory(coll *mongo.Collection) UserDirectory {
	return &mongoDirectory{coll: coll}
}

func (d *mongoDirectory) Get(ctx context.Context, userID primitive.ObjectID) (*Profile, error) {
	var p Profile
	if err := d.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (d *mongoDirectory) SetPresence(ctx context.Context, userID primitive.ObjectID, online bool, lastSeen *time.Time) error {
	set := bson.M{"isOnline": online}
	if !online && lastSeen != nil {
		set["lastSeen"] = *lastSeen
	}
	res, err := d.coll.UpdateByID(ctx, userID, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
