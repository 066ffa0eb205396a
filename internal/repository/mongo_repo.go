package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/campushub/chat-service/internal/models"
)

type mongoRepo struct {
	coll *mongo.Collection
}

// NewMongoRepository wraps the messages collection and ensures the indexes
// the history and conversation queries rely on.
func NewMongoRepository(coll *mongo.Collection) MessageRepository {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "roomId", Value: 1}, {Key: "_id", Value: -1}}, Options: options.Index().SetName("room_history_idx")},
		{Keys: bson.D{{Key: "senderId", Value: 1}, {Key: "recipientId", Value: 1}, {Key: "_id", Value: -1}}, Options: options.Index().SetName("dm_history_idx")},
		{Keys: bson.D{{Key: "recipientId", Value: 1}}, Options: options.Index().SetName("recipient_idx")},
	}
	_, _ = coll.Indexes().CreateMany(context.Background(), indexes)
	return &mongoRepo{coll: coll}
}

func (r *mongoRepo) Insert(ctx context.Context, m *models.Message) error {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.Reactions == nil {
		m.Reactions = []models.Reaction{}
	}
	if m.ReadBy == nil {
		m.ReadBy = []models.ReadReceipt{}
	}
	_, err := r.coll.InsertOne(ctx, m)
	return err
}

func (r *mongoRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	var m models.Message
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *mongoRepo) ListRoom(ctx context.Context, roomID primitive.ObjectID, limit int64, before *primitive.ObjectID) ([]*models.Message, error) {
	filter := bson.M{"roomId": roomID, "isDeleted": false}
	if before != nil {
		filter["_id"] = bson.M{"$lt": *before}
	}
	return r.list(ctx, filter, limit)
}

func (r *mongoRepo) ListDirect(ctx context.Context, userID, peerID primitive.ObjectID, limit int64, before *primitive.ObjectID) ([]*models.Message, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"senderId": userID, "recipientId": peerID},
			bson.M{"senderId": peerID, "recipientId": userID},
		},
		"isDeleted": false,
	}
	if before != nil {
		filter["_id"] = bson.M{"$lt": *before}
	}
	return r.list(ctx, filter, limit)
}

func (r *mongoRepo) list(ctx context.Context, filter bson.M, limit int64) ([]*models.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*models.Message
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, cur.Err()
}

// SetReaction rewrites the reactions array in a single pipeline update:
// filter out any prior reaction by the user, then append the new one. One
// document operation, so concurrent reactors cannot lose each other's writes.
func (r *mongoRepo) SetReaction(ctx context.Context, msgID, userID primitive.ObjectID, emoji string) (*models.Message, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"reactions": bson.M{"$concatArrays": bson.A{
				bson.M{"$filter": bson.M{
					"input": "$reactions",
					"as":    "r",
					"cond":  bson.M{"$ne": bson.A{"$$r.userId", userID}},
				}},
				bson.A{bson.M{"userId": userID, "emoji": emoji}},
			}},
			"updatedAt": time.Now().UTC(),
		}}},
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": msgID}, update)
}

// MarkRead appends a read receipt only when the user has none yet; the guard
// lives in the filter so re-marking is a no-op rather than a duplicate.
func (r *mongoRepo) MarkRead(ctx context.Context, msgID, userID primitive.ObjectID, at time.Time) (*models.Message, error) {
	filter := bson.M{"_id": msgID, "readBy.userId": bson.M{"$ne": userID}}
	update := bson.M{"$push": bson.M{"readBy": bson.M{"userId": userID, "readAt": at}}}
	if _, err := r.coll.UpdateOne(ctx, filter, update); err != nil {
		return nil, err
	}
	// Zero matches means either already read or missing; GetByID settles it.
	return r.GetByID(ctx, msgID)
}

func (r *mongoRepo) Edit(ctx context.Context, msgID, senderID primitive.ObjectID, content string, at time.Time) (*models.Message, error) {
	filter := bson.M{"_id": msgID, "senderId": senderID, "isDeleted": false}
	update := bson.M{"$set": bson.M{"content": content, "isEdited": true, "updatedAt": at}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *mongoRepo) SoftDelete(ctx context.Context, msgID, senderID primitive.ObjectID, at time.Time) (*models.Message, error) {
	filter := bson.M{"_id": msgID, "senderId": senderID}
	update := bson.M{"$set": bson.M{"isDeleted": true, "updatedAt": at}}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *mongoRepo) findOneAndUpdate(ctx context.Context, filter bson.M, update any) (*models.Message, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m models.Message
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *mongoRepo) Conversations(ctx context.Context, userID primitive.ObjectID) ([]ConversationEntry, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"$or":         bson.A{bson.M{"senderId": userID}, bson.M{"recipientId": userID}},
			"recipientId": bson.M{"$ne": nil},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$cond": bson.M{
				"if":   bson.M{"$eq": bson.A{"$senderId", userID}},
				"then": "$recipientId",
				"else": "$senderId",
			}},
			"lastMessage": bson.M{"$first": "$$ROOT"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "lastMessage.createdAt", Value: -1}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []ConversationEntry
	for cur.Next(ctx) {
		var e ConversationEntry
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, cur.Err()
}
