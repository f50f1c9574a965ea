package repository

import (
	"context"
	"time"

	"moduo/internal/model"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	ListActive(ctx context.Context, limit int) ([]*model.Session, error)
	ListPastForUser(ctx context.Context, userID string, limit int) ([]*model.Session, error)
	// SetParticipant sets the participant only if none is set yet. Returns
	// (nil, nil) when the conditional update matched no document.
	SetParticipant(ctx context.Context, id, userID string) (*model.Session, error)
	// Complete flips status to completed only while the session is still
	// active. Returns (nil, nil) when the session was not active.
	Complete(ctx context.Context, id string) (*model.Session, error)
	SetResourceState(ctx context.Context, id string, state model.ResourceState) error
	FindStaleProvisioning(ctx context.Context, olderThan time.Time) ([]*model.Session, error)
	FindUnreleased(ctx context.Context) ([]*model.Session, error)
}

type sessionRepo struct {
	collection *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{
		collection: db.Collection("sessions"),
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.collection.InsertOne(ctx, session)
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, map[string]interface{}{"_id": id}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &session, nil
}

func (r *sessionRepo) ListActive(ctx context.Context, limit int) ([]*model.Session, error) {
	filter := map[string]interface{}{"status": model.SessionActive}
	return r.list(ctx, filter, limit)
}

func (r *sessionRepo) ListPastForUser(ctx context.Context, userID string, limit int) ([]*model.Session, error) {
	filter := map[string]interface{}{
		"status": model.SessionCompleted,
		"$or": []map[string]interface{}{
			{"hostId": userID},
			{"participantId": userID},
		},
	}
	return r.list(ctx, filter, limit)
}

func (r *sessionRepo) list(ctx context.Context, filter map[string]interface{}, limit int) ([]*model.Session, error) {
	opts := options.Find().
		SetSort(map[string]interface{}{"createdAt": -1}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []*model.Session{}
	for cursor.Next(ctx) {
		var session model.Session
		if err := cursor.Decode(&session); err != nil {
			return nil, err
		}
		sessions = append(sessions, &session)
	}

	return sessions, cursor.Err()
}

// SetParticipant is a single conditional update so that two simultaneous
// joiners cannot both win: the filter requires the participant field to be
// absent at write time.
func (r *sessionRepo) SetParticipant(ctx context.Context, id, userID string) (*model.Session, error) {
	filter := map[string]interface{}{
		"_id":           id,
		"status":        model.SessionActive,
		"participantId": map[string]interface{}{"$exists": false},
	}
	update := map[string]interface{}{
		"$set": map[string]interface{}{"participantId": userID},
	}

	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *sessionRepo) Complete(ctx context.Context, id string) (*model.Session, error) {
	filter := map[string]interface{}{
		"_id":    id,
		"status": model.SessionActive,
	}
	update := map[string]interface{}{
		"$set": map[string]interface{}{"status": model.SessionCompleted},
	}

	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *sessionRepo) findOneAndUpdate(ctx context.Context, filter, update map[string]interface{}) (*model.Session, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var session model.Session
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &session, nil
}

func (r *sessionRepo) SetResourceState(ctx context.Context, id string, state model.ResourceState) error {
	update := map[string]interface{}{
		"$set": map[string]interface{}{"resourceState": state},
	}
	_, err := r.collection.UpdateOne(ctx, map[string]interface{}{"_id": id}, update)
	return err
}

func (r *sessionRepo) FindStaleProvisioning(ctx context.Context, olderThan time.Time) ([]*model.Session, error) {
	filter := map[string]interface{}{
		"status":        model.SessionActive,
		"resourceState": model.ResourcesPending,
		"createdAt":     map[string]interface{}{"$lt": olderThan},
	}
	return r.list(ctx, filter, 100)
}

func (r *sessionRepo) FindUnreleased(ctx context.Context) ([]*model.Session, error) {
	filter := map[string]interface{}{
		"status":        model.SessionCompleted,
		"resourceState": map[string]interface{}{"$ne": model.ResourcesReleased},
	}
	return r.list(ctx, filter, 100)
}
