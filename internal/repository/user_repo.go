package repository

import (
	"context"

	"moduo/internal/model"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepo interface {
	// Upsert inserts or replaces the user keyed by the identity provider's
	// external id.
	Upsert(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
	DeleteByExternalID(ctx context.Context, externalID string) error
}

type userRepo struct {
	collection *mongo.Collection
}

func NewUserRepo(db *mongo.Database) UserRepo {
	return &userRepo{
		collection: db.Collection("users"),
	}
}

func (r *userRepo) Upsert(ctx context.Context, user *model.User) error {
	filter := map[string]interface{}{"externalId": user.ExternalID}
	update := map[string]interface{}{
		"$set": map[string]interface{}{
			"name":            user.Name,
			"email":           user.Email,
			"profileImageUrl": user.ProfileImageURL,
		},
		"$setOnInsert": map[string]interface{}{
			"_id":        user.ID,
			"externalId": user.ExternalID,
			"createdAt":  user.CreatedAt,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, map[string]interface{}{"_id": id})
}

func (r *userRepo) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	return r.findOne(ctx, map[string]interface{}{"externalId": externalID})
}

func (r *userRepo) findOne(ctx context.Context, filter map[string]interface{}) (*model.User, error) {
	var user model.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (r *userRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	if len(ids) == 0 {
		return map[string]*model.User{}, nil
	}

	filter := map[string]interface{}{
		"_id": map[string]interface{}{"$in": ids},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := map[string]*model.User{}
	for cursor.Next(ctx) {
		var user model.User
		if err := cursor.Decode(&user); err != nil {
			return nil, err
		}
		users[user.ID] = &user
	}

	return users, cursor.Err()
}

func (r *userRepo) DeleteByExternalID(ctx context.Context, externalID string) error {
	_, err := r.collection.DeleteOne(ctx, map[string]interface{}{"externalId": externalID})
	return err
}
