package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"briefdraft-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const memoryCollection = "chat_memory"

// MongoMemoryRepository stores chat memory documents in MongoDB
type MongoMemoryRepository struct {
	coll *mongo.Collection
}

// NewMongoMemoryRepository creates a repository over db.chat_memory
func NewMongoMemoryRepository(db *mongo.Database) *MongoMemoryRepository {
	return &MongoMemoryRepository{coll: db.Collection(memoryCollection)}
}

// EnsureIndexes creates the lookup index; safe to call repeatedly
func (r *MongoMemoryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "case_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create chat memory index: %w", err)
	}
	return nil
}

func (r *MongoMemoryRepository) Save(ctx context.Context, rec *models.MemoryRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Messages == nil {
		rec.Messages = models.ChatMessages{}
	}
	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to save chat memory: %w", err)
	}
	return nil
}

func (r *MongoMemoryRepository) FindLatest(ctx context.Context, clientID, caseID *string) (*models.MemoryRecord, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	rec := &models.MemoryRecord{}
	err := r.coll.FindOne(ctx, memoryFilter(clientID, caseID), opts).Decode(rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat memory: %w", err)
	}
	return rec, nil
}

// memoryFilter matches exactly on the provided fields; nil means any
func memoryFilter(clientID, caseID *string) bson.D {
	filter := bson.D{}
	if clientID != nil {
		filter = append(filter, bson.E{Key: "client_id", Value: *clientID})
	}
	if caseID != nil {
		filter = append(filter, bson.E{Key: "case_id", Value: *caseID})
	}
	return filter
}
