// FilePath: server/dashboard/internal/repository/mongodb/mongo.events.go
package mongodb

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/itsatony/w4b_v3/server/dashboard/internal/errors"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/models"
	nuts "github.com/vaudience/go-nuts"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EventRepo implements repository.EventRepository on a MongoDB collection
type EventRepo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewEventRepository creates the repository and ensures its indexes
func NewEventRepository(ctx context.Context, client *mongo.Client, database, collection string) (*EventRepo, error) {
	repo := &EventRepo{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}
	if err := repo.initializeIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *EventRepo) initializeIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "event_time", Value: 1}}},
		{Keys: bson.D{{Key: "event_type", Value: 1}, {Key: "event_time", Value: 1}}},
	})
	if err != nil {
		return errors.NewDatabaseError("failed to create event indexes", err)
	}
	return nil
}

// Create inserts a new event document
func (r *EventRepo) Create(ctx context.Context, event *models.UploadedEvent) error {
	if event.ID == "" {
		event.ID = nuts.NID("evt", 12)
	}
	if event.UploadedAt.IsZero() {
		event.UploadedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, event); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.NewValidationError("event already exists", err)
		}
		nuts.L.Errorf("[EventRepository] Failed to create event: %v", err)
		return errors.NewDatabaseError("failed to create event", err)
	}
	return nil
}

// Get retrieves a single event by ID
func (r *EventRepo) Get(ctx context.Context, id string) (*models.UploadedEvent, error) {
	event := &models.UploadedEvent{}
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(event)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.NewNotFoundError("event not found", err)
	}
	if err != nil {
		nuts.L.Errorf("[EventRepository] Failed to get event %s: %v", id, err)
		return nil, errors.NewDatabaseError("failed to get event", err)
	}
	return event, nil
}

// List retrieves a page of events ordered by event time, without image payloads
func (r *EventRepo) List(ctx context.Context, filters models.EventFilters, offset, limit int) ([]*models.UploadedEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "event_time", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"image": 0})

	cursor, err := r.collection.Find(ctx, buildFilter(filters), opts)
	if err != nil {
		nuts.L.Errorf("[EventRepository] Failed to list events: %v", err)
		return nil, errors.NewDatabaseError("failed to list events", err)
	}
	defer cursor.Close(ctx)

	events := []*models.UploadedEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, errors.NewDatabaseError("failed to decode events", err)
	}
	return events, nil
}

// Ping checks the connection to the document store
func (r *EventRepo) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx, nil); err != nil {
		return errors.NewDatabaseError("failed to ping document store", err)
	}
	return nil
}

func buildFilter(filters models.EventFilters) bson.M {
	filter := bson.M{}
	if filters.Type != "" {
		filter["event_type"] = filters.Type
	}
	if tr := filters.EventTime; tr != nil {
		rng := bson.M{}
		if tr.Start != nil {
			rng["$gte"] = *tr.Start
		}
		if tr.End != nil {
			rng["$lte"] = *tr.End
		}
		if len(rng) > 0 {
			filter["event_time"] = rng
		}
	}
	return filter
}
