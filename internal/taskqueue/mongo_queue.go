package taskqueue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoQueue implements Queue on top of MongoDB.
//
// Collection schema:
//
//	{
//	  _id:        string,    // task ID
//	  payload:    string,    // JSON-encoded Task
//	  not_before: time.Time,
//	}
type MongoQueue struct {
	coll         *mongo.Collection
	pollInterval time.Duration
}

// NewMongoQueue creates a Mongo-backed queue.
// dbName defaults to "formflow", collName to "delivery_tasks".
func NewMongoQueue(client *mongo.Client, dbName, collName string) *MongoQueue {
	if dbName == "" {
		dbName = "formflow"
	}
	if collName == "" {
		collName = "delivery_tasks"
	}
	return &MongoQueue{
		coll:         client.Database(dbName).Collection(collName),
		pollInterval: 100 * time.Millisecond,
	}
}

// Ensure MongoQueue implements Queue.
var _ Queue = (*MongoQueue)(nil)

type mongoQueueDoc struct {
	ID        string    `bson:"_id"`
	Payload   string    `bson:"payload"`
	NotBefore time.Time `bson:"not_before"`
}

// Enqueue inserts a document for the given Task.
func (q *MongoQueue) Enqueue(ctx context.Context, t Task) error {
	t = normalize(t)
	data, err := EncodeTask(t)
	if err != nil {
		return err
	}

	doc := mongoQueueDoc{
		ID:        t.ID,
		Payload:   string(data),
		NotBefore: t.NotBefore.UTC(),
	}

	_, err = q.coll.InsertOne(ctx, doc)
	return err
}

// Dequeue blocks (via polling) until an eligible task is available or ctx is cancelled.
func (q *MongoQueue) Dequeue(ctx context.Context) (*Task, error) {
	tmr := newStoppedTimer()
	defer tmr.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		var doc mongoQueueDoc
		err := q.coll.FindOneAndDelete(
			ctx,
			bson.M{"not_before": bson.M{"$lte": time.Now().UTC()}},
			options.FindOneAndDelete().SetSort(bson.D{{Key: "not_before", Value: 1}, {Key: "_id", Value: 1}}),
		).Decode(&doc)

		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				if err := waitPoll(ctx, tmr, q.pollInterval); err != nil {
					return nil, err
				}
				continue
			}
			return nil, err
		}

		return DecodeTask([]byte(doc.Payload))
	}
}

// Len returns an approximate number of queued tasks.
func (q *MongoQueue) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	n, err := q.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		slog.Warn("mongo queue len failed", slog.Any("error", err))
		return 0
	}
	return int(n)
}
