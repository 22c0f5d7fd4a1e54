package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/petrijr/formflow/pkg/api"
)

// MongoSubmissionStore is a SubmissionStore backed by a MongoDB collection.
type MongoSubmissionStore struct {
	coll *mongo.Collection
}

// Ensure it implements SubmissionStore.
var _ SubmissionStore = (*MongoSubmissionStore)(nil)

// NewMongoSubmissionStore creates a Mongo-backed submission store.
// dbName defaults to "formflow" if empty, collName defaults to "submissions".
func NewMongoSubmissionStore(client *mongo.Client, dbName, collName string) *MongoSubmissionStore {
	if dbName == "" {
		dbName = "formflow"
	}
	if collName == "" {
		collName = "submissions"
	}

	return &MongoSubmissionStore{
		coll: client.Database(dbName).Collection(collName),
	}
}

// mongoSubmissionDoc stores answers as a JSON string so that value kinds
// survive the round trip unchanged.
type mongoSubmissionDoc struct {
	ID          string `bson:"_id"`
	FormID      string `bson:"form_id"`
	FormVersion string `bson:"form_version,omitempty"`
	SessionID   string `bson:"session_id,omitempty"`
	Answers     string `bson:"answers"`
	SubmittedAt int64  `bson:"submitted_at"`
}

func (d *mongoSubmissionDoc) submission() (*api.Submission, error) {
	answers, err := DecodeAnswers([]byte(d.Answers))
	if err != nil {
		return nil, fmt.Errorf("submission %s: %w", d.ID, err)
	}
	return &api.Submission{
		ID:          d.ID,
		FormID:      d.FormID,
		FormVersion: d.FormVersion,
		SessionID:   d.SessionID,
		Answers:     answers,
		SubmittedAt: time.Unix(0, d.SubmittedAt).UTC(),
	}, nil
}

func (s *MongoSubmissionStore) SaveSubmission(ctx context.Context, sub *api.Submission) error {
	if err := checkSubmission(sub); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	answers, err := EncodeAnswers(sub.Answers)
	if err != nil {
		return err
	}

	doc := mongoSubmissionDoc{
		ID:          sub.ID,
		FormID:      sub.FormID,
		FormVersion: sub.FormVersion,
		SessionID:   sub.SessionID,
		Answers:     string(answers),
		SubmittedAt: sub.SubmittedAt.UnixNano(),
	}

	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": sub.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save submission %s: %w", sub.ID, err)
	}
	return nil
}

func (s *MongoSubmissionStore) GetSubmission(ctx context.Context, id string) (*api.Submission, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc mongoSubmissionDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return doc.submission()
}

func (s *MongoSubmissionStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]*api.Submission, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	bfilter := bson.M{}
	if filter.FormID != "" {
		bfilter["form_id"] = filter.FormID
	}
	if filter.SessionID != "" {
		bfilter["session_id"] = filter.SessionID
	}

	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: 1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cur, err := s.coll.Find(ctx, bfilter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*api.Submission{}
	for cur.Next(ctx) {
		var doc mongoSubmissionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		sub, err := doc.submission()
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
