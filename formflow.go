package formflow

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/petrijr/formflow/internal/engine"
	"github.com/petrijr/formflow/internal/persistence"
	"github.com/petrijr/formflow/internal/taskqueue"
	"github.com/petrijr/formflow/internal/validation"
	"github.com/petrijr/formflow/pkg/api"
	"github.com/petrijr/formflow/pkg/template"
	"github.com/petrijr/formflow/pkg/worker"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Engine               = api.Engine
	EngineConfig         = engine.Config
	FormSchema           = api.FormSchema
	Question             = api.Question
	QuestionType         = api.QuestionType
	Option               = api.Option
	ValidationRules      = api.ValidationRules
	QuestionLogic        = api.QuestionLogic
	LogicCondition       = api.LogicCondition
	LogicAction          = api.LogicAction
	Operator             = api.Operator
	Theme                = api.Theme
	I18n                 = api.I18n
	AnswerValue          = api.AnswerValue
	Answers              = api.Answers
	FormState            = api.FormState
	SubmitFunc           = api.SubmitFunc
	Validator            = api.Validator
	ValidatorFunc        = api.ValidatorFunc
	ValidationMode       = api.ValidationMode
	Submission           = api.Submission
	FormEvent            = api.FormEvent
	RetryPolicy          = api.RetryPolicy
	Observer             = api.Observer
	SessionInfo          = api.SessionInfo
	StepReason           = api.StepReason
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver

	SubmissionStore  = persistence.SubmissionStore
	SubmissionFilter = persistence.SubmissionFilter
	EventStore       = persistence.EventStore
	Queue            = taskqueue.Queue
	WorkerConfig     = worker.Config
)

// Re-export common constructors and helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver

	String  = api.String
	Number  = api.Number
	Bool    = api.Bool
	Strings = api.Strings
	Numbers = api.Numbers

	ParseSchemaJSON = api.ParseSchemaJSON
	ParseSchemaYAML = api.ParseSchemaYAML
)

// Re-export validation modes and sentinel errors.

const (
	ValidationRequiredOnly = api.ValidationRequiredOnly
	ValidationStrict       = api.ValidationStrict
)

var (
	ErrInvalidSchema      = api.ErrInvalidSchema
	ErrFormNotFound       = engine.ErrFormNotFound
	ErrVersionExists      = engine.ErrVersionExists
	ErrSubmissionNotFound = persistence.ErrSubmissionNotFound
	ErrQueueClosed        = taskqueue.ErrQueueClosed
)

// Engine constructors
// These wrap the internal/engine package so external callers
// never need to import internal packages.

// NewEngine returns an Engine positioned on the first question of schema.
// onSubmit may be nil.
func NewEngine(schema *FormSchema, onSubmit SubmitFunc) (Engine, error) {
	return engine.NewEngine(schema, onSubmit)
}

// NewEngineWithConfig returns an Engine with an explicit observer, logger
// and validation mode.
func NewEngineWithConfig(ctx context.Context, schema *FormSchema, onSubmit SubmitFunc, cfg EngineConfig) (Engine, error) {
	return engine.NewEngineWithConfig(ctx, schema, onSubmit, cfg)
}

// Storage and queue constructors for the submission pipeline.

// NewInMemoryStore returns a non-durable SubmissionStore.
func NewInMemoryStore() SubmissionStore {
	return persistence.NewInMemoryStore()
}

// NewSQLiteSubmissionStore stores submissions in a SQLite database.
func NewSQLiteSubmissionStore(db *sql.DB) (SubmissionStore, error) {
	return persistence.NewSQLiteSubmissionStore(db)
}

// NewPostgresSubmissionStore stores submissions in PostgreSQL.
func NewPostgresSubmissionStore(db *sql.DB) (SubmissionStore, error) {
	return persistence.NewPostgresSubmissionStore(db)
}

// NewRedisSubmissionStore stores submissions in Redis under prefix.
func NewRedisSubmissionStore(client *redis.Client, prefix string) SubmissionStore {
	return persistence.NewRedisSubmissionStore(client, prefix)
}

// NewMongoSubmissionStore stores submissions in MongoDB.
func NewMongoSubmissionStore(client *mongo.Client, dbName, collName string) SubmissionStore {
	return persistence.NewMongoSubmissionStore(client, dbName, collName)
}

// NewInMemoryEventStore returns a non-durable EventStore.
func NewInMemoryEventStore() EventStore {
	return persistence.NewInMemoryEventStore()
}

// NewSQLiteEventStore records session events in a SQLite database.
func NewSQLiteEventStore(db *sql.DB) (EventStore, error) {
	return persistence.NewSQLiteEventStore(db)
}

// NewInMemoryQueue returns a channel-backed delivery queue. Retries wait on
// timers until there is room; the queue's Close method (io.Closer) releases
// them when it is discarded.
func NewInMemoryQueue(capacity int) Queue {
	return taskqueue.NewInMemoryQueue(capacity)
}

// NewSQLiteQueue returns a delivery queue persisted in SQLite.
func NewSQLiteQueue(db *sql.DB) (Queue, error) {
	return taskqueue.NewSQLiteQueue(db)
}

// NewPostgresQueue returns a delivery queue persisted in PostgreSQL.
func NewPostgresQueue(db *sql.DB) (Queue, error) {
	return taskqueue.NewPostgresQueue(db)
}

// NewRedisQueue returns a delivery queue kept in a Redis sorted set.
func NewRedisQueue(client *redis.Client, prefix string) Queue {
	return taskqueue.NewRedisQueue(client, prefix)
}

// NewMongoQueue returns a delivery queue persisted in MongoDB.
func NewMongoQueue(client *mongo.Client, dbName, collName string) Queue {
	return taskqueue.NewMongoQueue(client, dbName, collName)
}

// Convenience helpers.

// CheckAnswer runs every validation rule of q against answer and returns the
// user-facing message, or "" when the answer is acceptable.
func CheckAnswer(schema *FormSchema, q *Question, answer AnswerValue) string {
	return validation.Check(q, answer, schema.RequiredMessage()).Message
}

// Interpolate replaces {{questionId}} placeholders in text with answers.
func Interpolate(text string, answers Answers) string {
	return template.Interpolate(text, answers)
}

// LoadSchemaFile reads a schema from a .json, .yaml or .yml file.
func LoadSchemaFile(path string) (*FormSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return api.ParseSchemaJSON(data)
	case ".yaml", ".yml":
		return api.ParseSchemaYAML(data)
	default:
		return nil, fmt.Errorf("%w: unsupported schema file extension %q", ErrInvalidSchema, filepath.Ext(path))
	}
}
