// Package formflow provides a schema-driven, multi-step form engine for Go.
//
// A form is described declaratively by a FormSchema: an ordered list of
// questions with validation rules, conditional branching and presentation
// hints. The engine walks a user through the questions one at a time, keeps
// the answers, blocks forward navigation on validation failures, supports
// back navigation through a history stack and hands the answers to a submit
// callback when the form is finished. Rendering is left to the caller.
//
// # Core Concepts
//
//  1. FormSchema (built with SchemaBuilder or loaded from JSON/YAML)
//  2. Engine
//  3. Session
//  4. Host
//
// # Engine
//
// An Engine owns the state of one pass through a form and exposes the
// operations a renderer needs:
//
//   - SetAnswer stores an answer and clears its error
//   - NextStep validates the current answer, then jumps, advances or submits
//   - PrevStep returns to the previously visited question
//   - JumpToStep moves to an arbitrary question
//   - SubmitForm hands the answers to the callback without validation
//   - ResetForm starts over
//   - RegisterError lets the renderer report input-level errors
//
// State returns a copy of the session state; Progress reports how far the
// current question is through the form.
//
// Conditional logic is evaluated when leaving a question. Its entries are
// tried in order and the first whose conditions all hold decides where the
// form goes next; otherwise the next question in schema order follows, and
// the last question submits.
//
// # Session
//
// A Session wraps an Engine with an id and the schema's auto-reload timer:
// when AutoReload is set, a completed form is reset after ReloadDelay
// milliseconds unless the session is reset or closed first.
//
// # Host
//
// A Host keeps a registry of versioned schemas, opens sessions by form id
// and delivers each submission through a task queue to a SubmissionStore.
// Background workers retry failed deliveries with exponential backoff.
// Stores and queues are available for SQLite, Postgres, Redis and MongoDB;
// NewSQLiteHost wires all of them to a single database file.
//
// # Observability
//
// Observers receive lifecycle callbacks from every engine. LoggingObserver
// writes them to log/slog, BasicMetrics counts them and EventRecorder
// appends them to an EventStore. Combine several with NewCompositeObserver.
package formflow
