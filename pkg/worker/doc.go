// Package worker delivers submitted forms to a submission store in the
// background.
//
// A form engine's submit callback only enqueues a delivery task; workers
// consume those tasks from a task queue and save the submission. A failed
// save is re-enqueued with exponential backoff until the configured number
// of attempts is exhausted, after which the task is dropped and logged.
//
// Workers are decoupled from any particular backend. Any queue and store
// pair (in-memory, SQLite, Postgres, Redis, MongoDB) can be combined, and
// several workers may safely consume the same queue because saving a
// submission is idempotent.
//
// Most applications obtain a worker through the formflow Host, which wires
// engines, queues, stores and observers together.
package worker
