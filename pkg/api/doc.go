// Package api contains the core building blocks used by the formflow form
// engine: the schema model, answer values, form state, submissions and the
// Engine and Observer interfaces.
//
// Most users interact with the higher-level formflow package, which
// re-exports selected types and helpers from this package. The api package
// is intended for custom integrations such as alternative stores or
// observers.
//
// # Schemas
//
// A FormSchema is an ordered list of questions. Each question may carry
// validation rules and conditional logic that decides where the form goes
// after the question is answered. Schemas are decoded from JSON or YAML with
// ParseSchemaJSON and ParseSchemaYAML; field names are the same in both.
//
// FormSchema.Validate only rejects defects that would break the engine
// (empty or duplicate question ids). Softer authoring defects are reported by
// the lint package.
//
// # Answers
//
// AnswerValue is a tagged value holding nothing, a string, a number, a
// boolean or a list of strings or numbers. AnswerFrom converts plain Go and
// decoded JSON values.
//
// # Observability
//
// Engines report lifecycle events to an Observer. NoopObserver,
// LoggingObserver and BasicMetrics are ready-made implementations, and
// NewCompositeObserver fans events out to several of them.
//
// # Submissions
//
// A Submission is the durable record of one completed session. Stores for
// submissions and session events are constructed through the formflow
// package.
package api
