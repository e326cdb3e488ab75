// Package events defines the planning events emitted on the event bus.
//
// Available event types:
//   - SolveStarted: a model was built and handed to the solver
//   - SolveFinished: a run ended, with or without a schedule
package events
