// Package harness runs YAML-defined checkout scenarios against the real
// flow instance and orchestrator, with scripted service collaborators.
//
// A scenario declares a catalog, a customer, service behavior (which
// remote calls fail and how), and a sequence of user actions. Running it
// produces a deterministic trace of step transitions plus a final-state
// snapshot, compared against golden files with goldie.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
