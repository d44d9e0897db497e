// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The answer pipeline is straight-line: embed the question, retrieve the
// nearest chunks, generate. Nothing is retried and no state is shared
// between calls beyond the read-mostly collaborators passed in.
package services
