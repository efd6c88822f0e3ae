// Package pipeline sequences the phage assembly and annotation stages over
// the process executor.
//
// The Runner owns the generic mechanics: parameter decoding, input
// validation, the fatality policy, result packaging. Everything
// tool-specific lives in the stage table (stages.go) and the maintenance
// action registry (actions.go), so the runner never special-cases a stage
// by name.
package pipeline
