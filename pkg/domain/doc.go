/*
Package domain contains the core domain models for the Capsid engine.

It defines the entities shared by every layer: run statuses, the structured
command descriptor, pipeline stages, run parameters, and the completion
events pushed to hosts. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture
principles.

# Key Entities

  - RunStatus: Lifecycle of a run (Idle, Running, Finished, Error, Aborted).
  - Command: A structured subprocess invocation (program + argument list).
  - Stage: One external-tool step with fatality and applicability policy.
  - Params: The resolved inputs and tuning knobs for a single run.
  - CompletionEvent: The terminal push delivered to hosts when a run ends.
*/
package domain
