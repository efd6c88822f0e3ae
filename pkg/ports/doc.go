/*
Package ports defines the driven ports (interfaces) for the Capsid engine.

These interfaces decouple the core logic from external implementations,
allowing the engine to work with different sinks, executors and history
backends.

# Key Interfaces

  - Sink: The single write path through which execution output reaches the
    log buffer, with structured helpers for stage banners and notices.
  - Executor: Spawns one external command and streams its output to a Sink.
  - RunStore: Persists summaries of finished runs (e.g., in Memory or Redis).
*/
package ports
