/*
Package ports defines the driven ports (interfaces) of the funnel engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various definition sources, session stores and analytics backends.

# Key Interfaces

  - DefinitionLoader: Retrieves funnel definitions (e.g., from a YAML file, a Loam directory or memory).
  - StateStore: Persists and loads session State between requests.
  - SessionLocker: Gives one replica at a time a session to transition.
  - AnalyticsSink and AnswerSink: Receive events and answer records, asynchronously.
*/
package ports
