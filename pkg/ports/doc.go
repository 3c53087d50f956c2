/*
Package ports defines the driven ports (interfaces) for the palette engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to read action definitions from any source and to keep session state in
any store.

# Key Interfaces

  - ActionLoader: Supplies declarative action specs (e.g., from YAML files or memory).
  - Watchable: Notifies that an ActionLoader's backing source changed.
  - StateStore: Persists and loads session NavigationState.
  - DistributedLocker: Provides distributed locking for concurrent session access.
  - Navigator: The per-session palette operations exposed to transport adapters.
*/
package ports
