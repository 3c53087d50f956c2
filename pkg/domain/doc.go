/*
Package domain contains the core domain models of the palette engine.

It defines the entities shared by the action tree, the search engine, the shortcut
matcher and the navigation controller. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - ActionNode: A registered command (or command group) stored in the action tree.
  - Perform: The tagged variant describing what happens when a node is selected
    (Invoke a callback, or Group children).
  - ActionSpec: A declarative, serializable definition used by loaders.
  - KeyEvent: A raw key press forwarded by the host to the shortcut matcher.
  - Scope: The subset of the tree eligible for search (root or a drilled-in parent).
  - Result: A ranked search hit.
  - NavigationState: The serializable snapshot of a palette session.
*/
package domain
