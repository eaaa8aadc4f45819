/*
Package ports defines the interfaces that decouple remoteui's components.

# Key Interfaces

  - Renderer: maps an application State snapshot to a component tree.
  - ActionDispatcher: applies a host Action to the State.
  - Reloader: rebinds rendering code in place (used by supervisor adapters).
  - Watchable: signals that the rendering code on disk has changed.
*/
package ports
