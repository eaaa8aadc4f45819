/*
Package domain contains the core models shared by every remoteui component.

It is kept free of I/O so the HTTP layer, the reload controller and the
supervisor adapters can all depend on it.

# Key Entities

  - State: the single, process-wide application state (counter and message).
  - Action: a named request from the host to mutate State.
  - StateDiff: the fields an action changed, pushed to event subscribers.
  - LifecycleHooks: callbacks fired around actions, renders and reloads.
*/
package domain
