/*
Package observability turns lifecycle events into Prometheus metrics.

Metrics records every action, render and reload reported through
domain.LifecycleHooks and exposes them on its own registry, so several
servers in one process (as in tests) never collide.
*/
package observability
