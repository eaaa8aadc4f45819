/*
Package reload swaps rendering code in a running process.

A Bindings value is everything that is replaced on reload: the kind catalog
and the Renderer built on it. The application State and the HTTP listener
are owned elsewhere and are never touched here.

Controller.Reload builds the next Bindings through a Loader and test-renders
them against the current state before taking the write lock, so a failed
load never becomes visible. Request handlers read bindings through
Controller.Use, which holds the read lock for the whole render.
*/
package reload
