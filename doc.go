/*
Package remoteui serves a server-driven user interface.

A host application polls GET /ui for a component tree encoded as JSON and
posts user interactions to POST /action, receiving the updated tree in the
response. The rendering code can be replaced while the process runs: a
reload rebinds the renderer and its component catalog without touching the
application state or the listening socket.

# Concept

The App owns three things:

  - the application State (a counter and a message), guarded by a single
    readers-writer lock;
  - the Dispatcher, which maps action names to state mutations;
  - the reload Controller, which holds the live rendering code ("bindings")
    and swaps it atomically.

Rendering code is either the built-in Home screen or a directory of
JavaScript files defining render(state). Reloads can be requested through
the Go API, Redis pub/sub, an MCP tool or a file watcher.

# Usage

	package main

	import (
		"context"
		"log"
		"net/http"

		"github.com/aretw0/remoteui"
	)

	func main() {
		app, err := remoteui.New(context.Background())
		if err != nil {
			log.Fatal(err)
		}
		log.Fatal(http.ListenAndServe("127.0.0.1:5000", app.Handler()))
	}
*/
package remoteui
