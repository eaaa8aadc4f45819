package remoteui

// Version is the release of this build. It is overridden at link time with
// -ldflags "-X github.com/aretw0/remoteui.Version=...".
var Version = "0.1.0"
