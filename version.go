package liveparams

// Version is the release version. Overridden at build time with
// -ldflags "-X github.com/aretw0/liveparams.Version=...".
var Version = "0.3.0"
