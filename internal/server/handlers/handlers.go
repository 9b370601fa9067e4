package handlers

import (
	"wingetdepot/internal/catalog"
	"wingetdepot/internal/logsink"
)

// Shared collaborators wired once at startup.
var (
	Cat  *catalog.Catalog
	Sink *logsink.Sink
)

func Setup(cat *catalog.Catalog, sink *logsink.Sink) {
	Cat = cat
	Sink = sink
}
