package httpserver

import "time"

// ShutdownTimeout bounds graceful shutdown. In-flight uploads past this
// window are dropped.
var ShutdownTimeout = 15 * time.Second
