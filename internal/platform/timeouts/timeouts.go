// Package timeouts defines shared timeout constants used across services.
// Centralizing these values prevents drift between service boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing a gRPC peer.
const GRPCDial = 2 * time.Second

// ProvisionCall caps a single provisioner call against the platform
// connector. Saga steps that exceed it fail and trigger rollback.
const ProvisionCall = 10 * time.Second

// DispatchCall caps a single notification dispatch write.
const DispatchCall = 2 * time.Second

// Shutdown limits how long a server waits for in-flight work during
// graceful shutdown.
const Shutdown = 5 * time.Second
