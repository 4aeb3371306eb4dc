// Package connector defines the boundary between the engine and a remote
// management endpoint.
package connector

import (
	"context"

	"github.com/AndreyAkinshin/mbexec/internal/mbean"
	"github.com/AndreyAkinshin/mbexec/internal/target"
)

// Connector opens connections to targets.
type Connector interface {
	// Connect establishes an authenticated session with t's endpoint.
	// Failures are reported with errors.KindConnect.
	Connect(ctx context.Context, t target.Target) (Connection, error)
}

// Connection is one open session with a target's endpoint.
// A Connection is owned by a single worker and need not be safe for concurrent use.
type Connection interface {
	mbean.Conn

	// Introspect returns the attributes and operations object exposes.
	Introspect(ctx context.Context, object mbean.ObjectName) (*mbean.Schema, error)

	Close() error
}
