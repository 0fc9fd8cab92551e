package server

import "context"

// Server is a long-running listener. Run blocks until Stop is called or the
// listener fails.
type Server interface {
	Options() Options
	Run() error
	Stop(ctx context.Context) error
}
