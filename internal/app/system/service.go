// Package system defines the lifecycle contract shared by the long-running
// parts of the server and a manager that starts and stops them in order.
package system

import "context"

// Service is a long-running component with an explicit lifecycle.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
