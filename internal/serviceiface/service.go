package serviceiface

import "context"

// Service is a long-running component started and stopped by the app manager
// in services.yaml order.
type Service interface {
	Name() string
	Start() error
	Stop(ctx context.Context) error
}

// HealthReporter is implemented by services that can describe their state
// for the health endpoint.
type HealthReporter interface {
	Health() map[string]interface{}
}
