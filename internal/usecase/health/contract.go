package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks embedding/AI provider availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
