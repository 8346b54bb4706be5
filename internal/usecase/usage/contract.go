package usage

import "github.com/kailas-cloud/rankdex/internal/ratelimit"

// QuotaReader provides read-only access to AI quota state.
type QuotaReader interface {
	Snapshot() ratelimit.Usage
}
