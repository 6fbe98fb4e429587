package bootstrap

import (
	"net/http"
	"time"

	"github.com/muhammadchandra19/otc-monitor/pkg/httplib/healthcheck"
	"github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/rpc/httpapi"
)

const healthTimeout = 2 * time.Second

// RPC is the admin API of the otc monitor service.
type RPC struct {
	Handler *httpapi.Handler
	Health  healthcheck.HealthCheck
	HTTP    http.Handler
}

// registerRPC registers the admin API.
func (b *Bootstrap) registerRPC() {
	b.RPC.Handler = httpapi.NewHandler(b.Usecase.Monitor, b.Usecase.Resolver, b.Repository.PriceStore, b.Logger)
	b.RPC.Health = healthcheck.HealthCheck{
		Probes: map[string]healthcheck.Probe{
			"redis":      b.Redis.Ping,
			"postgresql": b.PostgreSQL.Ping,
		},
		Timeout: healthTimeout,
	}
	b.RPC.HTTP = b.RPC.Handler.Routes(b.RPC.Health, b.Config.App.CORSAllowedOrigins)
}
