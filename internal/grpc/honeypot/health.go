package honeypot

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Navadeep1830/honeypot-api/pkg/logger"
)

// ServiceName is the health-checked service name
const ServiceName = "honeypot.v1.HoneypotService"

// DefaultCheckInterval is how often dependencies are probed
const DefaultCheckInterval = 10 * time.Second

// Probe reports whether one dependency is usable
type Probe func(ctx context.Context) error

// HealthChecker keeps the gRPC health status in line with dependency probes
type HealthChecker struct {
	server   *health.Server
	probes   map[string]Probe
	interval time.Duration
	logger   *logger.Logger
}

// NewHealthChecker creates a health checker. Probes are keyed by dependency name.
func NewHealthChecker(probes map[string]Probe, interval time.Duration, log *logger.Logger) *HealthChecker {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	hc := &HealthChecker{
		server:   health.NewServer(),
		probes:   probes,
		interval: interval,
		logger:   log.WithComponent("grpc-health"),
	}
	hc.setStatus(grpc_health_v1.HealthCheckResponse_SERVING)
	return hc
}

// Register registers the gRPC health check service
func (hc *HealthChecker) Register(grpcServer *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(grpcServer, hc.server)
}

// Server returns the underlying health server
func (hc *HealthChecker) Server() *health.Server {
	return hc.server
}

// Run probes dependencies until ctx is cancelled, then marks the service
// NOT_SERVING.
func (hc *HealthChecker) Run(ctx context.Context) {
	ticker := time.NewTicker(hc.interval)
	defer ticker.Stop()

	hc.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			hc.server.Shutdown()
			return
		case <-ticker.C:
			hc.Check(ctx)
		}
	}
}

// Check runs every probe once and updates the serving status
func (hc *HealthChecker) Check(ctx context.Context) bool {
	healthy := true
	for name, probe := range hc.probes {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := probe(probeCtx)
		cancel()
		if err != nil {
			hc.logger.Warn().Err(err).Str("dependency", name).Msg("health probe failed")
			healthy = false
		}
	}

	if healthy {
		hc.setStatus(grpc_health_v1.HealthCheckResponse_SERVING)
	} else {
		hc.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}
	return healthy
}

func (hc *HealthChecker) setStatus(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	hc.server.SetServingStatus("", status)
	hc.server.SetServingStatus(ServiceName, status)
}
