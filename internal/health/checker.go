package health

import (
	"context"
	"time"

	"github.com/altura-labs/recommendation/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Pinger is any dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker manages health checks for the service dependencies
type HealthChecker struct {
	checks  []namedCheck
	logger  *logrus.Logger
	started time.Time
}

type namedCheck struct {
	name   string
	pinger Pinger
}

func NewHealthChecker(logger *logrus.Logger) *HealthChecker {
	return &HealthChecker{
		logger:  logger,
		started: time.Now(),
	}
}

// Register adds a dependency to check. Checks run in registration order.
func (h *HealthChecker) Register(name string, pinger Pinger) {
	h.checks = append(h.checks, namedCheck{name: name, pinger: pinger})
}

func (h *HealthChecker) check(ctx context.Context, c namedCheck) models.ServiceHealth {
	start := time.Now()
	err := c.pinger.Ping(ctx)
	responseTime := int(time.Since(start).Milliseconds())

	status := StatusHealthy
	errorMsg := ""
	if err != nil {
		status = StatusUnhealthy
		errorMsg = err.Error()
		h.logger.WithError(err).WithField("service", c.name).Error("Health check failed")
	}

	return models.ServiceHealth{
		Name:         c.name,
		Status:       status,
		ResponseTime: responseTime,
		Error:        errorMsg,
		LastChecked:  time.Now().Format(time.RFC3339),
	}
}

// CheckAll pings all registered services concurrently. Results keep
// registration order.
func (h *HealthChecker) CheckAll(ctx context.Context) models.HealthResponse {
	services := make([]models.ServiceHealth, len(h.checks))

	g := &errgroup.Group{}
	for i, c := range h.checks {
		g.Go(func() error {
			services[i] = h.check(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	overallStatus := StatusHealthy
	for _, result := range services {
		if result.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
		}
	}

	return models.HealthResponse{
		Status:    overallStatus,
		Service:   "recommendation",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	}
}
