// Package grpcserver serves the gRPC health protocol for the account service.
package grpcserver

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health-checked service name; "" reports the same status.
const ServiceName = "accounts.v1.Accounts"

// pingTimeout bounds a single store probe.
const pingTimeout = 2 * time.Second

// Pinger is implemented by account stores that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health is a gRPC server exposing grpc.health.v1.Health. The reported
// status follows the store: SERVING while Ping succeeds, NOT_SERVING otherwise.
type Health struct {
	srv   *grpc.Server
	hs    *health.Server
	store Pinger
	log   *zap.Logger
}

// NewHealth constructs the health server. Reflection is registered when dev is set.
func NewHealth(store Pinger, log *zap.Logger, dev bool) *Health {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoverUnary(log),
			LoggingUnary(log),
		),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	if dev {
		reflection.Register(srv)
	}

	h := &Health{srv: srv, hs: hs, store: store, log: log}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *Health) set(st healthpb.HealthCheckResponse_ServingStatus) {
	h.hs.SetServingStatus("", st)
	h.hs.SetServingStatus(ServiceName, st)
}

// Probe pings the store once and updates the served status.
func (h *Health) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.log.Warn("store unreachable", zap.Error(err))
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return err
	}
	h.set(healthpb.HealthCheckResponse_SERVING)
	return nil
}

// Watch probes the store every interval until ctx is done.
func (h *Health) Watch(ctx context.Context, interval time.Duration) {
	_ = h.Probe(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = h.Probe(ctx)
		}
	}
}

// Serve accepts connections on lis until Stop is called.
func (h *Health) Serve(lis net.Listener) error {
	return h.srv.Serve(lis)
}

// Stop marks the service NOT_SERVING and drains connections, forcing a stop
// after timeout.
func (h *Health) Stop(timeout time.Duration) {
	h.hs.Shutdown()

	done := make(chan struct{})
	go func() {
		h.srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		h.srv.Stop()
	}
}
