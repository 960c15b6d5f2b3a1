package chatservice

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// NewServer returns a grpc server carrying ChatService, the standard health
// service and reflection. The health status of ServiceName starts as SERVING.
func NewServer(svc ChatServer, log *slog.Logger) (*grpc.Server, *health.Server) {
	server := grpc.NewServer(
		grpc.UnaryInterceptor(LoggingInterceptor(log)),
	)
	Register(server, svc)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	reflection.Register(server)
	return server, healthServer
}

// LoggingInterceptor logs every unary call with its duration.
func LoggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	log = log.With("component", "grpc-server")
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(start)

		if err != nil {
			log.Warn("gRPC request failed",
				"method", info.FullMethod,
				"duration", duration,
				"error", err)
		} else {
			log.Debug("gRPC request completed",
				"method", info.FullMethod,
				"duration", duration)
		}
		return resp, err
	}
}
