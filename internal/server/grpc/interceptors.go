package grpcserver

import (
	"context"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// callLevel picks the log level for a finished call. Health probes arrive
// every few seconds, so successful ones stay at debug.
func callLevel(code codes.Code) zapcore.Level {
	switch code {
	case codes.OK, codes.Canceled, codes.NotFound:
		return zapcore.DebugLevel
	case codes.Internal, codes.Unknown, codes.DataLoss:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// LoggingUnary returns a unary server interceptor writing one line per call:
// method, status code, duration and peer. Request messages are not logged.
func LoggingUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		code := status.Code(err)

		if ce := log.Check(callLevel(code), "grpc"); ce != nil {
			fields := []zap.Field{
				zap.String("method", info.FullMethod),
				zap.String("code", code.String()),
				zap.Duration("dur", time.Since(start)),
			}
			if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
				fields = append(fields, zap.String("peer", p.Addr.String()))
			}
			ce.Write(fields...)
		}
		return resp, err
	}
}

// RecoverUnary returns a unary server interceptor reporting a handler panic
// as codes.Internal with the same message the HTTP surface uses.
func RecoverUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("grpc panic",
					zap.String("method", info.FullMethod),
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
				)
				resp, err = nil, status.Error(codes.Internal, "internal error")
			}
		}()
		return next(ctx, req)
	}
}
