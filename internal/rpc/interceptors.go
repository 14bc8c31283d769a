package rpc

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ─── REQUEST ID ───────────────────────────────────────────────────────────────

// RequestIDHeader is the metadata key carrying the request id in both
// directions. A caller-supplied value is kept; otherwise one is generated.
const RequestIDHeader = "x-request-id"

// RunIDHeader is the response metadata key carrying the pipeline run id, so a
// caller can find the run in the notifier's logs.
const RunIDHeader = "x-run-id"

type ctxKeyRequestID struct{}

// RequestID returns the id assigned to the current call, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return id
}

func requestIDInterceptor(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(RequestIDHeader); len(v) > 0 && len(v[0]) <= 64 {
			id = v[0]
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id))
	return handler(context.WithValue(ctx, ctxKeyRequestID{}, id), req)
}

// ─── LOGGER ───────────────────────────────────────────────────────────────────

// loggingInterceptor logs each call with method, status code, and duration.
func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		level := slog.LevelInfo
		if info.FullMethod == healthCheckMethod {
			level = slog.LevelDebug
		}
		logger.Log(ctx, level, "grpc",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", RequestID(ctx),
		)
		return resp, err
	}
}

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// ─── RECOVERER ────────────────────────────────────────────────────────────────

// recoveryInterceptor turns a handler panic into codes.Internal so one bad
// call cannot take the process down.
func recoveryInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("grpc: panic recovered",
					"method", info.FullMethod,
					"panic", rec,
					"stack", string(debug.Stack()),
					"request_id", RequestID(ctx),
				)
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}
