// Package rpc is the request-triggered entry point of the notifier: the gRPC
// NotificationService. Each NotifyOrderReady call runs the notification
// pipeline once and maps its outcome onto the reply message or a status code.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/nyashahama/order-ready-notifier/internal/notificationpb"
	"github.com/nyashahama/order-ready-notifier/internal/notify"
)

// Client-facing status messages. Driver and mailer errors are logged, never
// returned.
const (
	msgDeliveryFailed   = "failed to send notification email"
	msgStoreUnavailable = "order store unavailable"
)

// NotificationServer implements notificationpb.NotificationServiceServer.
type NotificationServer struct {
	notificationpb.UnimplementedNotificationServiceServer

	notifier notify.Notifier
}

// NewNotificationServer returns a NotificationServer backed by n.
func NewNotificationServer(n notify.Notifier) *NotificationServer {
	return &NotificationServer{notifier: n}
}

// NotifyOrderReady runs the pipeline for req.order_id.
//
// Replies:
//
//	OrderNotFound  → "Order not found"
//	UserUnresolved → "User not found or email not provided"
//	EmailSent      → "Email sent successfully"
//	DeliveryFailed → Unavailable
//	store failure  → Unavailable
func (s *NotificationServer) NotifyOrderReady(ctx context.Context, req *notificationpb.NotifyOrderReadyRequest) (*notificationpb.NotifyOrderReadyResponse, error) {
	res, err := s.notifier.Notify(ctx, req.GetOrderId())
	if res.RunID != "" {
		_ = grpc.SetHeader(ctx, metadata.Pairs(RunIDHeader, res.RunID))
	}
	if err != nil {
		return nil, callError(ctx, msgStoreUnavailable)
	}

	msg, ok := res.Outcome.Message()
	if !ok {
		return nil, callError(ctx, msgDeliveryFailed)
	}
	return &notificationpb.NotifyOrderReadyResponse{Message: msg}, nil
}

// callError converts a failed run into a status error. A run that failed
// because the caller went away or ran out of time reports Canceled or
// DeadlineExceeded; everything else is Unavailable with msg. The pipeline
// has already logged the underlying error.
func callError(ctx context.Context, msg string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return status.FromContextError(ctxErr).Err()
	}
	return status.Error(codes.Unavailable, msg)
}
