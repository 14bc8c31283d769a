package rpc_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/nyashahama/order-ready-notifier/internal/notificationpb"
	"github.com/nyashahama/order-ready-notifier/internal/notify"
	"github.com/nyashahama/order-ready-notifier/internal/rpc"
)

// ─── STUBS ────────────────────────────────────────────────────────────────────

// stubNotifier returns a fixed result, or blocks until ctx is done, or panics.
type stubNotifier struct {
	res    notify.Result
	err    error
	block  bool
	panics bool
	gotID  chan string
}

func (n *stubNotifier) Notify(ctx context.Context, orderID string) (notify.Result, error) {
	if n.gotID != nil {
		n.gotID <- orderID
	}
	if n.panics {
		panic("boom")
	}
	if n.block {
		<-ctx.Done()
		return notify.Result{RunID: "run-1"}, fmt.Errorf("%w: %w", notify.ErrStoreUnavailable, ctx.Err())
	}
	return n.res, n.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// dial starts an in-memory server around n and returns a connected client.
func dial(t *testing.T, n notify.Notifier) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := rpc.NewServer(n, discardLogger())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func call(t *testing.T, n notify.Notifier, orderID string) (*notificationpb.NotifyOrderReadyResponse, error) {
	t.Helper()
	client := notificationpb.NewNotificationServiceClient(dial(t, n))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return client.NotifyOrderReady(ctx, &notificationpb.NotifyOrderReadyRequest{OrderId: orderID})
}

// ─── OUTCOMES ─────────────────────────────────────────────────────────────────

func TestNotifyOrderReady_Messages(t *testing.T) {
	tests := []struct {
		outcome notify.Outcome
		want    string
	}{
		{notify.OutcomeOrderNotFound, "Order not found"},
		{notify.OutcomeUserUnresolved, "User not found or email not provided"},
		{notify.OutcomeEmailSent, "Email sent successfully"},
	}
	for _, tt := range tests {
		t.Run(tt.outcome.String(), func(t *testing.T) {
			n := &stubNotifier{res: notify.Result{RunID: "r", Outcome: tt.outcome}}
			resp, err := call(t, n, "6660f24a5fe223cf5a041169")
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.GetMessage())
		})
	}
}

func TestNotifyOrderReady_PassesOrderID(t *testing.T) {
	n := &stubNotifier{
		res:   notify.Result{Outcome: notify.OutcomeOrderNotFound},
		gotID: make(chan string, 1),
	}
	_, err := call(t, n, "nonexistent")
	require.NoError(t, err)
	assert.Equal(t, "nonexistent", <-n.gotID)
}

func TestNotifyOrderReady_DeliveryFailed(t *testing.T) {
	n := &stubNotifier{res: notify.Result{
		Outcome: notify.OutcomeDeliveryFailed,
		Err:     errors.New("535 5.7.8 Username and Password not accepted"),
	}}

	_, err := call(t, n, "6660f24a5fe223cf5a041169")
	require.Error(t, err)
	st := status.Convert(err)
	assert.Equal(t, codes.Unavailable, st.Code())
	assert.Equal(t, "failed to send notification email", st.Message())
	assert.NotContains(t, st.Message(), "535", "mailer detail must not leak")
}

func TestNotifyOrderReady_StoreFailure(t *testing.T) {
	n := &stubNotifier{err: fmt.Errorf("%w: connection refused", notify.ErrStoreUnavailable)}

	_, err := call(t, n, "6660f24a5fe223cf5a041169")
	st := status.Convert(err)
	assert.Equal(t, codes.Unavailable, st.Code())
	assert.Equal(t, "order store unavailable", st.Message())
}

func TestNotifyOrderReady_CallerDeadline(t *testing.T) {
	client := notificationpb.NewNotificationServiceClient(dial(t, &stubNotifier{block: true}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.NotifyOrderReady(ctx, &notificationpb.NotifyOrderReadyRequest{OrderId: "x"})
	assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
}

func TestNotifyOrderReady_PanicIsInternal(t *testing.T) {
	_, err := call(t, &stubNotifier{panics: true}, "x")
	assert.Equal(t, codes.Internal, status.Code(err))
}

// ─── METADATA ─────────────────────────────────────────────────────────────────

func TestNotifyOrderReady_Headers(t *testing.T) {
	n := &stubNotifier{res: notify.Result{RunID: "run-42", Outcome: notify.OutcomeEmailSent}}
	client := notificationpb.NewNotificationServiceClient(dial(t, n))

	ctx := metadata.AppendToOutgoingContext(context.Background(), rpc.RequestIDHeader, "req-7")
	var header metadata.MD
	_, err := client.NotifyOrderReady(ctx, &notificationpb.NotifyOrderReadyRequest{OrderId: "x"}, grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, []string{"req-7"}, header.Get(rpc.RequestIDHeader))
	assert.Equal(t, []string{"run-42"}, header.Get(rpc.RunIDHeader))
}

func TestNotifyOrderReady_GeneratesRequestID(t *testing.T) {
	n := &stubNotifier{res: notify.Result{Outcome: notify.OutcomeEmailSent}}
	client := notificationpb.NewNotificationServiceClient(dial(t, n))

	var header metadata.MD
	_, err := client.NotifyOrderReady(context.Background(), &notificationpb.NotifyOrderReadyRequest{OrderId: "x"}, grpc.Header(&header))
	require.NoError(t, err)
	require.Len(t, header.Get(rpc.RequestIDHeader), 1)
	assert.Len(t, header.Get(rpc.RequestIDHeader)[0], 36)
}

// ─── HEALTH ───────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	hc := healthpb.NewHealthClient(dial(t, &stubNotifier{}))

	resp, err := hc.Check(context.Background(), &healthpb.HealthCheckRequest{Service: rpc.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestServiceDescriptor(t *testing.T) {
	assert.Equal(t, "/NotificationService/NotifyOrderReady",
		notificationpb.NotificationService_NotifyOrderReady_FullMethodName)
	assert.Equal(t, rpc.ServiceName, notificationpb.NotificationService_ServiceDesc.ServiceName)
}
