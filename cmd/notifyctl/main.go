// Command notifyctl asks a running notifier to send the order-ready email for
// one order and prints the reply.
//
//	notifyctl -addr localhost:50051 -order 6660f24a5fe223cf5a041169
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/nyashahama/order-ready-notifier/internal/notificationpb"
	"github.com/nyashahama/order-ready-notifier/internal/rpc"
)

func main() {
	addr := flag.String("addr", "localhost:50051", "notifier gRPC address")
	orderID := flag.String("order", "", "order id (24-char hex)")
	timeout := flag.Duration("timeout", 30*time.Second, "call deadline")
	verbose := flag.Bool("v", false, "log request and run ids")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *orderID == "" {
		fmt.Fprintln(os.Stderr, "notifyctl: -order is required")
		flag.Usage()
		os.Exit(2)
	}

	msg, err := notify(*addr, *orderID, *timeout, logger)
	if err != nil {
		logger.Error("notifyctl: call failed", "error", err)
		os.Exit(1)
	}
	fmt.Println(msg)
}

func notify(addr, orderID string, timeout time.Duration, logger *slog.Logger) (string, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var header metadata.MD
	client := notificationpb.NewNotificationServiceClient(conn)
	resp, err := client.NotifyOrderReady(ctx,
		&notificationpb.NotifyOrderReadyRequest{OrderId: orderID},
		grpc.Header(&header),
	)
	logger.Debug("notifyctl: response headers",
		"request_id", first(header.Get(rpc.RequestIDHeader)),
		"run_id", first(header.Get(rpc.RunIDHeader)),
	)
	if err != nil {
		st := status.Convert(err)
		return "", fmt.Errorf("%s: %s", st.Code(), st.Message())
	}
	return resp.GetMessage(), nil
}

func first(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}
