package client_test

import (
	"net"
	"testing"

	"github.com/google/uuid"
	pb "github.com/pixperk/lockcache/api/v1"
	"github.com/pixperk/lockcache/pkg/callback"
	"github.com/pixperk/lockcache/pkg/lockserver"
	"github.com/pixperk/lockcache/pkg/server"
	"google.golang.org/grpc"
)

// starts a lock server with real callback delivery on a random local port
func startServer(tb testing.TB) (string, *lockserver.LockServer) {
	tb.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("Failed to listen: %v", err)
	}

	binder := callback.NewBinder()
	locks := lockserver.New(binder)

	srv := grpc.NewServer()
	pb.RegisterLockServiceServer(srv, server.NewServer(uuid.New(), locks))
	go srv.Serve(lis)

	tb.Cleanup(func() {
		srv.Stop()
		binder.Close()
	})

	return lis.Addr().String(), locks
}
