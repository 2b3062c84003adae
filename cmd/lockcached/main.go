package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	pb "github.com/pixperk/lockcache/api/v1"
	"github.com/pixperk/lockcache/pkg/callback"
	"github.com/pixperk/lockcache/pkg/config"
	"github.com/pixperk/lockcache/pkg/gateway"
	"github.com/pixperk/lockcache/pkg/lockserver"
	"github.com/pixperk/lockcache/pkg/logging"
	"github.com/pixperk/lockcache/pkg/server"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	nodeID := cfg.ResolveNodeID()

	logger.Info("starting lockcache server",
		zap.String("node_id", nodeID.String()),
		zap.String("grpc_addr", cfg.GRPCAddr),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Duration("callback_timeout", cfg.CallbackTimeout))

	binder := callback.NewBinder()
	defer binder.Close()

	locks := lockserver.New(binder,
		lockserver.WithLogger(logger.Named("lockserver")),
		lockserver.WithCallbackTimeout(cfg.CallbackTimeout),
	)

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(server.LoggingInterceptor(logger.Named("rpc"))))
	pb.RegisterLockServiceServer(grpcServer, server.NewServer(nodeID, locks))

	listener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("addr", listener.Addr().String()))
		if err := grpcServer.Serve(listener); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	var gwServer *gateway.Server
	if cfg.HTTPAddr != "" {
		gwServer = gateway.NewServer(cfg.HTTPAddr, dialAddr(listener.Addr()))
		go func() {
			logger.Info("HTTP gateway listening", zap.String("addr", cfg.HTTPAddr))
			if err := gwServer.Start(context.Background()); err != nil {
				logger.Fatal("HTTP gateway failed", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("lockcache is ready")

	<-sigCh
	logger.Info("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if gwServer != nil {
		if err := gwServer.Stop(ctx); err != nil {
			logger.Error("gateway shutdown failed", zap.Error(err))
		}
	}
	grpcServer.GracefulStop()

	logger.Info("shutdown complete")
}

// the gateway dials the gRPC listener over loopback
func dialAddr(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return addr.String()
	}
	return net.JoinHostPort("localhost", fmt.Sprint(tcp.Port))
}
