package client_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pixperk/lockcache/pkg/client"
	"github.com/pixperk/lockcache/pkg/types"
)

// Run with: go test -bench=. -benchtime=10s ./pkg/client/

func BenchmarkSequential(b *testing.B) {
	addr, _ := startServer(b)

	c, err := client.NewClient(addr, "127.0.0.1:0")
	if err != nil {
		b.Fatalf("Failed to connect: %v", err)
	}
	defer c.Stop()

	ctx := context.Background()
	lockID := types.LockID(1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lock, err := c.Lock(ctx, lockID)
		if err != nil {
			b.Fatalf("Failed to acquire: %v", err)
		}
		lock.Release(ctx)
	}
}

func BenchmarkContention(b *testing.B) {
	const numClients = 3
	const lockID = types.LockID(2)

	addr, _ := startServer(b)
	ctx := context.Background()

	clients := make([]*client.Client, numClients)
	for i := 0; i < numClients; i++ {
		c, err := client.NewClient(addr, "127.0.0.1:0", client.WithPollInterval(10*time.Millisecond))
		if err != nil {
			b.Fatalf("Failed to connect: %v", err)
		}
		defer c.Stop()
		clients[i] = c
	}

	b.ResetTimer()

	var wg sync.WaitGroup
	opsPerClient := b.N / numClients

	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func(c *client.Client) {
			defer wg.Done()
			for j := 0; j < opsPerClient; j++ {
				lock, err := c.Lock(ctx, lockID)
				if err != nil {
					continue
				}
				lock.Release(ctx)
			}
		}(clients[i])
	}

	wg.Wait()
}
