//go:build linux

package client

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/server"
	"github.com/ValentinKolb/rKV/rpc/transport/tcp"
	"sync"
	"testing"
	"time"
)

// startServer runs a kv server on a random loopback port until the test ends
func startServer(t *testing.T) string {
	t.Helper()

	s := server.NewRPCServer(common.ServerConfig{
		Port:            0,
		BindAddress:     "127.0.0.1",
		Backlog:         64,
		MaxEvents:       64,
		MaxWriteBacklog: 64 * 1024,
		Handler:         common.HandlerKV,
		LogLevel:        "error",
	}, tcp.NewTCPServerTransport())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Serve: %v", err)
		}
	})

	deadline := time.Now().Add(5 * time.Second)
	for s.Addr() == "" {
		select {
		case err := <-done:
			t.Fatalf("server stopped: %v", err)
		default:
		}
		if time.Now().After(deadline) {
			t.Fatal("server did not start listening")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return s.Addr()
}

func dialStore(t *testing.T, addr string, connsPerEndpoint int) RPCStore {
	t.Helper()
	s, err := NewRPCStore(common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			Endpoints:              []string{addr},
			RetryCount:             2,
			ConnectionsPerEndpoint: connsPerEndpoint,
			TCPConf:                common.TCPConf{TCPNoDelay: true, TCPLingerSec: -1},
		},
	}, tcp.NewTCPClientTransport())
	if err != nil {
		t.Fatalf("NewRPCStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRemoteStoreEndToEnd(t *testing.T) {
	addr := startServer(t)
	s := dialStore(t, addr, 1)

	if err := s.Ping(); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("greeting", []byte("hello over tcp")); err != nil {
		t.Fatal(err)
	}
	val, ok, err := s.Get("greeting")
	if err != nil || !ok || string(val) != "hello over tcp" {
		t.Fatalf("Get = %q, %v, %v", val, ok, err)
	}
}

func TestRemoteStoreConcurrentClients(t *testing.T) {
	addr := startServer(t)
	s := dialStore(t, addr, 4)

	const workers = 16
	const perWorker = 100

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := fmt.Sprintf("w%d:k%d", w, i)
				if err := s.Set(key, []byte(key)); err != nil {
					errs <- err
					return
				}
				val, ok, err := s.Get(key)
				if err != nil || !ok || string(val) != key {
					errs <- fmt.Errorf("Get(%s) = %q, %v, %v", key, val, ok, err)
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	if n, err := s.Keys(); err != nil || n != workers*perWorker {
		t.Fatalf("Keys = %d, %v", n, err)
	}
}
