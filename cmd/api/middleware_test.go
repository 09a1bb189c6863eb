package main

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func Test_SweepIdleClients_EvictsIdleAndStopsOnShutdown(t *testing.T) {
	// setup
	var mu sync.Mutex
	clients := map[string]*client{
		"192.0.2.1": {limiter: rate.NewLimiter(1, 1), lastSeen: time.Now().Add(-time.Hour)},
		"192.0.2.2": {limiter: rate.NewLimiter(1, 1), lastSeen: time.Now().Add(time.Hour)},
	}
	done := make(chan struct{})
	stopped := make(chan struct{})

	// act
	go func() {
		sweepIdleClients(done, &mu, clients, time.Millisecond, time.Minute)
		close(stopped)
	}()

	// assert
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		_, idle := clients["192.0.2.1"]
		return !idle
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Contains(t, clients, "192.0.2.2")
	mu.Unlock()

	close(done)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("sweeper kept running after shutdown")
	}
}
