// Package itest holds helpers for tests that need a real Postgres or Redis.
package itest

import (
	"hash/fnv"
	"net"
	"os"
	"strconv"
	"testing"
	"time"
)

const lockPortBase = 45400

// Lock serializes test binaries that share one external resource. go test runs packages
// in parallel, so the lock is a loopback listener rather than a mutex.
func Lock(resource string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(resource))
	addr := "127.0.0.1:" + strconv.Itoa(lockPortBase+int(h.Sum32()%100))
	for {
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			return func() { _ = ln.Close() }
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// Env returns the named connection string or skips the test when it is unset.
func Env(t testing.TB, key string) string {
	t.Helper()
	v := os.Getenv(key)
	if v == "" {
		t.Skipf("Skipping integration test: %s not set", key)
	}
	return v
}
