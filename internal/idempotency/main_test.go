package idempotency

import (
	"os"
	"testing"

	"github.com/ayo6706/payment-notification/internal/testutil/itest"
	"github.com/joho/godotenv"
)

func TestMain(m *testing.M) {
	_ = godotenv.Load("../../.env")
	release := itest.Lock("redis")
	code := m.Run()
	release()
	os.Exit(code)
}
