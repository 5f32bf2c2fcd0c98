package alerting

import (
	"os"
	"testing"

	"github.com/skywatchwx/skywatch/internal/log"
)

func TestMain(m *testing.M) {
	if err := log.Init(false); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}
