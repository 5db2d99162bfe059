package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Short: 7 * time.Second})
	if Short() != 7*time.Second {
		t.Errorf("Short = %v", Short())
	}
	if Medium() != DefaultMedium {
		t.Errorf("Medium changed to %v", Medium())
	}
}

func TestConfigureFromEnv(t *testing.T) {
	t.Cleanup(Reset)
	t.Setenv("TIMEOUT_LONG", "45s")
	t.Setenv("TIMEOUT_BATCH", "bogus")
	t.Setenv("TIMEOUT_PING", "-1s")

	if n := ConfigureFromEnv(); n != 1 {
		t.Errorf("applied %d values, want 1", n)
	}
	c := Current()
	if c.Long != 45*time.Second || c.Batch != DefaultBatch || c.Ping != DefaultPing {
		t.Errorf("Current = %+v", c)
	}
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, zap.NewNop(), "test")
	<-ctx.Done()
	cancel()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("err = %v", ctx.Err())
	}
}
