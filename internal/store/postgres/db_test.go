package postgres

import (
	"testing"
	"time"
)

func TestPoolConfigWithDefaults(t *testing.T) {
	got := PoolConfig{}.withDefaults()
	if got.MaxOpenConns != defaultMaxOpenConns {
		t.Errorf("MaxOpenConns = %d, want %d", got.MaxOpenConns, defaultMaxOpenConns)
	}
	if got.MaxIdleConns != defaultMaxIdleConns {
		t.Errorf("MaxIdleConns = %d, want %d", got.MaxIdleConns, defaultMaxIdleConns)
	}
	if got.ConnMaxLifetime != defaultConnMaxLifetime {
		t.Errorf("ConnMaxLifetime = %v, want %v", got.ConnMaxLifetime, defaultConnMaxLifetime)
	}
	if got.ConnMaxIdleTime != defaultConnMaxIdleTime {
		t.Errorf("ConnMaxIdleTime = %v, want %v", got.ConnMaxIdleTime, defaultConnMaxIdleTime)
	}

	explicit := PoolConfig{
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
	}
	if got := explicit.withDefaults(); got != explicit {
		t.Errorf("explicit settings changed: %+v", got)
	}
}

func TestCloseNilDB(t *testing.T) {
	if err := Close(nil); err != nil {
		t.Fatalf("Close(nil) = %v", err)
	}
}
