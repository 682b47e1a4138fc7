package tenantlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/trinavo/tenancy/internal/core/domain"

	"go.uber.org/zap/zapcore"
)

func testResources(root string) domain.RuntimeResourceSet {
	return domain.DeriveResources("acme", "", domain.ResourceRoots{
		StorageRoot: filepath.Join(root, "storage"),
		LogRoot:     root,
		MainDomain:  "example.com",
	})
}

func TestChannelWritesDatedFile(t *testing.T) {
	root := t.TempDir()
	res := testResources(root)

	registry := NewRegistry(zapcore.InfoLevel)
	t.Cleanup(func() { _ = registry.Close() })

	logger, err := registry.For(res)
	if err != nil {
		t.Fatalf("open channel: %v", err)
	}
	logger.Info("hello")
	if err := logger.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	day := time.Now().Format("2006-01-02")
	path := filepath.Join(root, "tenants", "acme", "acme-"+day+".log")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("log file is empty")
	}
}

func TestChannelReusedPerSlug(t *testing.T) {
	registry := NewRegistry(zapcore.InfoLevel)
	t.Cleanup(func() { _ = registry.Close() })

	res := testResources(t.TempDir())
	first, err := registry.For(res)
	if err != nil {
		t.Fatalf("open channel: %v", err)
	}
	second, err := registry.For(res)
	if err != nil {
		t.Fatalf("reopen channel: %v", err)
	}
	if first != second {
		t.Fatal("expected the same channel for the same slug")
	}
}

func TestChannelPrunesExpiredFiles(t *testing.T) {
	root := t.TempDir()
	res := testResources(root)

	logDir := filepath.Join(root, "tenants", "acme")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	oldDay := time.Now().AddDate(0, 0, -30).Format("2006-01-02")
	oldFile := filepath.Join(logDir, "acme-"+oldDay+".log")
	if err := os.WriteFile(oldFile, []byte("stale"), 0o644); err != nil {
		t.Fatalf("write old file: %v", err)
	}
	recentDay := time.Now().AddDate(0, 0, -2).Format("2006-01-02")
	recentFile := filepath.Join(logDir, "acme-"+recentDay+".log")
	if err := os.WriteFile(recentFile, []byte("recent"), 0o644); err != nil {
		t.Fatalf("write recent file: %v", err)
	}

	registry := NewRegistry(zapcore.InfoLevel)
	t.Cleanup(func() { _ = registry.Close() })

	logger, err := registry.For(res)
	if err != nil {
		t.Fatalf("open channel: %v", err)
	}
	logger.Info("trigger rotation")
	_ = logger.Sync()

	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Errorf("expired file still present: %v", err)
	}
	if _, err := os.Stat(recentFile); err != nil {
		t.Errorf("recent file pruned: %v", err)
	}
}
