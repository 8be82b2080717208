package stats

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStorage(t *testing.T) {
	tempDir := t.TempDir()

	storage, err := NewStorage(tempDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	t.Run("RecordAudit", func(t *testing.T) {
		storage.RecordAudit(false)
		storage.RecordAudit(true)
		stats := storage.GetCurrentStats()

		if stats.AuditsRun != 2 {
			t.Errorf("Expected 2 audits, got %d", stats.AuditsRun)
		}
		if stats.AuditErrors != 1 {
			t.Errorf("Expected 1 audit error, got %d", stats.AuditErrors)
		}
		if stats.LastUpdated.IsZero() {
			t.Error("Expected LastUpdated to be set")
		}
	})

	t.Run("RecordPages", func(t *testing.T) {
		storage.RecordPages(10, 3)
		stats := storage.GetCurrentStats()

		if stats.PagesAnalyzed != 10 {
			t.Errorf("Expected 10 pages analyzed, got %d", stats.PagesAnalyzed)
		}
		if stats.CacheHits != 3 {
			t.Errorf("Expected 3 cache hits, got %d", stats.CacheHits)
		}
	})

	t.Run("UnknownMonth", func(t *testing.T) {
		if _, found := storage.GetMonthlyStats("1999-01"); found {
			t.Error("Expected no stats for 1999-01")
		}
	})

	t.Run("GetAllMonths", func(t *testing.T) {
		months := storage.GetAllMonths()
		if len(months) != 1 {
			t.Fatalf("Expected 1 month, got %d", len(months))
		}
	})

	t.Run("PersistsAcrossReload", func(t *testing.T) {
		storage.Shutdown()

		if _, err := os.Stat(filepath.Join(tempDir, "stats.json")); err != nil {
			t.Fatalf("Expected stats file to exist: %v", err)
		}

		reloaded, err := NewStorage(tempDir)
		if err != nil {
			t.Fatalf("Failed to reload storage: %v", err)
		}
		defer reloaded.Shutdown()

		stats := reloaded.GetCurrentStats()
		if stats.AuditsRun != 2 {
			t.Errorf("Expected 2 audits after reload, got %d", stats.AuditsRun)
		}
		if stats.PagesAnalyzed != 10 {
			t.Errorf("Expected 10 pages after reload, got %d", stats.PagesAnalyzed)
		}
	})
}

func TestStorageCleanup(t *testing.T) {
	storage, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Shutdown()

	storage.mutex.Lock()
	storage.stats["2020-01"] = &MonthlyStats{AuditsRun: 5}
	storage.mutex.Unlock()
	storage.RecordAudit(false)

	storage.Cleanup()

	if _, found := storage.GetMonthlyStats("2020-01"); found {
		t.Error("Expected 2020-01 to be removed by cleanup")
	}
	if stats := storage.GetCurrentStats(); stats.AuditsRun != 1 {
		t.Errorf("Expected current month to survive cleanup, got %d audits", stats.AuditsRun)
	}
}
