// Package stats persists monthly audit counters to a JSON file.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// MonthlyStats holds the audit counters for one calendar month.
type MonthlyStats struct {
	AuditsRun     int       `json:"audits_run"`
	PagesAnalyzed int       `json:"pages_analyzed"`
	AuditErrors   int       `json:"audit_errors"`
	CacheHits     int       `json:"cache_hits"`
	LastUpdated   time.Time `json:"last_updated"`
}

// Storage keeps per-month counters in memory and flushes them to disk from
// a background writer. Saves are atomic via a temp file rename.
type Storage struct {
	mutex       sync.RWMutex
	stats       map[string]*MonthlyStats // key: "YYYY-MM"
	filePath    string
	lastWrite   time.Time
	writeBuffer chan struct{}
	done        chan struct{}
}

// NewStorage opens (or creates) the stats file under dataDir and starts the
// background writer.
func NewStorage(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		filePath:    filepath.Join(dataDir, "stats.json"),
		writeBuffer: make(chan struct{}, 1),
		done:        make(chan struct{}),
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	go s.backgroundWriter()
	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	return json.Unmarshal(data, &s.stats)
}

func (s *Storage) save() error {
	s.mutex.RLock()
	data, err := json.Marshal(s.stats)
	s.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

func (s *Storage) backgroundWriter() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
			s.save()
		case <-ticker.C:
			s.save()
		case <-s.done:
			return
		}
	}
}

// Shutdown stops the background writer and flushes pending counters.
func (s *Storage) Shutdown() {
	close(s.done)
	s.save()
}

func currentMonth() string {
	return time.Now().Format("2006-01")
}

func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
		// Write already pending.
	}
}

func (s *Storage) monthLocked(month string) *MonthlyStats {
	stats, exists := s.stats[month]
	if !exists {
		stats = &MonthlyStats{}
		s.stats[month] = stats
	}
	return stats
}

// RecordAudit counts one audit run, failed or not.
func (s *Storage) RecordAudit(failed bool) {
	s.mutex.Lock()
	stats := s.monthLocked(currentMonth())
	stats.AuditsRun++
	if failed {
		stats.AuditErrors++
	}
	stats.LastUpdated = time.Now()
	s.maybeRequestWriteLocked()
	s.mutex.Unlock()
}

// RecordPages counts pages analyzed during an audit, cacheHits of which were
// served from the analysis cache.
func (s *Storage) RecordPages(analyzed, cacheHits int) {
	s.mutex.Lock()
	stats := s.monthLocked(currentMonth())
	stats.PagesAnalyzed += analyzed
	stats.CacheHits += cacheHits
	stats.LastUpdated = time.Now()
	s.maybeRequestWriteLocked()
	s.mutex.Unlock()
}

func (s *Storage) maybeRequestWriteLocked() {
	if time.Since(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = time.Now()
	}
}

// GetCurrentStats returns a copy of the current month's counters.
func (s *Storage) GetCurrentStats() MonthlyStats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[currentMonth()]; exists {
		return *stats
	}
	return MonthlyStats{}
}

// GetMonthlyStats returns counters for a specific "YYYY-MM" month.
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[yearMonth]; exists {
		return *stats, true
	}
	return MonthlyStats{}, false
}

// GetAllMonths lists recorded months, newest first.
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.stats))
	for month := range s.stats {
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// Cleanup drops every month except the current and previous one.
func (s *Storage) Cleanup() {
	now := time.Now()
	current := now.Format("2006-01")
	previous := now.AddDate(0, -1, 0).Format("2006-01")

	s.mutex.Lock()
	for key := range s.stats {
		if key != current && key != previous {
			delete(s.stats, key)
		}
	}
	s.mutex.Unlock()

	s.requestWrite()
}
