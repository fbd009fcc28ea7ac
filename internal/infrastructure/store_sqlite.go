package infrastructure

import (
	"fmt"

	"github.com/yourusername/vgm-archiver/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLiteStore implements domain.ProgressStore and domain.FailureLedger on a
// single SQLite database. Progress records live in one table and are fully
// replaced on every Save; ledger entries live in another and are only ever
// inserted.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (or creates) the database and migrates the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.ProgressRecord{}, &domain.FailureEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load reads the full progress mapping. A fresh database yields an empty
// map, never an error.
func (s *SQLiteStore) Load() (map[string]domain.ProgressRecord, error) {
	var records []domain.ProgressRecord
	if err := s.db.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load progress records: %w", err)
	}

	out := make(map[string]domain.ProgressRecord, len(records))
	for _, r := range records {
		out[r.PageURL] = r
	}
	return out, nil
}

// Save replaces the persisted progress state with the given mapping in a
// single transaction, so a concurrent reader never observes a partial
// write. Called after every target's outcome is known; the write
// amplification is accepted in exchange for crash-safety.
func (s *SQLiteStore) Save(records map[string]domain.ProgressRecord) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&domain.ProgressRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear progress records: %w", err)
		}

		if len(records) == 0 {
			return nil
		}

		rows := make([]domain.ProgressRecord, 0, len(records))
		for _, r := range records {
			rows = append(rows, r)
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to write progress records: %w", err)
		}
		return nil
	})
}

// Stats aggregates progress record counts by outcome.
func (s *SQLiteStore) Stats() (*domain.ProgressStats, error) {
	stats := &domain.ProgressStats{}

	if err := s.db.Model(&domain.ProgressRecord{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	outcomeCounts := []struct {
		Outcome domain.Outcome
		Count   int64
	}{}
	if err := s.db.Model(&domain.ProgressRecord{}).
		Select("outcome, count(*) as count").
		Group("outcome").
		Scan(&outcomeCounts).Error; err != nil {
		return nil, err
	}

	for _, oc := range outcomeCounts {
		switch oc.Outcome {
		case domain.OutcomeDone:
			stats.Done = oc.Count
		case domain.OutcomeFail:
			stats.Fail = oc.Count
		}
	}

	return stats, nil
}

// Record appends a ledger entry for the identifier unless one already
// exists. Existing entries are left untouched, which keeps the ledger
// monotonic even when a target later succeeds.
func (s *SQLiteStore) Record(pageURL, comment string) error {
	entry := domain.FailureEntry{PageURL: pageURL, Comment: comment}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "page_url"}},
		DoNothing: true,
	}).Create(&entry).Error
}

// All reads the full failure ledger.
func (s *SQLiteStore) All() (map[string]domain.FailureEntry, error) {
	var entries []domain.FailureEntry
	if err := s.db.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load failure ledger: %w", err)
	}

	out := make(map[string]domain.FailureEntry, len(entries))
	for _, e := range entries {
		out[e.PageURL] = e
	}
	return out, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
