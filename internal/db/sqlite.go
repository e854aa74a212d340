package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ArthurrMrv/graph-project/internal/platform/envutil"
	"github.com/ArthurrMrv/graph-project/internal/platform/logger"
	"github.com/ArthurrMrv/graph-project/internal/types"
)

// SQLiteService owns the embedded relational store used for run audit
// records. The graph itself lives in Neo4j; this database only remembers
// what each pipeline run did.
type SQLiteService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSQLiteService(log *logger.Logger) (*SQLiteService, error) {
	serviceLog := log.With("service", "SQLiteService")

	path := envutil.Str("SQLITE_PATH", "data/graph-project.db")

	serviceLog.Info("Opening sqlite database", "path", path)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}

	return &SQLiteService{db: db, log: serviceLog}, nil
}

func (s *SQLiteService) DB() *gorm.DB { return s.db }

func (s *SQLiteService) AutoMigrateAll() error {
	s.log.Info("Auto migrating sqlite tables...")
	if err := s.db.AutoMigrate(&types.IngestionRun{}); err != nil {
		s.log.Error("Auto migration failed for sqlite tables", "error", err)
		return fmt.Errorf("sqlite automigrate: %w", err)
	}
	return nil
}
