package testutil

import (
	"testing"

	"gorm.io/gorm"

	"emotion-diary/internal/db"
	"emotion-diary/internal/repository"
)

// OpenTestDB abre SQLite en memoria con todas las tablas migradas.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.OpenSQLite(":memory:", repository.SQLiteModels()...)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}
