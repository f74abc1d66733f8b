package repos

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/skillforge-hq/skillforge-backend/internal/db"
	"github.com/skillforge-hq/skillforge-backend/internal/logger"
)

func testDB(t *testing.T) (*gorm.DB, *logger.Logger) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return gdb, log
}
