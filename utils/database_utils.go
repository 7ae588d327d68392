// database_utils should be the canonical place to put shared DB utils.
// It should not include:
// 1. Any util that doesn't manipulate DB
// 2. Any util that contains business logic
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/Luismorlan/teamfeed/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestDBPrefix         = "testonlydb_"
	TestDBNameCharLength = 8
)

// GetDBConnection get a connection to the database specified by env
func GetDBConnection() (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASS"),
		os.Getenv("DB_NAME"), os.Getenv("DB_PORT"))
	return getDB(dsn)
}

func getDB(connectionString string) (db *gorm.DB, err error) {
	return gorm.Open(postgres.Open(connectionString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// DatabaseSetupAndMigration creates/updates all feed tables. Safe to call on
// every startup.
func DatabaseSetupAndMigration(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Post{},
		&model.Comment{},
		&model.PostLike{},
		&model.CommentLike{},
	)
}

// CreateTempDB creates a throwaway file backed sqlite database for one test
// case, fully migrated. The file lives under t.TempDir so the test framework
// removes it after the test, no manual cleanup needed. A file backed DB (not
// :memory:) is used so that concurrent test writers exercise real locking.
func CreateTempDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbName := TestDBPrefix + RandomAlphabetString(TestDBNameCharLength) + ".db"
	dsn := filepath.Join(t.TempDir(), dbName) + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal("cannot open temp DB: ", err)
	}
	if err := DatabaseSetupAndMigration(db); err != nil {
		t.Fatal("cannot migrate temp DB: ", err)
	}

	t.Cleanup(func() {
		// Proactively close the connection instead of deferring to GC,
		// otherwise we might exceed the sqlite open handle limit across a
		// large test run.
		conn, _ := db.DB()
		conn.Close()
	})

	return db
}
