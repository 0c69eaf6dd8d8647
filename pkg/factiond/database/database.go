package database

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Connect opens the database at the given DSN.
// SQLite for now; can be swapped to another engine via GORM driver.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return db, nil
}
