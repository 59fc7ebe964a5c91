package config

import (
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitDB opens the database. MySQL when DB_DSN is set, otherwise a local
// SQLite file -- the cart and catalog caches are small enough that a single
// file is the normal deployment.
func InitDB() (*gorm.DB, error) {
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	}

	path := os.Getenv("DB_PATH")
	if path == "" {
		path = "qrdine.db"
	}
	return gorm.Open(sqlite.Open(path), &gorm.Config{})
}
