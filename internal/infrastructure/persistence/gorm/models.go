// Package gorm provides the GORM-backed key-value store shared by the SQL
// backends
package gorm

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/logger"
)

// KVEntryModel is one stored document. Values are JSON documents.
type KVEntryModel struct {
	Key       string         `gorm:"column:key;type:varchar(255);primaryKey"`
	Value     datatypes.JSON `gorm:"column:value;not null"`
	UpdatedAt time.Time
}

// TableName returns the table name for KVEntryModel
func (KVEntryModel) TableName() string {
	return "kv_entries"
}

// Models lists the models to migrate
func Models() []interface{} {
	return []interface{}{&KVEntryModel{}}
}

// LogLevel maps a configured level name to the GORM logger level
func LogLevel(name string, debug bool) logger.LogLevel {
	if debug {
		return logger.Info
	}
	switch name {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
