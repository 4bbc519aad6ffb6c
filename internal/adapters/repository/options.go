// Package repository defines the ledger store interface and errors.
package repository

import (
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormOption applies a configuration option to the GORM ledger.
type GormOption func(*gorm.Config)

// WithGormLogger sets the GORM logger (silent by default).
func WithGormLogger(l gormlogger.Interface) GormOption {
	return func(cfg *gorm.Config) {
		if l != nil {
			cfg.Logger = l
		}
	}
}

// WithPreparedStatements enables statement caching on the connection.
func WithPreparedStatements() GormOption {
	return func(cfg *gorm.Config) {
		cfg.PrepareStmt = true
	}
}
