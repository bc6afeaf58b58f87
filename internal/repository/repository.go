package repository

import (
	"errors"

	"gorm.io/gorm"
)

// Sentinel errors returned by the repository. Unique-constraint violations
// are translated here so callers can treat a lost insert race the same way
// as an ordinary duplicate.
var (
	ErrDuplicateCall     = errors.New("call already exists")
	ErrDuplicateAnalysis = errors.New("analysis already exists")
	ErrNotFound          = errors.New("record not found")
)

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB exposes the underlying handle for health checks.
func (r *Repository) DB() *gorm.DB {
	return r.db
}

func isDuplicateErr(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
