// Package memory implements the repository stores in process memory.
// It backs DB_DRIVER=memory and the test suites.
package memory

import (
	"sync"

	"github.com/sihmvp/dropout-monitor/internal/model"
)

// DB is the shared in-memory state behind every store in this package.
type DB struct {
	mu       sync.RWMutex
	students map[string]*model.Student
	scores   map[string][]model.TestScore
	nextTest int64
	users    map[string]*model.User
	audit    []model.AuditEntry
}

// Open returns an empty database.
func Open() *DB {
	return &DB{
		students: make(map[string]*model.Student),
		scores:   make(map[string][]model.TestScore),
		users:    make(map[string]*model.User),
	}
}

// AuditEntries returns a copy of the audit log.
func (db *DB) AuditEntries() []model.AuditEntry {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]model.AuditEntry(nil), db.audit...)
}
