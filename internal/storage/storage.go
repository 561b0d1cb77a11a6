// Package storage provides the storage interface and the SQLite
// implementation backing the transaction repository.
package storage

import (
	"errors"
	"time"
)

// Sentinel errors shared by all storage implementations.
var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrStorageClosed = errors.New("storage is closed")
)

// Storage defines the interface for persistent data storage.
// Transactions are append-only: there is no update operation.
type Storage interface {
	// Transaction operations
	AddTransaction(tx *Transaction) error
	GetTransactions(filter TransactionFilter) ([]*Transaction, error)
	CountTransactions(filter TransactionFilter) (int64, error)
	DeleteProjectTransactions(projectID string) error

	// Raw snapshot operations
	AddRawTransaction(raw *RawTransaction) error
	GetRawTransactions(transactionID string) ([]*RawTransaction, error)
	DeleteRawTransactions(transactionID string) error
	PurgeRawTransactionsBefore(cutoff time.Time) (int64, error)

	// Project operations (lookup + seeding only; CRUD lives elsewhere)
	CreateProject(project *Project) error
	GetProjectBySlug(slug string) (*Project, error)

	// Maintenance operations
	Close() error
}

// NewSQLiteStorage creates a new SQLite storage instance.
// This is the main factory function for creating storage.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	s, err := newSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
