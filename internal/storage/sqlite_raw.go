package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AddRawTransaction stores one raw request or response snapshot.
func (s *SQLiteStorage) AddRawTransaction(raw *RawTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}
	if raw.TransactionID == "" || (raw.Kind != RawKindRequest && raw.Kind != RawKindResponse) {
		return ErrInvalidInput
	}
	if raw.ID == "" {
		raw.ID = uuid.New().String()
	}
	if raw.CreatedAt.IsZero() {
		raw.CreatedAt = time.Now().UTC()
	}

	headers, err := json.Marshal(raw.Headers)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO raw_transactions (id, transaction_id, kind, headers, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, raw.ID, raw.TransactionID, raw.Kind, string(headers), raw.Body, raw.CreatedAt.UTC())

	return err
}

// GetRawTransactions retrieves the snapshots for one transaction.
func (s *SQLiteStorage) GetRawTransactions(transactionID string) ([]*RawTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	rows, err := s.db.Query(`
		SELECT id, transaction_id, kind, headers, body, created_at
		FROM raw_transactions WHERE transaction_id = ? ORDER BY kind DESC
	`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var raws []*RawTransaction
	for rows.Next() {
		raw, err := scanRawTransaction(rows)
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}

	return raws, rows.Err()
}

// DeleteRawTransactions removes the snapshots of one transaction.
func (s *SQLiteStorage) DeleteRawTransactions(transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	_, err := s.db.Exec("DELETE FROM raw_transactions WHERE transaction_id = ?", transactionID)
	return err
}

// PurgeRawTransactionsBefore removes snapshots older than the cutoff.
// Called by the retention sweeper; transactions themselves are kept.
func (s *SQLiteStorage) PurgeRawTransactionsBefore(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStorageClosed
	}

	result, err := s.db.Exec("DELETE FROM raw_transactions WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// scanRawTransaction reads one row into a RawTransaction.
func scanRawTransaction(rows *sql.Rows) (*RawTransaction, error) {
	var raw RawTransaction
	var headers string
	err := rows.Scan(&raw.ID, &raw.TransactionID, &raw.Kind, &headers,
		&raw.Body, &raw.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(headers), &raw.Headers); err != nil {
		raw.Headers = nil
	}
	return &raw, nil
}
