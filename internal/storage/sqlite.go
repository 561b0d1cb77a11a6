package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// newSQLite opens the database file with WAL and a single-writer pool.
func newSQLite(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	return &SQLiteStorage{db: db}, nil
}

// Migrate creates the database schema.
func (s *SQLiteStorage) Migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id    TEXT PRIMARY KEY,
		slug  TEXT NOT NULL UNIQUE,
		name  TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS ai_providers (
		project_id  TEXT NOT NULL,
		slug        TEXT NOT NULL,
		api_base    TEXT NOT NULL,
		PRIMARY KEY (project_id, slug),
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id               TEXT PRIMARY KEY,
		project_id       TEXT NOT NULL,
		tags             TEXT NOT NULL DEFAULT '[]',
		provider         TEXT NOT NULL,
		model            TEXT,
		type             TEXT NOT NULL,
		status_code      INTEGER NOT NULL,
		input_tokens     INTEGER,
		output_tokens    INTEGER,
		input_cost       REAL,
		output_cost      REAL,
		total_cost       REAL,
		generation_speed REAL,
		prompt           TEXT NOT NULL DEFAULT '',
		last_message     TEXT NOT NULL DEFAULT '',
		error_message    TEXT NOT NULL DEFAULT '',
		request_time     DATETIME NOT NULL,
		response_time    DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS raw_transactions (
		id             TEXT PRIMARY KEY,
		transaction_id TEXT NOT NULL,
		kind           TEXT NOT NULL,
		headers        TEXT NOT NULL DEFAULT '{}',
		body           BLOB,
		created_at     DATETIME NOT NULL,
		FOREIGN KEY (transaction_id) REFERENCES transactions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_tx_project ON transactions(project_id);
	CREATE INDEX IF NOT EXISTS idx_tx_response_time ON transactions(response_time);
	CREATE INDEX IF NOT EXISTS idx_tx_provider_model ON transactions(provider, model);
	CREATE INDEX IF NOT EXISTS idx_raw_tx ON raw_transactions(transaction_id);
	CREATE INDEX IF NOT EXISTS idx_raw_created ON raw_transactions(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

// AddTransaction stores a new transaction. Transactions are immutable
// once written; there is no corresponding update.
func (s *SQLiteStorage) AddTransaction(tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}
	if tx.ProjectID == "" || tx.Provider == "" || tx.Type == "" {
		return ErrInvalidInput
	}
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}

	tags, err := json.Marshal(tx.Tags)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO transactions (id, project_id, tags, provider, model, type,
			status_code, input_tokens, output_tokens, input_cost, output_cost,
			total_cost, generation_speed, prompt, last_message, error_message,
			request_time, response_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, tx.ID, tx.ProjectID, string(tags), tx.Provider, tx.Model, tx.Type,
		tx.StatusCode, tx.InputTokens, tx.OutputTokens, tx.InputCost, tx.OutputCost,
		tx.TotalCost, tx.GenerationSpeed, tx.Prompt, tx.LastMessage, tx.ErrorMessage,
		tx.RequestTime.UTC(), tx.ResponseTime.UTC())

	return err
}

// transactionColumns is the SELECT column list matching scanTransaction.
const transactionColumns = `id, project_id, tags, provider, model, type,
	status_code, input_tokens, output_tokens, input_cost, output_cost,
	total_cost, generation_speed, prompt, last_message, error_message,
	request_time, response_time`

// buildFilter appends WHERE clauses for a TransactionFilter.
func buildFilter(query string, filter TransactionFilter) (string, []any) {
	var args []any

	if filter.ProjectID != "" {
		query += " AND project_id = ?"
		args = append(args, filter.ProjectID)
	}
	if filter.Provider != "" {
		query += " AND provider = ?"
		args = append(args, filter.Provider)
	}
	if filter.Model != "" {
		query += " AND model = ?"
		args = append(args, filter.Model)
	}
	for _, tag := range filter.Tags {
		// Tags are stored as a JSON string array; match the quoted form.
		query += " AND tags LIKE ?"
		args = append(args, `%"`+tag+`"%`)
	}
	if filter.DateFrom != nil {
		query += " AND response_time >= ?"
		args = append(args, filter.DateFrom.UTC())
	}
	if filter.DateTo != nil {
		query += " AND response_time <= ?"
		args = append(args, filter.DateTo.UTC())
	}

	return query, args
}

// GetTransactions retrieves transactions matching the filter, ordered
// by response time ascending.
func (s *SQLiteStorage) GetTransactions(filter TransactionFilter) ([]*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	query, args := buildFilter(
		"SELECT "+transactionColumns+" FROM transactions WHERE 1=1", filter)
	query += " ORDER BY response_time ASC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}

	return transactions, rows.Err()
}

// CountTransactions counts transactions matching the filter.
func (s *SQLiteStorage) CountTransactions(filter TransactionFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStorageClosed
	}

	query, args := buildFilter("SELECT COUNT(*) FROM transactions WHERE 1=1", filter)

	var count int64
	err := s.db.QueryRow(query, args...).Scan(&count)
	return count, err
}

// DeleteProjectTransactions removes a project's transactions and, via
// the cascade, their raw snapshots. Used by project-cascade delete.
func (s *SQLiteStorage) DeleteProjectTransactions(projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	_, err := s.db.Exec(`
		DELETE FROM raw_transactions WHERE transaction_id IN
			(SELECT id FROM transactions WHERE project_id = ?)
	`, projectID)
	if err != nil {
		return err
	}
	_, err = s.db.Exec("DELETE FROM transactions WHERE project_id = ?", projectID)
	return err
}

// scanTransaction reads one row into a Transaction.
func scanTransaction(rows *sql.Rows) (*Transaction, error) {
	var tx Transaction
	var tags string
	err := rows.Scan(&tx.ID, &tx.ProjectID, &tags, &tx.Provider, &tx.Model,
		&tx.Type, &tx.StatusCode, &tx.InputTokens, &tx.OutputTokens,
		&tx.InputCost, &tx.OutputCost, &tx.TotalCost, &tx.GenerationSpeed,
		&tx.Prompt, &tx.LastMessage, &tx.ErrorMessage,
		&tx.RequestTime, &tx.ResponseTime)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &tx.Tags); err != nil {
		tx.Tags = nil
	}
	return &tx, nil
}
