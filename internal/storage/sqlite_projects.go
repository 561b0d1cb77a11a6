package storage

import (
	"database/sql"

	"github.com/google/uuid"
)

// CreateProject stores a project and its provider endpoints. This is a
// seeding operation; full project management lives outside this service.
func (s *SQLiteStorage) CreateProject(project *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}
	if project.Slug == "" {
		return ErrInvalidInput
	}
	if project.ID == "" {
		project.ID = uuid.New().String()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO projects (id, slug, name) VALUES (?, ?, ?)
	`, project.ID, project.Slug, project.Name); err != nil {
		return err
	}

	for _, provider := range project.Providers {
		if _, err := tx.Exec(`
			INSERT INTO ai_providers (project_id, slug, api_base) VALUES (?, ?, ?)
		`, project.ID, provider.Slug, provider.APIBase); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetProjectBySlug retrieves a project and its providers by slug.
func (s *SQLiteStorage) GetProjectBySlug(slug string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	var project Project
	err := s.db.QueryRow(`
		SELECT id, slug, name FROM projects WHERE slug = ?
	`, slug).Scan(&project.ID, &project.Slug, &project.Name)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT slug, api_base FROM ai_providers WHERE project_id = ? ORDER BY slug
	`, project.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var provider AIProvider
		if err := rows.Scan(&provider.Slug, &provider.APIBase); err != nil {
			return nil, err
		}
		project.Providers = append(project.Providers, provider)
	}

	return &project, rows.Err()
}
