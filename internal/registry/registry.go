// Package registry keeps the server's list of known projects: a slug to
// project-folder mapping backed by SQLite. The catalog itself stays in
// each project folder; the registry only records where the folders are.
package registry

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when no project exists for the given slug.
var ErrNotFound = errors.New("project not found")

// Project is one registered project folder.
type Project struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
}

type Registry struct {
	conn *sql.DB
}

// Open opens (or creates) the registry database at the given path.
func Open(path string) (*Registry, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping registry: %w", err)
	}

	r := &Registry{conn: conn}
	if err := r.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return r, nil
}

func (r *Registry) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		path TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	`

	_, err := r.conn.Exec(query)
	return err
}

// Create registers a project folder under a slug. The folder must exist.
func (r *Registry) Create(slug, path string) (*Project, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("project folder not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project path is not a directory: %s", path)
	}

	p := &Project{
		ID:        uuid.New().String(),
		Slug:      slug,
		Path:      path,
		CreatedAt: time.Now().UTC(),
	}
	_, err = r.conn.Exec(
		"INSERT INTO projects (id, slug, path, created_at) VALUES (?, ?, ?, ?)",
		p.ID, p.Slug, p.Path, p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register project: %w", err)
	}
	return p, nil
}

// GetBySlug looks a project up by its slug.
func (r *Registry) GetBySlug(slug string) (*Project, error) {
	var p Project
	err := r.conn.QueryRow(
		"SELECT id, slug, path, created_at FROM projects WHERE slug = ?", slug,
	).Scan(&p.ID, &p.Slug, &p.Path, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// List returns all registered projects, newest first.
func (r *Registry) List() ([]Project, error) {
	rows, err := r.conn.Query("SELECT id, slug, path, created_at FROM projects ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Slug, &p.Path, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Delete removes a project registration. The project folder and its
// catalog are left untouched.
func (r *Registry) Delete(slug string) error {
	result, err := r.conn.Exec("DELETE FROM projects WHERE slug = ?", slug)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Registry) Close() error {
	return r.conn.Close()
}
