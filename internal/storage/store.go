package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aleksih/moveinventory/internal/inventory"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Job is a persisted inventory job: one property survey with its photos'
// detection results. Customer contact fields are encrypted at rest.
type Job struct {
	ID              string
	CustomerName    string
	CustomerPhone   string
	PropertyContext *inventory.PropertyContext
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CachedResponse is a cached raw model reply keyed by prompt hash.
type CachedResponse struct {
	Text      string
	CreatedAt time.Time
}

// Store defines persistence for jobs, their reconciled detections and the
// model response cache.
type Store interface {
	SaveJob(job *Job) error
	GetJob(id string) (*Job, error)
	DeleteJob(id string) error

	SaveDetections(jobID string, detections []inventory.Detection) error
	GetDetections(jobID string) ([]inventory.Detection, error)

	GetCachedResponse(hash string) (*CachedResponse, error)
	SetCachedResponse(hash, text string) error
	PruneCache(olderThan time.Duration) (int64, error)

	Close() error
}

// SQLiteStore implements Store using SQLite with encrypted customer
// fields.
type SQLiteStore struct {
	db            *sql.DB
	encryptionKey []byte
	mu            sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) the database at dbPath. The
// encryptionKey protects customer contact fields; pass nil to store them
// in the clear.
func NewSQLiteStore(dbPath string, encryptionKey []byte) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db, encryptionKey: encryptionKey}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			customer_name TEXT NOT NULL DEFAULT '',
			customer_phone TEXT NOT NULL DEFAULT '',
			property_context TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS detections (
			job_id TEXT NOT NULL,
			label TEXT NOT NULL,
			qty INTEGER NOT NULL,
			confidence REAL NOT NULL,
			room TEXT NOT NULL,
			size TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			cubic_feet REAL NOT NULL,
			weight REAL NOT NULL,
			position INTEGER NOT NULL,
			FOREIGN KEY (job_id) REFERENCES jobs(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_job ON detections(job_id)`,
		`CREATE TABLE IF NOT EXISTS response_cache (
			hash TEXT PRIMARY KEY,
			response TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) seal(plain string) (string, error) {
	if s.encryptionKey == nil || plain == "" {
		return plain, nil
	}
	return Encrypt([]byte(plain), s.encryptionKey)
}

func (s *SQLiteStore) open(stored string) (string, error) {
	if s.encryptionKey == nil || stored == "" {
		return stored, nil
	}
	b, err := Decrypt(stored, s.encryptionKey)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SaveJob inserts or updates a job.
func (s *SQLiteStore) SaveJob(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, err := s.seal(job.CustomerName)
	if err != nil {
		return fmt.Errorf("failed to encrypt customer name: %w", err)
	}
	phone, err := s.seal(job.CustomerPhone)
	if err != nil {
		return fmt.Errorf("failed to encrypt customer phone: %w", err)
	}

	var pcJSON string
	if job.PropertyContext != nil {
		b, err := json.Marshal(job.PropertyContext)
		if err != nil {
			return fmt.Errorf("failed to marshal property context: %w", err)
		}
		pcJSON = string(b)
	}

	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	_, err = s.db.Exec(`
		INSERT INTO jobs (id, customer_name, customer_phone, property_context, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			customer_name = excluded.customer_name,
			customer_phone = excluded.customer_phone,
			property_context = excluded.property_context,
			updated_at = excluded.updated_at
	`, job.ID, name, phone, pcJSON, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by id. Returns nil, nil when it does not exist.
func (s *SQLiteStore) GetJob(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var name, phone, pcJSON string
	var createdAt, updatedAt time.Time

	err := s.db.QueryRow(
		"SELECT customer_name, customer_phone, property_context, created_at, updated_at FROM jobs WHERE id = ?",
		id,
	).Scan(&name, &phone, &pcJSON, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query job: %w", err)
	}

	job := &Job{ID: id, CreatedAt: createdAt, UpdatedAt: updatedAt}
	if job.CustomerName, err = s.open(name); err != nil {
		return nil, fmt.Errorf("failed to decrypt customer name: %w", err)
	}
	if job.CustomerPhone, err = s.open(phone); err != nil {
		return nil, fmt.Errorf("failed to decrypt customer phone: %w", err)
	}
	if pcJSON != "" {
		var pc inventory.PropertyContext
		if err := json.Unmarshal([]byte(pcJSON), &pc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal property context: %w", err)
		}
		job.PropertyContext = &pc
	}
	return job, nil
}

// DeleteJob removes a job and its detections.
func (s *SQLiteStore) DeleteJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM detections WHERE job_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete detections: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM jobs WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

// SaveDetections replaces the stored inventory for a job. Re-running
// detection overwrites previous results wholesale.
func (s *SQLiteStore) SaveDetections(jobID string, detections []inventory.Detection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM detections WHERE job_id = ?", jobID); err != nil {
		return fmt.Errorf("failed to clear detections: %w", err)
	}
	for i, d := range detections {
		_, err := tx.Exec(`
			INSERT INTO detections (job_id, label, qty, confidence, room, size, notes, cubic_feet, weight, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, jobID, d.Label, d.Qty, d.Confidence, d.Room, d.Size, d.Notes, d.CubicFeet, d.Weight, i)
		if err != nil {
			return fmt.Errorf("failed to insert detection: %w", err)
		}
	}
	return tx.Commit()
}

// GetDetections returns the stored inventory for a job in saved order.
func (s *SQLiteStore) GetDetections(jobID string) ([]inventory.Detection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT label, qty, confidence, room, size, notes, cubic_feet, weight
		FROM detections WHERE job_id = ? ORDER BY position
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var out []inventory.Detection
	for rows.Next() {
		var d inventory.Detection
		if err := rows.Scan(&d.Label, &d.Qty, &d.Confidence, &d.Room, &d.Size, &d.Notes, &d.CubicFeet, &d.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetCachedResponse returns a cached model reply, or nil, nil on miss.
func (s *SQLiteStore) GetCachedResponse(hash string) (*CachedResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var text string
	var createdAt time.Time
	err := s.db.QueryRow("SELECT response, created_at FROM response_cache WHERE hash = ?", hash).
		Scan(&text, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query response cache: %w", err)
	}
	return &CachedResponse{Text: text, CreatedAt: createdAt}, nil
}

// SetCachedResponse stores a model reply under its prompt hash.
func (s *SQLiteStore) SetCachedResponse(hash, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO response_cache (hash, response, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			response = excluded.response,
			created_at = excluded.created_at
	`, hash, text, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save cached response: %w", err)
	}
	return nil
}

// PruneCache deletes cache entries older than the given age and returns
// the number removed.
func (s *SQLiteStore) PruneCache(olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM response_cache WHERE created_at < ?", time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Debug().Int64("pruned", n).Msg("pruned response cache")
	}
	return n, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
