package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

// ─── Records ─────────────────────────────────────────────────────────────────

type Search struct {
	ID            string    `json:"id"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureDate string    `json:"departure_date"`
	ReturnDate    string    `json:"return_date"`
	Budget        float64   `json:"budget"`
	Adults        int       `json:"adults"`
	CreatedAt     time.Time `json:"created_at"`
}

// Plan is a persisted proposal with its calendar payload and optional PDF,
// keyed by the token the download endpoints use.
type Plan struct {
	ID           string    `json:"id"`
	SearchID     string    `json:"search_id"`
	ProposalJSON string    `json:"proposal_json"`
	ICS          string    `json:"ics"`
	PDFData      []byte    `json:"pdf_data,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists searches and plans. The Postgres implementation is used when
// connection settings exist; the in-memory one keeps the demo self-contained.
type Store interface {
	SaveSearch(s *Search) error
	SavePlan(p *Plan) error
	GetPlan(id string) (*Plan, error)
	Ping() error
}

// ErrNotFound is returned by GetPlan for unknown IDs.
var ErrNotFound = sql.ErrNoRows

// InitStore picks the backend from the environment.
func InitStore() Store {
	if os.Getenv("DATABASE_URL") == "" && os.Getenv("DB_HOST") == "" {
		log.Println("DATABASE_URL not set — using in-memory store")
		return NewMemoryStore()
	}
	return InitPostgres()
}

// ─── Postgres ────────────────────────────────────────────────────────────────

type PostgresStore struct {
	db *sql.DB
}

func InitPostgres() *PostgresStore {
	db, err := sql.Open("postgres", buildDSN())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// The hosted DB may take a moment to be ready.
	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		log.Printf("Waiting for database... attempt %d/10: %v", i+1, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatalf("Failed to connect to database after retries: %v", err)
	}

	s := &PostgresStore{db: db}
	s.migrate()
	log.Println("Database connected and migrated")
	return s
}

func buildDSN() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	pass := getEnv("DB_PASSWORD", "postgres")
	name := getEnv("DB_NAME", "tripplanner")
	sslmode := getEnv("DB_SSLMODE", "disable")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, pass, name, sslmode)
}

func (s *PostgresStore) migrate() {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			id             TEXT PRIMARY KEY,
			origin         TEXT NOT NULL,
			destination    TEXT NOT NULL,
			departure_date TEXT NOT NULL,
			return_date    TEXT NOT NULL,
			budget         NUMERIC(12,2) DEFAULT 0,
			adults         INTEGER DEFAULT 1,
			created_at     TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS plans (
			id            TEXT PRIMARY KEY,
			search_id     TEXT REFERENCES searches(id),
			proposal_json TEXT,
			ics           TEXT,
			pdf_data      BYTEA,
			created_at    TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_plans_search_id ON plans(search_id)`,

		`CREATE INDEX IF NOT EXISTS idx_searches_created_at ON searches(created_at DESC)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			log.Fatalf("Migration failed: %v\nSQL: %s", err, m)
		}
	}
}

func (s *PostgresStore) SaveSearch(rec *Search) error {
	_, err := s.db.Exec(`
		INSERT INTO searches (id, origin, destination, departure_date, return_date, budget, adults)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Origin, rec.Destination, rec.DepartureDate, rec.ReturnDate, rec.Budget, rec.Adults)
	return err
}

func (s *PostgresStore) SavePlan(rec *Plan) error {
	_, err := s.db.Exec(`
		INSERT INTO plans (id, search_id, proposal_json, ics, pdf_data)
		VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.SearchID, rec.ProposalJSON, rec.ICS, rec.PDFData)
	return err
}

func (s *PostgresStore) GetPlan(id string) (*Plan, error) {
	rec := &Plan{}
	err := s.db.QueryRow(`
		SELECT id, search_id, proposal_json, ics, pdf_data, created_at
		FROM plans WHERE id = $1`, id).
		Scan(&rec.ID, &rec.SearchID, &rec.ProposalJSON, &rec.ICS, &rec.PDFData, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *PostgresStore) Ping() error {
	return s.db.Ping()
}

// ─── In-memory ───────────────────────────────────────────────────────────────

type MemoryStore struct {
	mu       sync.RWMutex
	searches map[string]*Search
	plans    map[string]*Plan
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		searches: make(map[string]*Search),
		plans:    make(map[string]*Plan),
	}
}

func (s *MemoryStore) SaveSearch(rec *Search) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	cp.CreatedAt = time.Now()
	s.searches[rec.ID] = &cp
	return nil
}

func (s *MemoryStore) SavePlan(rec *Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	cp.CreatedAt = time.Now()
	s.plans[rec.ID] = &cp
	return nil
}

func (s *MemoryStore) GetPlan(id string) (*Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.plans[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) Ping() error {
	return nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
