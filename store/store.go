// Package store persists diagnoses to PostgreSQL through gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/maastricht-university/ecg-pipeline/config"
)

var ErrNotFound = errors.New("diagnosis not found")

// DiagnosisRow is one processed recording.
type DiagnosisRow struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Record    string    `gorm:"index;not null" json:"record"`
	Tranche   string    `gorm:"size:1" json:"tranche"`
	Status    string    `gorm:"not null" json:"status"`
	Positive  string    `gorm:"type:text" json:"positive"` // comma separated abbreviations
	Codes     string    `gorm:"type:text" json:"codes"`
	Verdicts  string    `gorm:"type:text" json:"verdicts"` // JSON
	Scores    string    `gorm:"type:text" json:"scores"`   // JSON
	HeartRate float64   `json:"heart_rate"`
	CreatedAt time.Time `json:"created_at"`
}

func (DiagnosisRow) TableName() string {
	return "ecg_diagnoses"
}

func (r *DiagnosisRow) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// Store saves and looks up diagnoses.
type Store interface {
	Save(ctx context.Context, row *DiagnosisRow) error
	Get(ctx context.Context, id string) (DiagnosisRow, error)
	ByRecord(ctx context.Context, record string, limit int) ([]DiagnosisRow, error)
}

// DSN builds the libpq connection string for cfg.
func DSN(cfg config.Database) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.Host,
		cfg.User,
		cfg.Password,
		cfg.DBName,
		cfg.Port,
	)
}

type Postgres struct {
	db *gorm.DB
}

// Connect opens the database and migrates the diagnosis table.
func Connect(cfg config.Database) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	if err := db.AutoMigrate(&DiagnosisRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Save(ctx context.Context, row *DiagnosisRow) error {
	if err := p.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("save diagnosis %s: %w", row.Record, err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (DiagnosisRow, error) {
	var row DiagnosisRow
	err := p.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DiagnosisRow{}, ErrNotFound
	}
	return row, err
}

func (p *Postgres) ByRecord(ctx context.Context, record string, limit int) ([]DiagnosisRow, error) {
	var rows []DiagnosisRow
	q := p.db.WithContext(ctx).Where("record = ?", record).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("diagnoses of %s: %w", record, err)
	}
	return rows, nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Memory keeps rows in process. It backs runs with the database disabled.
type Memory struct {
	mu   sync.RWMutex
	rows map[string]DiagnosisRow
}

func NewMemory() *Memory { return &Memory{rows: map[string]DiagnosisRow{}} }

func (m *Memory) Save(_ context.Context, row *DiagnosisRow) error {
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[row.ID] = *row
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (DiagnosisRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[id]
	if !ok {
		return DiagnosisRow{}, ErrNotFound
	}
	return row, nil
}

func (m *Memory) ByRecord(_ context.Context, record string, limit int) ([]DiagnosisRow, error) {
	m.mu.RLock()
	var out []DiagnosisRow
	for _, r := range m.rows {
		if r.Record == record {
			out = append(out, r)
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
