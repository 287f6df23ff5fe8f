package collector

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/devdazzlee/southen-sweet-sub000/internal/analytics"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(cred *Credentials) (*PostgresStore, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(s.db, &postgres.Config{
		MigrationsTable: "tracking_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (s *PostgresStore) SaveBatch(ctx context.Context, websiteID string, events []analytics.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO tracking_events (id, website_id, session_id, user_id, event_name, data, page, device, browser, occurred_at, received_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	          ON CONFLICT (id) DO NOTHING`

	for _, event := range events {
		dataJSON, err := json.Marshal(event.Data)
		if err != nil {
			return fmt.Errorf("marshal event data: %w", err)
		}
		pageJSON, err := json.Marshal(event.Page)
		if err != nil {
			return fmt.Errorf("marshal event page: %w", err)
		}
		deviceJSON, err := json.Marshal(event.Device)
		if err != nil {
			return fmt.Errorf("marshal event device: %w", err)
		}
		browserJSON, err := json.Marshal(event.Browser)
		if err != nil {
			return fmt.Errorf("marshal event browser: %w", err)
		}

		_, insertErr := tx.ExecContext(ctx, query,
			event.ID,
			websiteID,
			event.SessionID,
			event.UserID,
			event.Name,
			dataJSON,
			pageJSON,
			deviceJSON,
			browserJSON,
			event.Timestamp)
		if insertErr != nil {
			return fmt.Errorf("insert event: %w", insertErr)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySession(ctx context.Context, sessionID string) ([]analytics.Event, error) {
	query := `SELECT id, session_id, user_id, event_name, data, page, device, browser, occurred_at
	          FROM tracking_events WHERE session_id = $1 ORDER BY occurred_at, received_at`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query events by session: %w", err)
	}
	defer rows.Close()

	var events []analytics.Event
	for rows.Next() {
		var event analytics.Event
		var dataJSON, pageJSON, deviceJSON, browserJSON []byte
		if err := rows.Scan(
			&event.ID,
			&event.SessionID,
			&event.UserID,
			&event.Name,
			&dataJSON,
			&pageJSON,
			&deviceJSON,
			&browserJSON,
			&event.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		if err := json.Unmarshal(dataJSON, &event.Data); err != nil {
			return nil, fmt.Errorf("unmarshal event data: %w", err)
		}
		if err := json.Unmarshal(pageJSON, &event.Page); err != nil {
			return nil, fmt.Errorf("unmarshal event page: %w", err)
		}
		if err := json.Unmarshal(deviceJSON, &event.Device); err != nil {
			return nil, fmt.Errorf("unmarshal event device: %w", err)
		}
		if err := json.Unmarshal(browserJSON, &event.Browser); err != nil {
			return nil, fmt.Errorf("unmarshal event browser: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
