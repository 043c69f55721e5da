package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"phasegarden/internal/fulfillment/models"
	paymodels "phasegarden/internal/payment/models"
	"phasegarden/pkg/platform/sentinel"
)

//go:embed schema.sql
var schema string

const (
	pgUniqueViolation  = "23505"
	serialUniqueIndex  = "fulfillments_serial_key"
	fulfillmentColumns = `provider, provider_payment_id, serial, payer_email, delivery_status, delivery_attempts, last_error, created_at, updated_at, fulfilled_at, lease_until`
)

// PostgresStore persists fulfillments in PostgreSQL. The primary key on
// (provider, provider_payment_id) is the idempotency guard; the unique
// constraint on serial rejects collisions.
type PostgresStore struct {
	db    *sql.DB
	lease time.Duration
}

func NewPostgres(db *sql.DB, opts ...Option) *PostgresStore {
	cfg := newConfig(opts)
	return &PostgresStore{db: db, lease: cfg.lease}
}

// Migrate creates the fulfillments table and its indexes if missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate fulfillments: %w", err)
		}
	}
	return nil
}

// TryClaim inserts a Pending stub. A conflicting insert returns no row, in
// which case the existing record is read back as AlreadyClaimed.
func (s *PostgresStore) TryClaim(ctx context.Context, key paymodels.Key, email string, now time.Time) (models.ClaimResult, *models.Record, error) {
	query := `
		INSERT INTO fulfillments (provider, provider_payment_id, payer_email, delivery_status, delivery_attempts, last_error, created_at, updated_at, lease_until)
		VALUES ($1, $2, $3, 'pending', 0, '', $4, $4, $5)
		ON CONFLICT (provider, provider_payment_id) DO NOTHING
		RETURNING ` + fulfillmentColumns
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, string(key.Provider), key.PaymentID, email, now, now.Add(s.lease)))
	if err == nil {
		return models.Claimed, record, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, nil, fmt.Errorf("claim fulfillment: %w", err)
	}

	existing, err := s.Get(ctx, key)
	if err != nil {
		return 0, nil, fmt.Errorf("read claimed fulfillment: %w", err)
	}
	return models.AlreadyClaimed, existing, nil
}

func (s *PostgresStore) Get(ctx context.Context, key paymodels.Key) (*models.Record, error) {
	query := `SELECT ` + fulfillmentColumns + ` FROM fulfillments WHERE provider = $1 AND provider_payment_id = $2`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, string(key.Provider), key.PaymentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get fulfillment: %w", err)
	}
	return record, nil
}

// AcquireDelivery takes the delivery lease if no other attempt holds it and
// the record is eligible. Sent records are eligible only with includeSent.
func (s *PostgresStore) AcquireDelivery(ctx context.Context, key paymodels.Key, email string, now time.Time, includeSent bool) (*models.Record, error) {
	query := `
		UPDATE fulfillments
		SET lease_until = $4,
			updated_at = $3,
			payer_email = CASE WHEN payer_email = '' THEN $5 ELSE payer_email END
		WHERE provider = $1
		  AND provider_payment_id = $2
		  AND (lease_until IS NULL OR lease_until <= $3)
		  AND (delivery_status <> 'sent' OR $6)
		RETURNING ` + fulfillmentColumns
	record, err := scanRecord(s.db.QueryRowContext(ctx, query,
		string(key.Provider), key.PaymentID, now, now.Add(s.lease), email, includeSent))
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("acquire delivery: %w", err)
	}
	if _, err := s.Get(ctx, key); err != nil {
		return nil, err
	}
	return nil, sentinel.ErrConflict
}

// AssignSerial sets the serial once. sentinel.ErrConflict means another
// record already owns the serial; sentinel.ErrAlreadyUsed means this record
// already has one.
func (s *PostgresStore) AssignSerial(ctx context.Context, key paymodels.Key, serial string, now time.Time) (*models.Record, error) {
	query := `
		UPDATE fulfillments
		SET serial = $3, updated_at = $4
		WHERE provider = $1 AND provider_payment_id = $2 AND serial IS NULL
		RETURNING ` + fulfillmentColumns
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, string(key.Provider), key.PaymentID, serial, now))
	if err == nil {
		return record, nil
	}
	if isSerialCollision(err) {
		return nil, sentinel.ErrConflict
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assign serial: %w", err)
	}
	if _, err := s.Get(ctx, key); err != nil {
		return nil, err
	}
	return nil, sentinel.ErrAlreadyUsed
}

func (s *PostgresStore) MarkSent(ctx context.Context, key paymodels.Key, now time.Time) (*models.Record, error) {
	query := `
		UPDATE fulfillments
		SET delivery_status = 'sent',
			delivery_attempts = delivery_attempts + 1,
			last_error = '',
			fulfilled_at = $3,
			updated_at = $3,
			lease_until = NULL
		WHERE provider = $1 AND provider_payment_id = $2
		RETURNING ` + fulfillmentColumns
	return s.update(ctx, "mark sent", query, string(key.Provider), key.PaymentID, now)
}

func (s *PostgresStore) MarkFailed(ctx context.Context, key paymodels.Key, reason string, now time.Time) (*models.Record, error) {
	query := `
		UPDATE fulfillments
		SET delivery_status = 'failed',
			delivery_attempts = delivery_attempts + 1,
			last_error = $4,
			updated_at = $3,
			lease_until = NULL
		WHERE provider = $1 AND provider_payment_id = $2
		RETURNING ` + fulfillmentColumns
	return s.update(ctx, "mark failed", query, string(key.Provider), key.PaymentID, now, reason)
}

func (s *PostgresStore) update(ctx context.Context, op, query string, args ...any) (*models.Record, error) {
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return record, nil
}

// ListByStatus returns records in any of the given statuses, oldest first.
func (s *PostgresStore) ListByStatus(ctx context.Context, statuses []models.DeliveryStatus, limit int) ([]*models.Record, error) {
	names := make([]string, 0, len(statuses))
	for _, st := range statuses {
		names = append(names, string(st))
	}
	query := `
		SELECT ` + fulfillmentColumns + `
		FROM fulfillments
		WHERE delivery_status = ANY($1)
		ORDER BY created_at, provider, provider_payment_id
		LIMIT $2`
	// pq.Array only encodes the text[] parameter; pgx stays the driver.
	return s.list(ctx, "list fulfillments", query, pq.Array(names), limitOrAll(limit))
}

// ListStalePending returns Pending records not updated since before.
func (s *PostgresStore) ListStalePending(ctx context.Context, before time.Time, limit int) ([]*models.Record, error) {
	query := `
		SELECT ` + fulfillmentColumns + `
		FROM fulfillments
		WHERE delivery_status = 'pending' AND updated_at < $1
		ORDER BY created_at, provider, provider_payment_id
		LIMIT $2`
	return s.list(ctx, "list stale pending", query, before, limitOrAll(limit))
}

func (s *PostgresStore) list(ctx context.Context, op, query string, args ...any) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", op, err)
	}
	return out, nil
}

// limitOrAll maps a non-positive limit to NULL, which LIMIT treats as no limit.
func limitOrAll(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

func isSerialCollision(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == serialUniqueIndex
	}
	return false
}

type recordRow interface {
	Scan(dest ...any) error
}

func scanRecord(row recordRow) (*models.Record, error) {
	var (
		record      models.Record
		provider    string
		status      string
		serial      sql.NullString
		fulfilledAt sql.NullTime
		leaseUntil  sql.NullTime
	)
	if err := row.Scan(&provider, &record.Key.PaymentID, &serial, &record.PayerEmail, &status,
		&record.Attempts, &record.LastError, &record.CreatedAt, &record.UpdatedAt, &fulfilledAt, &leaseUntil); err != nil {
		return nil, err
	}
	record.Key.Provider = paymodels.Provider(provider)
	record.Status = models.DeliveryStatus(status)
	if serial.Valid {
		record.Serial = serial.String
	}
	if fulfilledAt.Valid {
		record.FulfilledAt = &fulfilledAt.Time
	}
	if leaseUntil.Valid {
		record.LeaseUntil = &leaseUntil.Time
	}
	return &record, nil
}
