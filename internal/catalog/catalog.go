package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/arkilian/eventlog/internal/decoder"
	elerrors "github.com/arkilian/eventlog/internal/errors"
	"github.com/arkilian/eventlog/pkg/types"
)

// Catalog stores decoded captures.
type Catalog interface {
	// RegisterCapture stores a decoded log. Exporting the same raw bytes again
	// returns the existing capture ID with created=false.
	RegisterCapture(ctx context.Context, source string, raw []byte, log *decoder.Log) (captureID string, created bool, err error)

	// GetCapture retrieves a single capture by ID.
	GetCapture(ctx context.Context, captureID string) (*CaptureRecord, error)

	// ListCaptures returns all captures, oldest first.
	ListCaptures(ctx context.Context) ([]*CaptureRecord, error)

	// EventTypes returns the type dictionary of a capture in file order.
	EventTypes(ctx context.Context, captureID string) ([]types.EventType, error)

	// EventsByType returns the events of one type in stream order.
	EventsByType(ctx context.Context, captureID string, id types.EventID) ([]types.Event, error)

	// Close closes the database connection.
	Close() error
}

// ErrCaptureNotFound is returned when a capture ID is unknown.
var ErrCaptureNotFound = errors.New("capture not found")

// CaptureRecord represents one exported capture.
type CaptureRecord struct {
	CaptureID   string
	Fingerprint string
	Source      string
	SizeBytes   int64
	HeaderBytes int64
	BodyBytes   int64
	TypeCount   int64
	EventCount  int64
	CreatedAt   time.Time
}

// SQLiteCatalog implements Catalog using SQLite.
type SQLiteCatalog struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex // Serializes writers
}

// NewCatalog opens (creating if needed) the catalog database at dbPath.
func NewCatalog(dbPath string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, elerrors.NewCatalogError(elerrors.CodeWriteFailed, "open database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c := &SQLiteCatalog{db: db, dbPath: dbPath}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, elerrors.NewCatalogError(elerrors.CodeWriteFailed, "initialize schema", err)
	}
	return c, nil
}

// initSchema creates all required tables and indexes.
func (c *SQLiteCatalog) initSchema() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, stmt := range AllSchemaSQL() {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// RegisterCapture stores the decoded log in one transaction.
func (c *SQLiteCatalog) RegisterCapture(ctx context.Context, source string, raw []byte, log *decoder.Log) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fingerprint := Fingerprint(raw)

	var existingID string
	err := c.db.QueryRowContext(ctx,
		"SELECT capture_id FROM captures WHERE fingerprint = ?", fingerprint,
	).Scan(&existingID)
	if err == nil {
		return existingID, false, nil
	}
	if err != sql.ErrNoRows {
		return "", false, elerrors.NewCatalogError(elerrors.CodeReadFailed, "check fingerprint", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, elerrors.NewCatalogError(elerrors.CodeWriteFailed, "begin transaction", err)
	}
	defer tx.Rollback()

	captureID := uuid.New().String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO captures (
			capture_id, fingerprint, source, size_bytes,
			header_bytes, body_bytes, type_count, event_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		captureID, fingerprint, source, len(raw),
		log.HeaderSize, log.BodySize, len(log.Types), len(log.Events), time.Now().Unix(),
	)
	if err != nil {
		return "", false, elerrors.NewCatalogError(elerrors.CodeWriteFailed, "insert capture", err)
	}

	if err := insertEventTypes(ctx, tx, captureID, log.Types); err != nil {
		return "", false, err
	}
	if err := insertEvents(ctx, tx, captureID, log.Events); err != nil {
		return "", false, err
	}

	if err := tx.Commit(); err != nil {
		return "", false, elerrors.NewCatalogError(elerrors.CodeWriteFailed, "commit capture", err)
	}
	return captureID, true, nil
}

func insertEventTypes(ctx context.Context, tx *sql.Tx, captureID string, eventTypes []types.EventType) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO event_types (capture_id, ordinal, type_id, variable, width, description, extra_info)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return elerrors.NewCatalogError(elerrors.CodeWriteFailed, "prepare event type insert", err)
	}
	defer stmt.Close()

	for i, et := range eventTypes {
		width, _ := et.Size.Width()
		if _, err := stmt.ExecContext(ctx,
			captureID, i, int64(et.ID), et.Size.IsVariable(), int64(width),
			nonNil(et.Description), nonNil(et.ExtraInfo),
		); err != nil {
			return elerrors.NewCatalogError(elerrors.CodeWriteFailed, fmt.Sprintf("insert event type %d", et.ID), err)
		}
	}
	return nil
}

func insertEvents(ctx context.Context, tx *sql.Tx, captureID string, events []types.Event) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (capture_id, seq, type_id, time_ns, data)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return elerrors.NewCatalogError(elerrors.CodeWriteFailed, "prepare event insert", err)
	}
	defer stmt.Close()

	for i, ev := range events {
		if _, err := stmt.ExecContext(ctx,
			captureID, i, int64(ev.Type), int64(ev.Time), nonNil(ev.Data),
		); err != nil {
			return elerrors.NewCatalogError(elerrors.CodeWriteFailed, fmt.Sprintf("insert event %d", i), err)
		}
	}
	return nil
}

// GetCapture retrieves a single capture by ID.
func (c *SQLiteCatalog) GetCapture(ctx context.Context, captureID string) (*CaptureRecord, error) {
	row := c.db.QueryRowContext(ctx, selectCaptureSQL+" WHERE capture_id = ?", captureID)
	rec, err := scanCapture(row)
	if err == sql.ErrNoRows {
		return nil, ErrCaptureNotFound
	}
	if err != nil {
		return nil, elerrors.NewCatalogError(elerrors.CodeReadFailed, "get capture", err)
	}
	return rec, nil
}

// ListCaptures returns all captures, oldest first.
func (c *SQLiteCatalog) ListCaptures(ctx context.Context) ([]*CaptureRecord, error) {
	rows, err := c.db.QueryContext(ctx, selectCaptureSQL+" ORDER BY created_at, rowid")
	if err != nil {
		return nil, elerrors.NewCatalogError(elerrors.CodeReadFailed, "list captures", err)
	}
	defer rows.Close()

	var records []*CaptureRecord
	for rows.Next() {
		rec, err := scanCapture(rows)
		if err != nil {
			return nil, elerrors.NewCatalogError(elerrors.CodeReadFailed, "scan capture", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, elerrors.NewCatalogError(elerrors.CodeReadFailed, "list captures", err)
	}
	return records, nil
}

// EventTypes returns the type dictionary of a capture in file order.
func (c *SQLiteCatalog) EventTypes(ctx context.Context, captureID string) ([]types.EventType, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT type_id, variable, width, description, extra_info
		FROM event_types WHERE capture_id = ? ORDER BY ordinal`, captureID)
	if err != nil {
		return nil, elerrors.NewCatalogError(elerrors.CodeReadFailed, "query event types", err)
	}
	defer rows.Close()

	eventTypes := []types.EventType{}
	for rows.Next() {
		var (
			id       int64
			variable bool
			width    int64
			et       types.EventType
		)
		if err := rows.Scan(&id, &variable, &width, &et.Description, &et.ExtraInfo); err != nil {
			return nil, elerrors.NewCatalogError(elerrors.CodeReadFailed, "scan event type", err)
		}
		et.ID = types.EventID(id)
		et.Size = types.ConstantSize(uint16(width))
		if variable {
			et.Size = types.VariableSize()
		}
		et.Description = nonNil(et.Description)
		et.ExtraInfo = nonNil(et.ExtraInfo)
		eventTypes = append(eventTypes, et)
	}
	if err := rows.Err(); err != nil {
		return nil, elerrors.NewCatalogError(elerrors.CodeReadFailed, "query event types", err)
	}
	return eventTypes, nil
}

// EventsByType returns the events of one type in stream order.
func (c *SQLiteCatalog) EventsByType(ctx context.Context, captureID string, id types.EventID) ([]types.Event, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT time_ns, data FROM events
		WHERE capture_id = ? AND type_id = ? ORDER BY seq`, captureID, int64(id))
	if err != nil {
		return nil, elerrors.NewCatalogError(elerrors.CodeReadFailed, "query events", err)
	}
	defer rows.Close()

	events := []types.Event{}
	for rows.Next() {
		var (
			ts int64
			ev = types.Event{Type: id}
		)
		if err := rows.Scan(&ts, &ev.Data); err != nil {
			return nil, elerrors.NewCatalogError(elerrors.CodeReadFailed, "scan event", err)
		}
		ev.Time = uint64(ts)
		ev.Data = nonNil(ev.Data)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, elerrors.NewCatalogError(elerrors.CodeReadFailed, "query events", err)
	}
	return events, nil
}

// Close closes the catalog database connection.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

const selectCaptureSQL = `
	SELECT capture_id, fingerprint, source, size_bytes, header_bytes,
	       body_bytes, type_count, event_count, created_at
	FROM captures`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCapture(row rowScanner) (*CaptureRecord, error) {
	var (
		rec       CaptureRecord
		createdAt int64
	)
	err := row.Scan(
		&rec.CaptureID, &rec.Fingerprint, &rec.Source, &rec.SizeBytes, &rec.HeaderBytes,
		&rec.BodyBytes, &rec.TypeCount, &rec.EventCount, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = time.Unix(createdAt, 0)
	return &rec, nil
}

// nonNil maps nil blobs to empty ones; SQLite stores nil as NULL.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
