package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"reimburse/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS emails (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS conversions (
  id TEXT PRIMARY KEY,
  emailId INTEGER,
  sourceName TEXT NOT NULL,
  outputPath TEXT NOT NULL DEFAULT '',
  payer TEXT NOT NULL DEFAULT '',
  records INTEGER NOT NULL DEFAULT 0,
  unparsedAmounts INTEGER NOT NULL DEFAULT 0,
  grandTotal TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  error TEXT NOT NULL DEFAULT '',
  startedAt TEXT NOT NULL,
  finishedAt TEXT NOT NULL DEFAULT '',
  FOREIGN KEY(emailId) REFERENCES emails(id)
);
CREATE INDEX IF NOT EXISTS idx_conversions_startedAt ON conversions(startedAt);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertEmail(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.EmailRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO emails (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.EmailRow{}, err
	}

	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, errors.New("failed to upsert email")
	}
	return *row, nil
}

const emailColumns = `id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef`

type scanner interface {
	Scan(dest ...any) error
}

func scanEmail(s scanner) (internal.EmailRow, error) {
	var row internal.EmailRow
	err := s.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef)
	return row, err
}

func (d *DB) GetEmailByProviderMessageID(provider, messageID string) (*internal.EmailRow, error) {
	row, err := scanEmail(d.conn.QueryRow(`SELECT `+emailColumns+` FROM emails WHERE provider = ? AND messageId = ?`, provider, messageID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) GetEmailByID(id int) (*internal.EmailRow, error) {
	row, err := scanEmail(d.conn.QueryRow(`SELECT `+emailColumns+` FROM emails WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListEmailsByStatus returns the oldest emails in a status. An empty
// provider matches every provider.
func (d *DB) ListEmailsByStatus(status, provider string, limit int) ([]internal.EmailRow, error) {
	rows, err := d.conn.Query(`SELECT `+emailColumns+` FROM emails WHERE status = ? AND (? = '' OR provider = ?) ORDER BY receivedAt ASC LIMIT ?`, status, provider, provider, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.EmailRow
	for rows.Next() {
		row, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateEmailStatus(emailID int, status string) error {
	_, err := d.conn.Exec(`UPDATE emails SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, emailID)
	return err
}

func (d *DB) MustEmailByProviderMessageID(provider, messageID string) (internal.EmailRow, error) {
	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, fmt.Errorf("email not found: provider=%s messageId=%s", provider, messageID)
	}
	return *row, nil
}

// InsertConversion records a conversion that has just started.
func (d *DB) InsertConversion(id string, emailID *int, sourceName string, startedAt time.Time) error {
	_, err := d.conn.Exec(`
INSERT INTO conversions (id, emailId, sourceName, status, startedAt)
VALUES (?, ?, ?, ?, ?)
`, id, emailID, sourceName, string(internal.ConversionRunning), startedAt.UTC().Format(time.RFC3339))
	return err
}

type ConversionOutcome struct {
	Status          internal.ConversionStatus
	OutputPath      string
	Payer           string
	Records         int
	UnparsedAmounts int
	GrandTotal      string
	Error           string
	FinishedAt      time.Time
}

func (d *DB) FinishConversion(id string, out ConversionOutcome) error {
	res, err := d.conn.Exec(`
UPDATE conversions SET
  status = ?, outputPath = ?, payer = ?, records = ?, unparsedAmounts = ?,
  grandTotal = ?, error = ?, finishedAt = ?
WHERE id = ?
`, string(out.Status), out.OutputPath, out.Payer, out.Records, out.UnparsedAmounts,
		out.GrandTotal, out.Error, out.FinishedAt.UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("conversion not found: %s", id)
	}
	return nil
}

const conversionColumns = `id, emailId, sourceName, outputPath, payer, records, unparsedAmounts, grandTotal, status, error, startedAt, finishedAt`

func scanConversion(s scanner) (internal.ConversionRow, error) {
	var row internal.ConversionRow
	var emailID sql.NullInt64
	err := s.Scan(&row.ID, &emailID, &row.SourceName, &row.OutputPath, &row.Payer, &row.Records, &row.UnparsedAmounts,
		&row.GrandTotal, &row.Status, &row.Error, &row.StartedAt, &row.FinishedAt)
	if err != nil {
		return internal.ConversionRow{}, err
	}
	if emailID.Valid {
		id := int(emailID.Int64)
		row.EmailID = &id
	}
	return row, nil
}

func (d *DB) GetConversion(id string) (*internal.ConversionRow, error) {
	row, err := scanConversion(d.conn.QueryRow(`SELECT `+conversionColumns+` FROM conversions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListConversions returns the newest conversions first.
func (d *DB) ListConversions(limit int) ([]internal.ConversionRow, error) {
	rows, err := d.conn.Query(`SELECT `+conversionColumns+` FROM conversions ORDER BY startedAt DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ConversionRow
	for rows.Next() {
		row, err := scanConversion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
