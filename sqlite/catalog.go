// Package sqlite provides a port catalog stored in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	_ "modernc.org/sqlite"

	"github.com/Qalifah/voyage-tracker/geo"
	"github.com/Qalifah/voyage-tracker/location"
)

//go:embed schema.sql
var schemaSQL string

const queryTimeout = 5 * time.Second

// Catalog is a location.Repository backed by a SQLite database.
type Catalog struct {
	conn    *sql.DB
	writeMu sync.Mutex
	logger  log.Logger
}

// Open opens the catalog database at path and makes sure its schema exists.
// Use ":memory:" for a throwaway catalog.
func Open(ctx context.Context, path string, logger log.Logger) (*Catalog, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	// a single connection keeps in-memory databases alive and serialises writers
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			level.Warn(logger).Log("msg", "pragma failed", "pragma", pragma, "err", err)
		}
	}

	c := &Catalog{conn: conn, logger: logger}
	if err := c.ensureSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.conn.Close()
}

func (c *Catalog) ensureSchema(ctx context.Context) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Store inserts or replaces locations in one transaction.
func (c *Catalog) Store(ctx context.Context, locs ...*location.Location) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO locations (unlocode, name, name_key, lat, lng, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(unlocode) DO UPDATE SET
			name = excluded.name,
			name_key = excluded.name_key,
			lat = excluded.lat,
			lng = excluded.lng,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, l := range locs {
		var lat, lng sql.NullFloat64
		if l.Coordinate != nil {
			lat = sql.NullFloat64{Float64: l.Coordinate.Lat, Valid: true}
			lng = sql.NullFloat64{Float64: l.Coordinate.Lng, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, string(l.UNLcode), l.Name, location.NormalizeName(l.Name), lat, lng, now); err != nil {
			return fmt.Errorf("store %s: %w", l.UNLcode, err)
		}
	}
	return tx.Commit()
}

// Seed stores locs unless the catalog already holds locations.
func (c *Catalog) Seed(ctx context.Context, locs []*location.Location) error {
	var n int
	if err := c.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM locations`).Scan(&n); err != nil {
		return fmt.Errorf("count locations: %w", err)
	}
	if n > 0 {
		return nil
	}
	return c.Store(ctx, locs...)
}

// Find implements location.Repository.
func (c *Catalog) Find(code location.UNLcode) (*location.Location, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	return c.queryOne(ctx, `SELECT unlocode, name, lat, lng FROM locations WHERE unlocode = ?`, string(code))
}

// FindByName implements location.Repository.
func (c *Catalog) FindByName(name string) (*location.Location, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	return c.queryOne(ctx, `SELECT unlocode, name, lat, lng FROM locations WHERE name_key = ? ORDER BY unlocode LIMIT 1`, location.NormalizeName(name))
}

// FindAll implements location.Repository. Query failures are logged and
// yield an empty list.
func (c *Catalog) FindAll() []*location.Location {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := c.conn.QueryContext(ctx, `SELECT unlocode, name, lat, lng FROM locations ORDER BY unlocode`)
	if err != nil {
		level.Error(c.logger).Log("msg", "list locations", "err", err)
		return nil
	}
	defer rows.Close()

	var locs []*location.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			level.Error(c.logger).Log("msg", "scan location", "err", err)
			return nil
		}
		locs = append(locs, l)
	}
	if err := rows.Err(); err != nil {
		level.Error(c.logger).Log("msg", "list locations", "err", err)
		return nil
	}
	return locs
}

func (c *Catalog) queryOne(ctx context.Context, query string, arg interface{}) (*location.Location, error) {
	l, err := scanLocation(c.conn.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, location.ErrUnknown
	}
	if err != nil {
		return nil, fmt.Errorf("query location: %w", err)
	}
	return l, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLocation(s scanner) (*location.Location, error) {
	var (
		code, name string
		lat, lng   sql.NullFloat64
	)
	if err := s.Scan(&code, &name, &lat, &lng); err != nil {
		return nil, err
	}
	l := &location.Location{UNLcode: location.UNLcode(code), Name: name}
	if lat.Valid && lng.Valid {
		l.Coordinate = &geo.Coordinate{Lat: lat.Float64, Lng: lng.Float64}
	}
	return l, nil
}
