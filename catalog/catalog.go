// catalog/catalog.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package catalog maintains a SQLite index of airport summaries that can
// be queried by identifier or location.
package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mmp/xpapt/aptdat"
	"github.com/mmp/xpapt/log"
	"github.com/mmp/xpapt/math"
	"github.com/mmp/xpapt/util"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

type Catalog struct {
	conn *sql.DB
	// SQLite only supports a single writer.
	writeMu sync.Mutex
	lg      *log.Logger
}

// Open opens or creates the catalog database at path.
func Open(ctx context.Context, path string, lg *log.Logger) (*Catalog, error) {
	// modernc.org/sqlite applies _pragma parameters to every new
	// connection.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for _, pragma := range []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			lg.Warnf("%s: %s: %v", path, pragma, err)
		}
	}

	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: schema: %w", path, err)
	}

	lg.Infof("opened airport catalog %s", path)
	return &Catalog{conn: conn, lg: lg}, nil
}

func (c *Catalog) Close() error {
	return c.conn.Close()
}

// Insert adds the airports to the catalog in a single transaction,
// replacing any existing airports with the same identifiers.
func (c *Catalog) Insert(ctx context.Context, sums []aptdat.Summary) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	apStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO airports (
			id, name, elevation_ft, has_atc, latitude, longitude,
			has_taxiway, has_taxi_route, has_traffic_flow, has_ground_routes,
			has_taxiway_sign, has_comm_freq, records, from_file, version, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			elevation_ft = excluded.elevation_ft,
			has_atc = excluded.has_atc,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			has_taxiway = excluded.has_taxiway,
			has_taxi_route = excluded.has_taxi_route,
			has_traffic_flow = excluded.has_traffic_flow,
			has_ground_routes = excluded.has_ground_routes,
			has_taxiway_sign = excluded.has_taxiway_sign,
			has_comm_freq = excluded.has_comm_freq,
			records = excluded.records,
			from_file = excluded.from_file,
			version = excluded.version,
			updated_at = datetime('now')
	`)
	if err != nil {
		return fmt.Errorf("prepare airport statement: %w", err)
	}
	defer apStmt.Close()

	clearStmt, err := tx.PrepareContext(ctx, "DELETE FROM airport_metadata WHERE airport_id = ?")
	if err != nil {
		return fmt.Errorf("prepare metadata statement: %w", err)
	}
	defer clearStmt.Close()

	mdStmt, err := tx.PrepareContext(ctx, "INSERT INTO airport_metadata (airport_id, key, value) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare metadata statement: %w", err)
	}
	defer mdStmt.Close()

	for _, s := range sums {
		var lat, lon sql.NullFloat64
		if s.HasLocation {
			lat = sql.NullFloat64{Float64: s.Location.Latitude(), Valid: true}
			lon = sql.NullFloat64{Float64: s.Location.Longitude(), Valid: true}
		}

		if _, err := apStmt.ExecContext(ctx, s.Id, s.Name, s.Elevation, s.HasATC, lat, lon,
			s.HasTaxiway, s.HasTaxiRoute, s.HasTrafficFlow, s.HasGroundRoutes,
			s.HasTaxiwaySign, s.HasCommFreq, s.Records, s.FromFile, s.Version); err != nil {
			return fmt.Errorf("%s: %w", s.Id, err)
		}

		if _, err := clearStmt.ExecContext(ctx, s.Id); err != nil {
			return fmt.Errorf("%s: %w", s.Id, err)
		}
		for _, k := range util.SortedMapKeys(s.Metadata) {
			if _, err := mdStmt.ExecContext(ctx, s.Id, string(k), s.Metadata[k]); err != nil {
				return fmt.Errorf("%s: %s: %w", s.Id, k, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	c.lg.Infof("cataloged %d airports", len(sums))
	return nil
}

const selectAirports = `
	SELECT id, name, elevation_ft, has_atc, latitude, longitude,
		has_taxiway, has_taxi_route, has_traffic_flow, has_ground_routes,
		has_taxiway_sign, has_comm_freq, records, from_file, version
	FROM airports`

func (c *Catalog) query(ctx context.Context, where string, args ...any) ([]aptdat.Summary, error) {
	rows, err := c.conn.QueryContext(ctx, selectAirports+" "+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sums []aptdat.Summary
	for rows.Next() {
		var s aptdat.Summary
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&s.Id, &s.Name, &s.Elevation, &s.HasATC, &lat, &lon,
			&s.HasTaxiway, &s.HasTaxiRoute, &s.HasTrafficFlow, &s.HasGroundRoutes,
			&s.HasTaxiwaySign, &s.HasCommFreq, &s.Records, &s.FromFile, &s.Version); err != nil {
			return nil, err
		}
		if lat.Valid && lon.Valid {
			s.Location = math.Point2LL{lon.Float64, lat.Float64}
			s.HasLocation = true
		}
		s.Metadata = make(map[aptdat.MetadataKey]string)
		sums = append(sums, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// The single connection is free again so the metadata can be
	// queried.
	rows.Close()

	return sums, c.loadMetadata(ctx, sums)
}

func (c *Catalog) loadMetadata(ctx context.Context, sums []aptdat.Summary) error {
	idx := make(map[string]int, len(sums))
	for i, s := range sums {
		idx[s.Id] = i
	}

	// Stay well under SQLite's limit on the number of query parameters.
	for chunk := range slices.Chunk(sums, 500) {
		args := util.MapSlice(chunk, func(s aptdat.Summary) any { return s.Id })
		q := "SELECT airport_id, key, value FROM airport_metadata WHERE airport_id IN (?" +
			strings.Repeat(", ?", len(args)-1) + ")"

		rows, err := c.conn.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		for rows.Next() {
			var id, k, v string
			if err := rows.Scan(&id, &k, &v); err != nil {
				rows.Close()
				return err
			}
			if i, ok := idx[id]; ok {
				sums[i].Metadata[aptdat.MetadataKey(k)] = v
			}
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the airport with exactly the given identifier.
func (c *Catalog) Lookup(ctx context.Context, id string) (aptdat.Summary, error) {
	sums, err := c.query(ctx, "WHERE id = ?", id)
	if err != nil {
		return aptdat.Summary{}, err
	} else if len(sums) == 0 {
		return aptdat.Summary{}, fmt.Errorf("%s: %w", id, aptdat.ErrNotFound)
	}
	return sums[0], nil
}

// Within returns the airports located inside the given extent, ordered
// by identifier. Airports without a location are never returned.
func (c *Catalog) Within(ctx context.Context, e math.Extent2D) ([]aptdat.Summary, error) {
	if e.IsEmpty() {
		return nil, nil
	}
	return c.query(ctx, "WHERE latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ? ORDER BY id",
		e.P0.Latitude(), e.P1.Latitude(), e.P0.Longitude(), e.P1.Longitude())
}

func (c *Catalog) Count(ctx context.Context) (int, error) {
	var n int
	err := c.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM airports").Scan(&n)
	return n, err
}

// Delete removes the airport with the given identifier.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	res, err := c.conn.ExecContext(ctx, "DELETE FROM airports WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("%s: %w", id, aptdat.ErrNotFound)
	}
	_, err = c.conn.ExecContext(ctx, "DELETE FROM airport_metadata WHERE airport_id = ?", id)
	return err
}

// MetadataValues returns the distinct values of the given metadata key
// and the number of airports with each.
func (c *Catalog) MetadataValues(ctx context.Context, key aptdat.MetadataKey) (map[string]int, error) {
	rows, err := c.conn.QueryContext(ctx,
		"SELECT value, COUNT(*) FROM airport_metadata WHERE key = ? GROUP BY value", string(key))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := make(map[string]int)
	for rows.Next() {
		var v string
		var n int
		if err := rows.Scan(&v, &n); err != nil {
			return nil, err
		}
		m[v] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return m, nil
}
