package trackerdb

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	// import sqlite3 driver, so that database/sql package will know how to deal with "sqlite3" type
	_ "github.com/mattn/go-sqlite3"
)

// ReservationTrackerDB manages the database operations for tracked reservations.
type ReservationTrackerDB struct {
	DB *sql.DB
}

// NewReservationTrackerDB initializes the database, creating the schema on
// first use.
func NewReservationTrackerDB(dbPath string) (*ReservationTrackerDB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	createTableQuery := `
	CREATE TABLE IF NOT EXISTS reservation_activity (
		address TEXT PRIMARY KEY,
		scope_id TEXT,
		name TEXT,
		last_online TEXT
	);
	`
	if _, err = db.Exec(createTableQuery); err != nil {
		return nil, err
	}

	return &ReservationTrackerDB{DB: db}, nil
}

// NewTestDB returns a mock DB for testing
func NewTestDB() ReservationTrackerDB {
	// Create an in-memory SQLite database for testing
	db, err := NewReservationTrackerDB(":memory:")
	if err != nil {
		log.Fatal("Failed to initialize test database")
	}
	return *db
}

// NewTestDBWithData returns a mock DB for testing
func NewTestDBWithData(reservationsInDB []TrackedReservation) ReservationTrackerDB {
	db := NewTestDB()

	// Insert test data into the database
	for _, r := range reservationsInDB {
		if err := db.TrackOnline(r); err != nil {
			log.Fatal("Failed to initialize test database")
		}
	}
	return db
}

// TrackOnline upserts the given reservation: a new address gets a fresh
// row, a known address gets its name, scope and last-online timestamp
// replaced. Rows are never deleted.
func (d *ReservationTrackerDB) TrackOnline(r TrackedReservation) error {
	insertQuery := `
	INSERT INTO reservation_activity (address, scope_id, name, last_online)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(address) DO UPDATE SET
		scope_id=excluded.scope_id,
		name=excluded.name,
		last_online=excluded.last_online;
	`

	_, err := d.DB.Exec(insertQuery, r.Address, r.ScopeID, r.Name, r.LastOnline.Format(time.RFC3339))
	if err != nil {
		return err
	}

	return nil
}

// GetReservation retrieves a tracked reservation by its address.
func (d *ReservationTrackerDB) GetReservation(address string) (*TrackedReservation, error) {
	query := `SELECT address, scope_id, name, last_online FROM reservation_activity WHERE address = ?`
	row := d.DB.QueryRow(query, address)

	var r TrackedReservation
	var lastOnline string

	err := row.Scan(&r.Address, &r.ScopeID, &r.Name, &lastOnline)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("address %s was never tracked online", address)
		}
		return nil, err
	}

	r.LastOnline, err = time.Parse(time.RFC3339, lastOnline)
	if err != nil {
		return nil, fmt.Errorf("failed to parse last_online: %w", err)
	}

	return &r, nil
}

// GetAllReservations returns every tracked reservation, ordered by address,
// including those whose reservation has since been deleted from the DHCP
// server.
func (d *ReservationTrackerDB) GetAllReservations() ([]TrackedReservation, error) {
	rows, err := d.DB.Query("SELECT address, scope_id, name, last_online FROM reservation_activity ORDER BY address")
	if err != nil {
		return nil, fmt.Errorf("failed to query reservation_activity: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	// in case of zero results return an empty slice, not nil
	reservations := make([]TrackedReservation, 0)
	for rows.Next() {
		var r TrackedReservation
		var lastOnline string

		if err := rows.Scan(&r.Address, &r.ScopeID, &r.Name, &lastOnline); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.LastOnline, err = time.Parse(time.RFC3339, lastOnline)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last_online: %w", err)
		}

		reservations = append(reservations, r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reservations, nil
}
