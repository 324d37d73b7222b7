package trackerdb

import (
	"fmt"
	"time"

	// import sqlite3 driver, so that database/sql package will know how to deal with "sqlite3" type
	_ "github.com/mattn/go-sqlite3"
)

// TrackedReservation is one row of the tracker DB: a reserved address that
// has been observed online at least once, together with the timestamp of
// the most recent run in which it was online. The reservation may or may
// not still exist on the DHCP server.
type TrackedReservation struct {
	Address    string
	ScopeID    string
	Name       string
	LastOnline time.Time
}

func (r TrackedReservation) String() string {
	return fmt.Sprintf("%s (%s, scope %s) last online %s",
		r.Address, r.Name, r.ScopeID, r.LastOnline.Format(time.RFC3339))
}
