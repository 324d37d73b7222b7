package tracker

import (
	"strconv"
	"time"
)

// Address state classifications, as reported by the reservation source.
// The engine recognizes only StateActiveReservation; every other value is
// carried through to the output files untouched.
const (
	StateActiveReservation   = "ActiveReservation"
	StateInactiveReservation = "InactiveReservation"
)

// Timestamp layouts used in the rendered CSV rows. Date and time are kept
// in two separate columns so that the files stay easy to pivot in a
// spreadsheet.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Reservation is the engine's view on a single DHCP address reservation.
// One instance exists per (address, scope) pair returned by the source in
// a given run; instances are rebuilt fresh every run and only their
// rendered CSV snapshot is persisted.
type Reservation struct {
	// identity, filled by the collector:
	Address     string // string form of the reserved IP, unique within a run
	ScopeID     string
	Name        string
	Description string

	// AddressState is the classification reported by the source at query
	// time; left empty when the per-address lookup failed.
	AddressState string

	// liveness, filled by the resolver:
	Online bool
	Date   string // empty until the resolver stamps the record
	Time   string

	// carry-forward, filled by the writer:
	LastOnlineDate string
	LastOnlineTime string
}

// CSVHeader is the fixed column order of both the per-address history files
// and the global ledger.
var CSVHeader = []string{
	"date", "time", "name", "description", "address", "scopeId",
	"online", "lastOnlineDate", "lastOnlineTime", "addressState",
}

// csvRow renders the reservation snapshot in the CSVHeader column order.
func (r Reservation) csvRow() []string {
	return []string{
		r.Date,
		r.Time,
		r.Name,
		r.Description,
		r.Address,
		r.ScopeID,
		strconv.FormatBool(r.Online),
		r.LastOnlineDate,
		r.LastOnlineTime,
		r.AddressState,
	}
}

// ReservationSource is the engine's only window on the DHCP server.
// Implementations are expected to be cheap to call repeatedly within one
// run (e.g. by caching whatever files or API responses they consume).
type ReservationSource interface {
	// ActiveScopes returns the IDs of the scopes currently active on the
	// server. An error here means the source is unreachable and aborts
	// the whole run.
	ActiveScopes() ([]string, error)

	// Reservations returns the reservations belonging to the given scope,
	// with Address, ScopeID, Name and Description filled in.
	Reservations(scopeID string) ([]Reservation, error)

	// AddressState returns the current classification for the given
	// address. An error here degrades only the affected record.
	AddressState(address string) (string, error)
}

// LivenessProbe answers whether an address is reachable right now.
// A single attempt is made per address per run; errors are reported for
// diagnostics but always resolve to "offline", never to a run failure.
type LivenessProbe interface {
	Probe(address string, timeout time.Duration) (bool, error)
}

// RunReport summarizes one run: how many records were processed and how
// many soft failures were encountered along the way. Soft failures never
// change the process exit status.
type RunReport struct {
	Records              int
	StateLookupFailures  int
	ProbeErrors          int
	WriteFailures        int
	OrphanedFilesDeleted int
}

// splitTimestamp renders a time.Time into the separate date and time
// columns used by the CSV schema.
func splitTimestamp(t time.Time) (date, tm string) {
	return t.Format(DateLayout), t.Format(TimeLayout)
}

// joinTimestamp is the inverse of splitTimestamp.
func joinTimestamp(date, tm string) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+tm, time.Local)
}
