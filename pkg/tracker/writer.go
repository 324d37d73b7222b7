package tracker

import (
	"time"

	"dhcp-reservation-tracker/pkg/trackerdb"
)

// write renders every record and appends it to its per-address history file
// and to the global ledger, in collector order, creating files on first
// append. A write failure on one file never blocks the other file nor the
// remaining records: each append is best effort and surfaced as a warning.
func (t *Tracker) write(records []Reservation, report *RunReport) {
	for i := range records {
		r := &records[i]

		t.carryForward(r)

		if err := t.store.AppendAddress(r.Address, r.csvRow()); err != nil {
			t.log.Warnf("failed to append to the history file of address %s: %s", r.Address, err.Error())
			report.WriteFailures++
		}
		if err := t.store.AppendLedger(r.csvRow()); err != nil {
			t.log.Warnf("failed to append to the ledger: %s", err.Error())
			report.WriteFailures++
		}
	}
}

// carryForward fills LastOnlineDate/LastOnlineTime. For a record online in
// this run, they equal the current run timestamp (and the tracker DB, when
// enabled, is updated). For an offline record they are left empty by
// default; with recover_last_online enabled, the most recent timestamp
// recorded in the tracker DB is used instead, so the column reflects the
// true historical last-online moment across runs.
func (t *Tracker) carryForward(r *Reservation) {
	if r.Online {
		r.LastOnlineDate = r.Date
		r.LastOnlineTime = r.Time

		if t.trackerDB != nil {
			seenOnline, err := joinTimestamp(r.Date, r.Time)
			if err == nil {
				err = t.trackerDB.TrackOnline(trackerDBRecord(r, seenOnline))
			}
			if err != nil {
				t.log.Warnf("failed to track the online state of address %s: %s", r.Address, err.Error())
			}
		}
		return
	}

	if t.trackerDB == nil || !t.opts.RecoverLastOnline {
		return
	}

	tracked, err := t.trackerDB.GetReservation(r.Address)
	if err != nil {
		// the address was simply never seen online; nothing to recover
		t.log.Debugf("no last-online record for address %s: %s", r.Address, err.Error())
		return
	}
	r.LastOnlineDate, r.LastOnlineTime = splitTimestamp(tracked.LastOnline)
}

func trackerDBRecord(r *Reservation, lastOnline time.Time) trackerdb.TrackedReservation {
	return trackerdb.TrackedReservation{
		Address:    r.Address,
		ScopeID:    r.ScopeID,
		Name:       r.Name,
		LastOnline: lastOnline,
	}
}
