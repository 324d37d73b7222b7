package tracker

import (
	"time"
)

// resolve assigns Online, Date and Time to every collected record, using
// the strategy selected in configuration.
//
// In lease-state mode a record is online if and only if its address-state
// classification equals StateActiveReservation, and only records coming up
// online get a timestamp. Note the known accuracy limitation: the
// classification is only as fresh as the DHCP server's own bookkeeping, so
// a host that went dark can stay "active" until its lease bookkeeping
// catches up.
//
// In active-probe mode every record is probed once, with a fixed timeout,
// regardless of its classification; the determination is fresh each run, so
// every record gets a timestamp. A probe error or timeout resolves to
// offline and never aborts the run.
func (t *Tracker) resolve(records []Reservation, report *RunReport) {
	date, tm := splitTimestamp(time.Now())

	for i := range records {
		r := &records[i]

		switch t.opts.Mode {
		case ModeLeaseState:
			if r.AddressState == StateActiveReservation {
				r.Online = true
				r.Date = date
				r.Time = tm
			}

		case ModeActiveProbe:
			online, err := t.probe.Probe(r.Address, t.opts.ProbeTimeout)
			if err != nil {
				t.log.Warnf("probe of address %s failed: %s", r.Address, err.Error())
				report.ProbeErrors++
				online = false
			}
			r.Online = online
			r.Date = date
			r.Time = tm
		}

		t.log.Debugf("Resolved address %s: online=%t (state=%q)", r.Address, r.Online, r.AddressState)
	}
}
