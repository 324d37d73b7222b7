package tracker

import (
	"fmt"
)

// collect queries the reservation source and produces the full ordered list
// of reservations for this run: every reservation of every active scope,
// each with its current address-state classification attached.
//
// Failure semantics: an unreachable source aborts the run (the caller maps
// this to a non-zero exit status); a failed state lookup for one address
// degrades only that record, which keeps an empty AddressState.
func (t *Tracker) collect(report *RunReport) ([]Reservation, error) {
	scopeIDs, err := t.source.ActiveScopes()
	if err != nil {
		return nil, fmt.Errorf("reservation source unreachable: %w", err)
	}
	t.log.Infof("Collecting reservations from %d active scopes", len(scopeIDs))

	var records []Reservation
	for _, scopeID := range scopeIDs {
		reservations, err := t.source.Reservations(scopeID)
		if err != nil {
			return nil, fmt.Errorf("failed to list reservations of scope %s: %w", scopeID, err)
		}
		t.log.Debugf("Scope %s carries %d reservations", scopeID, len(reservations))

		for _, r := range reservations {
			state, err := t.source.AddressState(r.Address)
			if err != nil {
				t.log.Warnf("failed to look up the state of address %s: %s", r.Address, err.Error())
				report.StateLookupFailures++
				// keep going: the record proceeds with an unknown state
			} else {
				r.AddressState = state
			}
			records = append(records, r)
		}
	}

	t.log.Infof("Collected %d reservations", len(records))
	return records, nil
}
