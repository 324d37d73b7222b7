package tracker

import (
	"fmt"
	"time"

	human_duration "github.com/davidbanham/human_duration/v3"

	"dhcp-reservation-tracker/pkg/history"
	"dhcp-reservation-tracker/pkg/logger"
	"dhcp-reservation-tracker/pkg/trackerdb"
)

// Tracker runs the four-stage reservation-activity pipeline:
// collect -> resolve -> reconcile -> write.
//
// One Tracker instance performs exactly one run and the process exits
// afterwards; all state shared across runs lives in the files produced by
// the history store (and, optionally, the tracker DB). Because there is no
// file locking, the external scheduler must never overlap two invocations.
type Tracker struct {
	log  *logger.CustomLogger
	opts *Options

	source ReservationSource
	probe  LivenessProbe // nil unless ModeActiveProbe
	store  *history.Store

	// optional last-online tracker, nil when disabled in configuration
	trackerDB *trackerdb.ReservationTrackerDB
}

// New wires a Tracker from its configuration and external collaborators.
// The reservation source and (in active-probe mode) the liveness probe are
// injected so that tests can substitute fakes without touching real DHCP
// infrastructure or the network.
func New(log *logger.CustomLogger, opts *Options, source ReservationSource, probe LivenessProbe) (*Tracker, error) {
	if source == nil {
		return nil, fmt.Errorf("a reservation source is required")
	}
	if opts.Mode == ModeActiveProbe && probe == nil {
		return nil, fmt.Errorf("a liveness probe is required in %s mode", ModeActiveProbe)
	}

	store, err := history.NewStore(log, opts.OutputDir, opts.LedgerFile, CSVHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}

	var tdb *trackerdb.ReservationTrackerDB
	if opts.TrackerEnabled {
		tdb, err = trackerdb.NewReservationTrackerDB(opts.TrackerDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open reservation tracker DB: %w", err)
		}
		log.Infof("Successfully opened reservation tracker DB at %s", opts.TrackerDBPath)
	}

	return &Tracker{
		log:       log,
		opts:      opts,
		source:    source,
		probe:     probe,
		store:     store,
		trackerDB: tdb,
	}, nil
}

// Run executes one full pass of the pipeline. The returned error is non-nil
// only for the fatal case: the reservation source being unreachable during
// collection. Every other failure is soft, degrades only the affected
// record, and is counted in the RunReport.
func (t *Tracker) Run() (RunReport, error) {
	start := time.Now()
	var report RunReport

	records, err := t.collect(&report)
	if err != nil {
		return report, err
	}
	report.Records = len(records)

	t.resolve(records, &report)
	t.reconcile(records, &report)
	t.write(records, &report)

	if t.trackerDB != nil {
		t.logTrackedInventory()
	}

	t.log.Infof("Run completed in %s: %d reservations, %d state lookup failures, %d probe errors, %d write failures, %d orphaned history files deleted",
		human_duration.ShortString(time.Since(start), human_duration.Second),
		report.Records, report.StateLookupFailures, report.ProbeErrors,
		report.WriteFailures, report.OrphanedFilesDeleted)

	return report, nil
}

// logTrackedInventory dumps, at DEBUG level, every address the tracker DB
// has ever seen online, including those whose reservation (and history
// file) is long gone.
func (t *Tracker) logTrackedInventory() {
	tracked, err := t.trackerDB.GetAllReservations()
	if err != nil {
		t.log.Warnf("failed to list tracked reservations: %s", err.Error())
		return
	}
	t.log.Debugf("Tracker DB carries %d addresses seen online at least once", len(tracked))
	for _, r := range tracked {
		t.log.Debugf("  %s", r.String())
	}
}

// reconcile deletes every per-address history file whose address no longer
// appears in the current reservation set. The global ledger is never
// touched by this stage.
func (t *Tracker) reconcile(records []Reservation, report *RunReport) {
	current := make(map[string]struct{}, len(records))
	for _, r := range records {
		current[r.Address] = struct{}{}
	}

	deleted, err := t.store.Reconcile(current)
	if err != nil {
		// a failed reconciliation leaves stale files behind but must not
		// stop the run: the next invocation will retry the deletions
		t.log.Warnf("failed to reconcile history files: %s", err.Error())
		return
	}
	report.OrphanedFilesDeleted = len(deleted)
	for _, addr := range deleted {
		t.log.Infof("Deleted history file of address %s: no longer reserved", addr)
	}
}
