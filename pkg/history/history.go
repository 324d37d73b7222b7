// Package history owns the two durable artifacts of the tracker:
//
//   - one CSV file per reserved address, named "<address>-Results.csv",
//     created on first append and deleted wholesale once the address is no
//     longer reserved;
//   - the global ledger, one CSV file with the same row schema covering
//     all addresses and all runs, append-only and never pruned.
//
// Both artifacts are owned exclusively by this process; there is no file
// locking, so the external scheduler must never overlap two invocations.
package history

import (
	"encoding/csv"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strings"

	"dhcp-reservation-tracker/pkg/logger"
)

// ResultsSuffix is the fixed separator+suffix token appended to the address
// to build a per-address file name. The address is recovered from a file
// name by cutting this suffix off.
const ResultsSuffix = "-Results.csv"

// Store reads and writes the per-address history files and the global
// ledger inside a single output directory.
type Store struct {
	log        *logger.CustomLogger
	dir        string
	ledgerFile string
	header     []string
}

// NewStore prepares the output directory, creating it when missing.
func NewStore(log *logger.CustomLogger, dir, ledgerFile string, header []string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create output directory %s: %w", dir, err)
	}
	return &Store{
		log:        log,
		dir:        dir,
		ledgerFile: ledgerFile,
		header:     header,
	}, nil
}

// FileFor returns the per-address history file name for the given address.
func FileFor(address string) string {
	return address + ResultsSuffix
}

// AddressFromFile recovers the address encoded in a per-address file name.
// It returns false when the name does not carry the fixed suffix or when
// the derived key is not a parseable IP address.
func AddressFromFile(name string) (string, bool) {
	address, found := strings.CutSuffix(name, ResultsSuffix)
	if !found || address == "" {
		return "", false
	}
	if _, err := netip.ParseAddr(address); err != nil {
		return "", false
	}
	return address, true
}

// AppendAddress appends one row to the history file of the given address,
// creating the file (with a header row) when absent.
func (s *Store) AppendAddress(address string, row []string) error {
	return s.appendRow(filepath.Join(s.dir, FileFor(address)), row)
}

// AppendLedger appends one row to the global ledger, creating it (with a
// header row) when absent.
func (s *Store) AppendLedger(row []string) error {
	return s.appendRow(filepath.Join(s.dir, s.ledgerFile), row)
}

func (s *Store) appendRow(path string, row []string) error {
	f, errOpen := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if errOpen != nil {
		return errOpen
	}
	defer func() {
		_ = f.Close()
	}()

	st, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if st.Size() == 0 {
		// first append ever: emit the header row once
		if err := w.Write(s.header); err != nil {
			return err
		}
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// Reconcile deletes every per-address history file whose derived address is
// not in the given reservation set. Files whose name does not decode to a
// valid address are skipped, not deleted; the ledger is never considered.
// Running Reconcile twice with the same set deletes nothing on the second
// pass.
func (s *Store) Reconcile(current map[string]struct{}) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("cannot list output directory %s: %w", s.dir, err)
	}

	var deleted []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == s.ledgerFile {
			continue
		}

		address, ok := AddressFromFile(e.Name())
		if !ok {
			// malformed name: leave the file alone
			s.log.Debugf("Skipping file %s: not a per-address history file", e.Name())
			continue
		}

		if _, reserved := current[address]; reserved {
			// still reserved: the file is left untouched, not rewritten
			continue
		}

		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			s.log.Warnf("failed to delete orphaned history file %s: %s", e.Name(), err.Error())
			continue
		}
		deleted = append(deleted, address)
	}

	return deleted, nil
}
