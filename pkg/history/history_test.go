package history

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dhcp-reservation-tracker/pkg/logger"
)

var testHeader = []string{"date", "address", "online"}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(logger.NewCustomLogger("unit tests"), t.TempDir(), "AllReservations.csv", testHeader)
	require.NoError(t, err)
	return s
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestAddressFromFile(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		expected string
		ok       bool
	}{
		{
			name:     "regular per-address file",
			fileName: "10.0.0.5-Results.csv",
			expected: "10.0.0.5",
			ok:       true,
		},
		{
			name:     "IPv6 per-address file",
			fileName: "2001:db8::10-Results.csv",
			expected: "2001:db8::10",
			ok:       true,
		},
		{
			name:     "missing suffix",
			fileName: "10.0.0.5.csv",
			ok:       false,
		},
		{
			name:     "suffix only",
			fileName: "-Results.csv",
			ok:       false,
		},
		{
			name:     "derived key is not an address",
			fileName: "notes-Results.csv",
			ok:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			address, ok := AddressFromFile(tt.fileName)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, address)
			}
		})
	}
}

func TestAppendWritesHeaderOnlyOnce(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AppendAddress("10.0.0.5", []string{"2026-01-01", "10.0.0.5", "true"}))
	require.NoError(t, s.AppendAddress("10.0.0.5", []string{"2026-01-02", "10.0.0.5", "false"}))

	rows := readCSV(t, filepath.Join(s.dir, "10.0.0.5-Results.csv"))
	require.Len(t, rows, 3)
	assert.Equal(t, testHeader, rows[0])
	assert.Equal(t, "2026-01-01", rows[1][0])
	assert.Equal(t, "2026-01-02", rows[2][0])
}

func TestLedgerIsAppendOnly(t *testing.T) {
	s := newTestStore(t)

	// simulate three runs appending to the ledger
	total := 0
	for run := 0; run < 3; run++ {
		for _, addr := range []string{"10.0.0.5", "10.0.0.9"} {
			require.NoError(t, s.AppendLedger([]string{"2026-01-01", addr, "true"}))
			total++
		}
	}

	rows := readCSV(t, filepath.Join(s.dir, "AllReservations.csv"))
	assert.Len(t, rows, total+1) // all appended rows plus one header
}

func TestReconcile(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AppendAddress("10.0.0.5", []string{"2026-01-01", "10.0.0.5", "true"}))
	require.NoError(t, s.AppendAddress("10.0.0.9", []string{"2026-01-01", "10.0.0.9", "true"}))
	require.NoError(t, s.AppendLedger([]string{"2026-01-01", "10.0.0.9", "true"}))

	// a file whose derived key cannot be parsed must be skipped, not deleted
	malformed := filepath.Join(s.dir, "not-an-address-Results.csv")
	require.NoError(t, os.WriteFile(malformed, []byte("leftover\n"), 0o644))

	// 10.0.0.9 is no longer reserved
	current := map[string]struct{}{"10.0.0.5": {}}
	deleted, err := s.Reconcile(current)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.9"}, deleted)

	assert.NoFileExists(t, filepath.Join(s.dir, "10.0.0.9-Results.csv"))
	assert.FileExists(t, filepath.Join(s.dir, "10.0.0.5-Results.csv"))
	assert.FileExists(t, malformed)

	// the ledger still holds the rows of the deleted address
	rows := readCSV(t, filepath.Join(s.dir, "AllReservations.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, "10.0.0.9", rows[1][1])

	// reconciling twice with no reservation change deletes nothing more
	deleted, err = s.Reconcile(current)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}

func TestReconcileMatchesReservationSetExactly(t *testing.T) {
	s := newTestStore(t)

	for _, addr := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		require.NoError(t, s.AppendAddress(addr, []string{"2026-01-01", addr, "false"}))
	}

	current := map[string]struct{}{"10.0.0.2": {}}
	_, err := s.Reconcile(current)
	require.NoError(t, err)

	entries, err := os.ReadDir(s.dir)
	require.NoError(t, err)

	var remaining []string
	for _, e := range entries {
		if addr, ok := AddressFromFile(e.Name()); ok {
			remaining = append(remaining, addr)
		}
	}
	assert.Equal(t, []string{"10.0.0.2"}, remaining)
}
