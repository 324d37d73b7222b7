package trackerdb

import (
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

// TestTrackOnline tests the TrackOnline method.
func TestTrackOnline(t *testing.T) {
	r := TrackedReservation{
		Address:    "10.0.0.5",
		ScopeID:    "10.0.0.0/24",
		Name:       "printer1",
		LastOnline: time.Now(),
	}

	db := NewTestDBWithData([]TrackedReservation{r})

	// Check that the reservation was successfully added
	retrieved, err := db.GetReservation(r.Address)
	assert.NoError(t, err, "Failed to retrieve tracked reservation")

	assert.Equal(t, r.Address, retrieved.Address, "Address mismatch")
	assert.Equal(t, r.ScopeID, retrieved.ScopeID, "ScopeID mismatch")
	assert.Equal(t, r.Name, retrieved.Name, "Name mismatch")

	// Allow for slight differences in time, but the retrieved and original times should be very close
	assert.WithinDuration(t, r.LastOnline, retrieved.LastOnline, time.Second, "LastOnline timestamp mismatch")
}

// TestTrackOnlineUpsert verifies that tracking the same address again
// replaces the existing row instead of adding a second one.
func TestTrackOnlineUpsert(t *testing.T) {
	first := TrackedReservation{
		Address:    "10.0.0.5",
		ScopeID:    "10.0.0.0/24",
		Name:       "printer1",
		LastOnline: time.Now().Add(-24 * time.Hour),
	}
	db := NewTestDBWithData([]TrackedReservation{first})

	second := first
	second.Name = "printer1-renamed"
	second.LastOnline = time.Now()
	assert.NoError(t, db.TrackOnline(second))

	retrieved, err := db.GetReservation(first.Address)
	assert.NoError(t, err)
	assert.Equal(t, "printer1-renamed", retrieved.Name)
	assert.WithinDuration(t, second.LastOnline, retrieved.LastOnline, time.Second)

	all, err := db.GetAllReservations()
	assert.NoError(t, err)
	assert.Len(t, all, 1, "upsert must not add a second row")
}

// TestGetReservation tests the GetReservation method.
func TestGetReservation(t *testing.T) {
	r := TrackedReservation{
		Address:    "192.168.0.10",
		ScopeID:    "192.168.0.0/24",
		Name:       "nas",
		LastOnline: time.Now(),
	}

	db := NewTestDBWithData([]TrackedReservation{r})

	// Test retrieving an existing reservation
	retrieved, err := db.GetReservation(r.Address)
	assert.NoError(t, err, "Failed to retrieve tracked reservation")
	assert.Equal(t, r.Address, retrieved.Address)

	// Test retrieving a non-existent reservation
	_, err = db.GetReservation("192.168.0.99")
	assert.Error(t, err, "Expected error when retrieving non-tracked address, but got nil")
}

// TestGetAllReservations tests the GetAllReservations method.
func TestGetAllReservations(t *testing.T) {
	timeNow := time.Now()

	reservationsInDB := []TrackedReservation{
		{
			Address:    "10.0.0.5",
			ScopeID:    "10.0.0.0/24",
			Name:       "printer1",
			LastOnline: timeNow,
		},
		{
			Address:    "10.0.0.9",
			ScopeID:    "10.0.0.0/24",
			Name:       "scanner",
			LastOnline: timeNow,
		},
		{
			Address:    "192.168.0.10",
			ScopeID:    "192.168.0.0/24",
			Name:       "nas",
			LastOnline: timeNow,
		},
	}

	db := NewTestDBWithData(reservationsInDB)

	all, err := db.GetAllReservations()
	assert.NoError(t, err, "Unexpected error while listing tracked reservations")
	assert.Len(t, all, len(reservationsInDB))

	// results are ordered by address
	assert.Equal(t, "10.0.0.5", all[0].Address)
	assert.Equal(t, "10.0.0.9", all[1].Address)
	assert.Equal(t, "192.168.0.10", all[2].Address)

	// empty DB returns an empty slice, not nil
	empty := NewTestDB()
	all, err = empty.GetAllReservations()
	assert.NoError(t, err)
	assert.NotNil(t, all)
	assert.Len(t, all, 0)
}
