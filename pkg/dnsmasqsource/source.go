// Package dnsmasqsource implements the tracker's ReservationSource on top
// of dnsmasq artifacts: address reservations are parsed from a dhcp-host
// configuration file and the current address-state classification is
// derived from the dnsmasq lease file.
package dnsmasqsource

import (
	"bufio"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/b0ch3nski/go-dnsmasq-utils/dnsmasq"

	"dhcp-reservation-tracker/pkg/ippool"
	"dhcp-reservation-tracker/pkg/logger"
	"dhcp-reservation-tracker/pkg/tracker"
)

// Config selects the dnsmasq artifacts this source consumes.
type Config struct {
	// HostsFile is the dnsmasq configuration file carrying the
	// "dhcp-host=" reservation lines (or a --dhcp-hostsfile style file
	// with bare entries).
	HostsFile string

	// LeasesFile is the dnsmasq lease database (dnsmasq.leases).
	LeasesFile string

	// Scopes describes the DHCP scopes; reservations are assigned to the
	// scope whose range contains their address.
	Scopes ippool.ScopeSet

	// Optional PTR-based name enrichment for reservations carrying no
	// hostname in the configuration file.
	EnrichNames bool
	DNSServer   string
	DNSPort     int
}

// hostEntry is one parsed dhcp-host reservation line.
type hostEntry struct {
	mac  net.HardwareAddr // may be nil for id:-only entries
	ip   netip.Addr
	name string
	tags []string
}

// Source reads the dnsmasq artifacts lazily, on first use, and caches them
// for the rest of the run; the engine re-creates the Source on every
// invocation, so the cache can never go stale.
type Source struct {
	log *logger.CustomLogger
	cfg Config

	loaded   bool
	entries  []hostEntry
	leases   map[string]*dnsmasq.Lease // keyed by IP string form
	leaseErr error
}

var _ tracker.ReservationSource = (*Source)(nil)

func New(log *logger.CustomLogger, cfg Config) *Source {
	return &Source{
		log: log,
		cfg: cfg,
	}
}

// load parses the hosts file and the lease file once per run. An unreadable
// hosts file makes the whole source unreachable; an unreadable lease file
// is remembered and surfaced per address-state lookup, degrading records
// instead of aborting the run.
func (s *Source) load() error {
	if s.loaded {
		return nil
	}

	entries, err := s.readHostsFile()
	if err != nil {
		return err
	}
	s.entries = entries
	s.log.Infof("Parsed %d reservations from %s", len(s.entries), s.cfg.HostsFile)

	s.leases, s.leaseErr = s.readLeaseFile()
	if s.leaseErr != nil {
		s.log.Warnf("failed to read DHCP lease file %s: %s", s.cfg.LeasesFile, s.leaseErr.Error())
	} else {
		s.log.Infof("Read %d active leases from %s", len(s.leases), s.cfg.LeasesFile)
	}

	s.loaded = true
	return nil
}

// ActiveScopes returns the IDs of the enabled scopes, in configuration
// order. The hosts file is read here so that an unreachable source aborts
// the run before any record is produced.
func (s *Source) ActiveScopes() ([]string, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	return s.cfg.Scopes.ActiveIDs(), nil
}

// Reservations returns the reservations whose address falls inside the
// given scope's range, in hosts-file order.
func (s *Source) Reservations(scopeID string) ([]tracker.Reservation, error) {
	if err := s.load(); err != nil {
		return nil, err
	}

	scope, found := s.cfg.Scopes.ByID(scopeID)
	if !found {
		return nil, fmt.Errorf("unknown scope %q", scopeID)
	}

	var reservations []tracker.Reservation
	for _, e := range s.entries {
		if !scope.Range.Contains(e.ip) {
			continue
		}

		name := e.name
		if name == "" && s.cfg.EnrichNames {
			ptrName, err := ptrQuery(s.cfg.DNSServer, s.cfg.DNSPort, e.ip.String(), ptrQueryTimeout)
			if err != nil {
				// enrichment is best effort; the reservation keeps an empty name
				s.log.Debugf("PTR lookup for %s failed: %s", e.ip, err.Error())
			} else {
				name = ptrName
			}
		}

		reservations = append(reservations, tracker.Reservation{
			Address:     e.ip.String(),
			ScopeID:     scopeID,
			Name:        name,
			Description: strings.Join(e.tags, ","),
		})
	}
	return reservations, nil
}

// AddressState classifies the given address: StateActiveReservation when a
// current dnsmasq lease exists for it, StateInactiveReservation otherwise.
func (s *Source) AddressState(address string) (string, error) {
	if err := s.load(); err != nil {
		return "", err
	}
	if s.leaseErr != nil {
		return "", fmt.Errorf("lease file unavailable: %w", s.leaseErr)
	}

	addr, err := netip.ParseAddr(address)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", address, err)
	}

	lease, found := s.leases[addr.String()]
	if !found {
		return tracker.StateInactiveReservation, nil
	}

	// the address is leased; when the lease went to a different MAC than
	// the reserved one, the reservation configuration is likely stale
	for _, e := range s.entries {
		if e.ip == addr && e.mac != nil && !strings.EqualFold(e.mac.String(), lease.MacAddr.String()) {
			s.log.Warnf("the IP %s is leased to MAC address %s, but in configuration it is reserved for MAC %s",
				addr, lease.MacAddr, e.mac)
		}
	}

	return tracker.StateActiveReservation, nil
}

func (s *Source) readHostsFile() ([]hostEntry, error) {
	f, errOpen := os.Open(s.cfg.HostsFile)
	if errOpen != nil {
		return nil, fmt.Errorf("cannot read DHCP hosts file %s: %w", s.cfg.HostsFile, errOpen)
	}
	defer func() {
		_ = f.Close()
	}()

	var entries []hostEntry
	lineNo := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// both "dhcp-host=..." config lines and bare --dhcp-hostsfile
		// entries are accepted
		line = strings.TrimPrefix(line, "dhcp-host=")

		entry, ok := parseHostLine(line)
		if !ok {
			s.log.Debugf("Skipping line %d of %s: no reservable address", lineNo, s.cfg.HostsFile)
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read DHCP hosts file %s: %w", s.cfg.HostsFile, err)
	}

	return entries, nil
}

// parseHostLine decodes the comma-separated fields of one dhcp-host entry.
// dnsmasq accepts the fields in any order, so each one is classified by
// shape: MAC address, IP address, "set:" tag, lease duration, client id or
// hostname. Entries without an IP address cannot be tracked and are
// dropped.
func parseHostLine(line string) (hostEntry, bool) {
	var e hostEntry
	for _, field := range strings.Split(line, ",") {
		field = strings.TrimSpace(field)
		switch {
		case field == "" || field == "ignore":
			continue
		case strings.HasPrefix(field, "id:"):
			continue
		case strings.HasPrefix(field, "set:"):
			e.tags = append(e.tags, strings.TrimPrefix(field, "set:"))
		default:
			if mac, err := net.ParseMAC(field); err == nil {
				e.mac = mac
				continue
			}
			if ip, err := netip.ParseAddr(field); err == nil {
				e.ip = ip
				continue
			}
			if field == "infinite" || isLeaseDuration(field) {
				continue
			}
			e.name = field
		}
	}
	return e, e.ip.IsValid()
}

// isLeaseDuration recognizes both dnsmasq lease time syntaxes: a value with
// a unit suffix ("12h", "45m") and a plain number of seconds ("3600").
func isLeaseDuration(field string) bool {
	if _, err := strconv.Atoi(field); err == nil {
		return true
	}
	d, err := time.ParseDuration(field)
	return err == nil && d > 0
}

func (s *Source) readLeaseFile() (map[string]*dnsmasq.Lease, error) {
	f, errOpen := os.Open(s.cfg.LeasesFile)
	if errOpen != nil {
		return nil, errOpen
	}
	defer func() {
		_ = f.Close()
	}()

	leases, errRead := dnsmasq.ReadLeases(f)
	if errRead != nil {
		return nil, errRead
	}

	byIP := make(map[string]*dnsmasq.Lease, len(leases))
	for _, lease := range leases {
		byIP[lease.IPAddr.String()] = lease
	}
	return byIP, nil
}
