package ippool

import (
	"bytes"
	"fmt"
	"math/big"
	"net"
	"net/netip"
)

/* -------------------------------------------------------------------------- */
/*                                    Range                                   */
/* -------------------------------------------------------------------------- */

type Range struct {
	Start net.IP
	End   net.IP
}

func NewRange(start, end net.IP) Range {
	return Range{
		Start: start,
		End:   end,
	}
}

func NewRangeFromString(start, end string) Range {
	return Range{
		Start: net.ParseIP(start),
		End:   net.ParseIP(end),
	}
}

func (r Range) IsValid() bool {
	return r.Start != nil && r.End != nil
}

// Contains checks if the IP address is within the Range
func (r Range) Contains(ipOrig netip.Addr) bool {
	// Ensure that all IP addresses are in a consistent IPv4 or IPv6 form
	ip := net.IP(ipOrig.AsSlice()).To16()
	startIP := r.Start.To16()
	endIP := r.End.To16()

	if ip == nil || startIP == nil || endIP == nil {
		return false
	}

	// Check if the IP address is between startIP and endIP
	return bytes.Compare(ip, startIP) >= 0 && bytes.Compare(ip, endIP) <= 0
}

// Size returns the number of IP addresses in the range or -1 if they are too many to fit an int64
func (r Range) Size() int64 {
	size := big.NewInt(0)
	size.Add(size, big.NewInt(0).SetBytes(r.End))
	size.Sub(size, big.NewInt(0).SetBytes(r.Start))
	size.Add(size, big.NewInt(1))
	if size.IsInt64() {
		return size.Int64()
	}

	// too many IPs in range... this can happen with IPv6
	return -1
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

/* -------------------------------------------------------------------------- */
/*                                    Scope                                   */
/* -------------------------------------------------------------------------- */

// Scope is a named DHCP scope: a contiguous range of addresses administered
// by the DHCP server, which can be enabled (actively serving clients) or
// disabled. Reservations belong to the scope whose range contains their
// address.
type Scope struct {
	ID      string
	Range   Range
	Enabled bool
}

func NewScope(id, start, end string, enabled bool) Scope {
	return Scope{
		ID:      id,
		Range:   NewRangeFromString(start, end),
		Enabled: enabled,
	}
}

func (s Scope) IsValid() bool {
	return s.ID != "" && s.Range.IsValid()
}

/* -------------------------------------------------------------------------- */
/*                                  ScopeSet                                  */
/* -------------------------------------------------------------------------- */

// ScopeSet is an ordered collection of scopes; order matters because it is
// preserved in all the outputs of a run.
type ScopeSet struct {
	Scopes []Scope
}

func NewScopeSet(scopes []Scope) ScopeSet {
	return ScopeSet{
		Scopes: scopes,
	}
}

// ByID returns the scope carrying the given ID, or false when absent.
func (ss ScopeSet) ByID(id string) (Scope, bool) {
	for _, s := range ss.Scopes {
		if s.ID == id {
			return s, true
		}
	}
	return Scope{}, false
}

// ActiveIDs returns the IDs of all the enabled scopes, in declaration order.
func (ss ScopeSet) ActiveIDs() []string {
	ids := make([]string, 0, len(ss.Scopes))
	for _, s := range ss.Scopes {
		if s.Enabled {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// FindScope returns the ID of the first scope whose range contains the given
// IP address, or false when the address falls outside every scope.
func (ss ScopeSet) FindScope(ip netip.Addr) (string, bool) {
	for _, s := range ss.Scopes {
		if s.Range.Contains(ip) {
			return s.ID, true
		}
	}
	return "", false
}
