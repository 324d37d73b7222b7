package dnsmasqsource

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// this code is meant to query the dnsmasq DNS server running next to the
// DHCP server, so the max query duration is expected to be small
const ptrQueryTimeout = 500 * time.Millisecond

// ptrQuery performs a reverse (PTR) DNS query for the given address against
// a specified DNS server and returns the resolved hostname without the
// trailing dot.
func ptrQuery(server string, port int, address string, timeout time.Duration) (string, error) {
	// Create a new DNS client.
	c := new(dns.Client)
	c.Timeout = timeout

	reverse, err := dns.ReverseAddr(address)
	if err != nil {
		return "", fmt.Errorf("cannot build reverse name for %s: %w", address, err)
	}

	// Create a new DNS message carrying the PTR query.
	m := new(dns.Msg)
	m.SetQuestion(reverse, dns.TypePTR)

	// Send the DNS query.
	r, _, err := c.Exchange(m, net.JoinHostPort(server, strconv.Itoa(port)))
	if err != nil {
		return "", err
	}

	// Check for errors in the response.
	if r.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("PTR query for %s against %s failed: %s",
			address, server, dns.RcodeToString[r.Rcode])
	}

	// Extract the first PTR record from the response.
	for _, ans := range r.Answer {
		if p, ok := ans.(*dns.PTR); ok {
			return strings.TrimSuffix(p.Ptr, "."), nil
		}
	}

	return "", fmt.Errorf("no PTR record for %s", address)
}
