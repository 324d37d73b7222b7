// Package probe implements the tracker's LivenessProbe with a single ICMP
// echo request per address. The unprivileged "udp4"/"udp6" socket types are
// used, so no raw-socket capability is needed; on Linux this requires the
// net.ipv4.ping_group_range sysctl to cover the process group.
package probe

import (
	"bytes"
	"fmt"
	"net"
	"net/netip"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"dhcp-reservation-tracker/pkg/logger"
)

// IANA-assigned protocol numbers, needed to parse the echo replies.
const (
	protocolICMP     = 1
	protocolIPv6ICMP = 58
)

// probePayload marks our own echo requests, so that replies to somebody
// else's probes are never mistaken for ours.
var probePayload = []byte("dhcp-reservation-tracker")

// Pinger probes one address at a time with one ICMP echo request and a
// fixed per-call timeout. There is deliberately no retry: a reservation
// whose host drops a single probe is simply recorded as offline for this
// run and gets a fresh chance on the next one.
type Pinger struct {
	log *logger.CustomLogger
	seq int
}

func NewPinger(log *logger.CustomLogger) *Pinger {
	return &Pinger{
		log: log,
	}
}

// Probe sends one echo request to the given address and waits up to the
// timeout for a matching reply. It returns true only when the reply
// arrived in time; socket errors are returned for diagnostics but the
// caller treats any error as "offline".
func (p *Pinger) Probe(address string, timeout time.Duration) (bool, error) {
	dst, err := netip.ParseAddr(address)
	if err != nil {
		return false, fmt.Errorf("invalid address %q: %w", address, err)
	}

	network, listenAddr, proto := "udp4", "0.0.0.0", protocolICMP
	var echoType icmp.Type = ipv4.ICMPTypeEcho
	if dst.Is6() && !dst.Is4In6() {
		network, listenAddr, proto = "udp6", "::", protocolIPv6ICMP
		echoType = ipv6.ICMPTypeEchoRequest
	}

	conn, err := icmp.ListenPacket(network, listenAddr)
	if err != nil {
		return false, fmt.Errorf("cannot open ICMP socket: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	p.seq++
	msg := icmp.Message{
		Type: echoType,
		Code: 0,
		Body: &icmp.Echo{
			ID:   os.Getpid() & 0xffff,
			Seq:  p.seq,
			Data: probePayload,
		},
	}
	wb, err := msg.Marshal(nil)
	if err != nil {
		return false, err
	}

	peer := &net.UDPAddr{IP: net.IP(dst.AsSlice())}
	if _, err := conn.WriteTo(wb, peer); err != nil {
		return false, fmt.Errorf("cannot send echo request to %s: %w", address, err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return false, err
	}

	// keep reading until the matching reply shows up or the deadline
	// expires; other ICMP traffic addressed to this socket is ignored
	rb := make([]byte, 1500)
	for {
		n, from, err := conn.ReadFrom(rb)
		if err != nil {
			// a timeout is the normal "host is offline" outcome, not an error
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				p.log.Debugf("Probe of %s timed out after %s", address, timeout)
				return false, nil
			}
			return false, err
		}

		reply, err := icmp.ParseMessage(proto, rb[:n])
		if err != nil {
			p.log.Debugf("Discarding unparseable ICMP packet from %s", from)
			continue
		}

		if isEchoReplyFrom(from, dst, reply, p.seq) {
			p.log.Debugf("Probe of %s answered by %s", address, from)
			return true, nil
		}
	}
}

// isEchoReplyFrom reports whether the parsed message is the reply to the
// echo request sent to dst with the given sequence number. Only the probed
// host itself may come back online: replies from other peers, stray echo
// replies with someone else's payload, and non-reply ICMP traffic are all
// rejected. The echo ID is deliberately not compared, because the kernel
// rewrites it on the unprivileged socket types.
func isEchoReplyFrom(from net.Addr, dst netip.Addr, msg *icmp.Message, seq int) bool {
	udp, ok := from.(*net.UDPAddr)
	if !ok || !udp.IP.Equal(net.IP(dst.AsSlice())) {
		return false
	}
	if msg.Type != ipv4.ICMPTypeEchoReply && msg.Type != ipv6.ICMPTypeEchoReply {
		return false
	}
	echo, ok := msg.Body.(*icmp.Echo)
	return ok && echo.Seq == seq && bytes.Equal(echo.Data, probePayload)
}
