// Package main is the entry point for the DHCP reservation activity tracker.
//
// The tool is meant to be invoked periodically by an external scheduler
// (cron or similar); each invocation performs exactly one collect ->
// resolve -> reconcile -> write pass and exits. The exit status is zero
// whenever all four stages ran, even with soft per-record failures, and
// non-zero only when the reservation source was unreachable (or the
// configuration could not be loaded at all).
package main

import (
	"flag"
	"os"

	"dhcp-reservation-tracker/pkg/dnsmasqsource"
	"dhcp-reservation-tracker/pkg/logger"
	"dhcp-reservation-tracker/pkg/probe"
	"dhcp-reservation-tracker/pkg/tracker"
)

func main() {
	configPath := flag.String("config", "/etc/dhcp-reservation-tracker.yaml", "path to the YAML configuration file")
	verbose := flag.Bool("verbose", false, "enable verbose per-record diagnostics")
	flag.Parse()

	log := logger.NewCustomLogger("dhcp-reservation-tracker")
	log.SetVerbose(*verbose)

	log.Info("DHCP reservation tracker starting")

	opts, err := tracker.LoadOptions(*configPath)
	if err != nil {
		log.Fatalf("error while reading the configuration file: %s", err.Error())
		os.Exit(1)
	}

	source := dnsmasqsource.New(log, dnsmasqsource.Config{
		HostsFile:   opts.HostsFile,
		LeasesFile:  opts.LeasesFile,
		Scopes:      opts.Scopes,
		EnrichNames: opts.EnrichNames,
		DNSServer:   opts.DNSServer,
		DNSPort:     opts.DNSPort,
	})

	var livenessProbe tracker.LivenessProbe
	if opts.Mode == tracker.ModeActiveProbe {
		livenessProbe = probe.NewPinger(log)
	}

	t, err := tracker.New(log, opts, source, livenessProbe)
	if err != nil {
		log.Fatalf("error while initializing the tracker: %s", err.Error())
		os.Exit(1)
	}

	if _, err := t.Run(); err != nil {
		log.Fatalf("run aborted: %s", err.Error())
		os.Exit(1)
	}
}
