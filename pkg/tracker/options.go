package tracker

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"dhcp-reservation-tracker/pkg/ippool"
)

// Mode selects how the resolver determines per-address liveness.
type Mode string

const (
	// ModeLeaseState trusts the address-state classification reported by
	// the DHCP server. Cheap, but only as fresh as the server's own
	// bookkeeping: a statically-configured client keeps its "active"
	// classification until the reservation is deleted or the client
	// renews, regardless of its true current status.
	ModeLeaseState Mode = "lease-state"

	// ModeActiveProbe sends one ICMP echo per address with a short fixed
	// timeout. More accurate for reachable hosts, but blind to firewalled
	// hosts that drop the probe protocol.
	ModeActiveProbe Mode = "active-probe"
)

const defaultProbeTimeout = 2 * time.Second
const defaultLedgerFile = "AllReservations.csv"

// Options contains the whole configuration of one tracker run, loaded from
// a single YAML file. No command-line flag branches behavior: the mode is
// strictly a configuration input.
type Options struct {
	// liveness resolution
	Mode         Mode
	ProbeTimeout time.Duration

	// dnsmasq artifacts consumed by the reservation source
	HostsFile  string
	LeasesFile string
	Scopes     ippool.ScopeSet

	// output artifacts
	OutputDir  string
	LedgerFile string

	// optional PTR-based name enrichment
	EnrichNames bool
	DNSServer   string
	DNSPort     int

	// optional last-online tracker DB
	TrackerEnabled    bool
	TrackerDBPath     string
	RecoverLastOnline bool
}

// LoadOptions reads and validates the YAML configuration file.
func LoadOptions(path string) (*Options, error) {
	f, errOpen := os.Open(path)
	if errOpen != nil {
		return nil, errOpen
	}
	defer func() {
		_ = f.Close()
	}()

	opts := new(Options)
	d := yaml.NewDecoder(f)
	if err := d.Decode(opts); err != nil {
		return nil, fmt.Errorf("invalid configuration file %s: %w", path, err)
	}
	return opts, nil
}

// UnmarshalYAML converts the raw YAML document into an Options instance,
// applying defaults and validating every section.
func (o *Options) UnmarshalYAML(value *yaml.Node) error {
	// YAML structure.
	// This must be updated every time the documented configuration file
	// format changes; unknown keys are ignored so the same file may carry
	// settings for other tools (e.g. the scheduler wrapper script).
	var cfg struct {
		Liveness struct {
			Mode         string `yaml:"mode"`
			ProbeTimeout string `yaml:"probe_timeout"`
		} `yaml:"liveness"`

		Dhcp struct {
			HostsFile  string `yaml:"hosts_file"`
			LeasesFile string `yaml:"leases_file"`
			Scopes     []struct {
				ID      string `yaml:"id"`
				Start   string `yaml:"start"`
				End     string `yaml:"end"`
				Enabled *bool  `yaml:"enabled"`
			} `yaml:"scopes"`
		} `yaml:"dhcp"`

		Output struct {
			Directory  string `yaml:"directory"`
			LedgerFile string `yaml:"ledger_file"`
		} `yaml:"output"`

		DNS struct {
			EnrichNames bool   `yaml:"enrich_names"`
			Server      string `yaml:"server"`
			Port        int    `yaml:"port"`
		} `yaml:"dns"`

		Tracker struct {
			Enabled           bool   `yaml:"enabled"`
			Database          string `yaml:"database"`
			RecoverLastOnline bool   `yaml:"recover_last_online"`
		} `yaml:"tracker"`
	}
	if err := value.Decode(&cfg); err != nil {
		return err
	}

	// liveness mode; defaults to the cheap lease-state strategy
	switch Mode(cfg.Liveness.Mode) {
	case ModeLeaseState, ModeActiveProbe:
		o.Mode = Mode(cfg.Liveness.Mode)
	case "":
		o.Mode = ModeLeaseState
	default:
		return fmt.Errorf("invalid liveness mode %q: must be %q or %q",
			cfg.Liveness.Mode, ModeLeaseState, ModeActiveProbe)
	}

	o.ProbeTimeout = defaultProbeTimeout
	if cfg.Liveness.ProbeTimeout != "" {
		d, err := time.ParseDuration(cfg.Liveness.ProbeTimeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid probe_timeout %q", cfg.Liveness.ProbeTimeout)
		}
		o.ProbeTimeout = d
	}

	// dnsmasq artifacts
	if cfg.Dhcp.HostsFile == "" {
		return fmt.Errorf("missing 'dhcp.hosts_file' setting")
	}
	if cfg.Dhcp.LeasesFile == "" {
		return fmt.Errorf("missing 'dhcp.leases_file' setting")
	}
	o.HostsFile = cfg.Dhcp.HostsFile
	o.LeasesFile = cfg.Dhcp.LeasesFile

	if len(cfg.Dhcp.Scopes) == 0 {
		return fmt.Errorf("at least one scope must be listed under 'dhcp.scopes'")
	}
	seen := make(map[string]struct{})
	scopes := make([]ippool.Scope, 0, len(cfg.Dhcp.Scopes))
	for _, s := range cfg.Dhcp.Scopes {
		enabled := true
		if s.Enabled != nil {
			enabled = *s.Enabled
		}
		scope := ippool.NewScope(s.ID, s.Start, s.End, enabled)
		if !scope.IsValid() {
			return fmt.Errorf("invalid scope [id=%q start=%q end=%q] found in 'dhcp.scopes'",
				s.ID, s.Start, s.End)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("duplicated scope id %q found in 'dhcp.scopes'", s.ID)
		}
		seen[s.ID] = struct{}{}
		scopes = append(scopes, scope)
	}
	o.Scopes = ippool.NewScopeSet(scopes)

	// output artifacts
	if cfg.Output.Directory == "" {
		return fmt.Errorf("missing 'output.directory' setting")
	}
	o.OutputDir = cfg.Output.Directory
	o.LedgerFile = cfg.Output.LedgerFile
	if o.LedgerFile == "" {
		o.LedgerFile = defaultLedgerFile
	}

	// PTR enrichment
	o.EnrichNames = cfg.DNS.EnrichNames
	o.DNSServer = cfg.DNS.Server
	if o.DNSServer == "" {
		o.DNSServer = "127.0.0.1"
	}
	o.DNSPort = cfg.DNS.Port
	if o.DNSPort == 0 {
		o.DNSPort = 53
	}
	if o.DNSPort < 0 || o.DNSPort > 65535 {
		return fmt.Errorf("invalid DNS port number: %d", o.DNSPort)
	}

	// tracker DB
	o.TrackerEnabled = cfg.Tracker.Enabled
	o.TrackerDBPath = cfg.Tracker.Database
	o.RecoverLastOnline = cfg.Tracker.RecoverLastOnline
	if o.TrackerEnabled && o.TrackerDBPath == "" {
		return fmt.Errorf("missing 'tracker.database' setting: required when the tracker is enabled")
	}
	if o.RecoverLastOnline && !o.TrackerEnabled {
		return fmt.Errorf("'tracker.recover_last_online' requires 'tracker.enabled: true'")
	}

	return nil
}
