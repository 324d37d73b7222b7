package tracker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const validConfig = `
liveness:
  mode: active-probe
  probe_timeout: 500ms
dhcp:
  hosts_file: /etc/dnsmasq.hosts
  leases_file: /var/lib/misc/dnsmasq.leases
  scopes:
    - id: lan
      start: 192.168.1.10
      end: 192.168.1.200
    - id: guests
      start: 192.168.2.10
      end: 192.168.2.200
      enabled: false
output:
  directory: /data/history
  ledger_file: Everything.csv
dns:
  enrich_names: true
  server: 192.168.1.1
tracker:
  enabled: true
  database: /data/tracker.db
  recover_last_online: true
`

func TestOptionsUnmarshal(t *testing.T) {
	var opts Options
	require.NoError(t, yaml.Unmarshal([]byte(validConfig), &opts))

	assert.Equal(t, ModeActiveProbe, opts.Mode)
	assert.Equal(t, 500*time.Millisecond, opts.ProbeTimeout)
	assert.Equal(t, "/etc/dnsmasq.hosts", opts.HostsFile)
	assert.Equal(t, "/var/lib/misc/dnsmasq.leases", opts.LeasesFile)
	assert.Equal(t, "/data/history", opts.OutputDir)
	assert.Equal(t, "Everything.csv", opts.LedgerFile)
	assert.True(t, opts.EnrichNames)
	assert.Equal(t, "192.168.1.1", opts.DNSServer)
	assert.Equal(t, 53, opts.DNSPort)
	assert.True(t, opts.TrackerEnabled)
	assert.Equal(t, "/data/tracker.db", opts.TrackerDBPath)
	assert.True(t, opts.RecoverLastOnline)

	require.Len(t, opts.Scopes.Scopes, 2)
	assert.Equal(t, []string{"lan"}, opts.Scopes.ActiveIDs())
}

func TestOptionsDefaults(t *testing.T) {
	minimal := `
dhcp:
  hosts_file: /etc/dnsmasq.hosts
  leases_file: /var/lib/misc/dnsmasq.leases
  scopes:
    - id: lan
      start: 10.0.0.1
      end: 10.0.0.254
output:
  directory: /data/history
`
	var opts Options
	require.NoError(t, yaml.Unmarshal([]byte(minimal), &opts))

	assert.Equal(t, ModeLeaseState, opts.Mode)
	assert.Equal(t, 2*time.Second, opts.ProbeTimeout)
	assert.Equal(t, "AllReservations.csv", opts.LedgerFile)
	assert.Equal(t, "127.0.0.1", opts.DNSServer)
	assert.Equal(t, 53, opts.DNSPort)
	assert.False(t, opts.TrackerEnabled)
}

func TestOptionsUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{
			name: "invalid liveness mode",
			config: `
liveness:
  mode: crystal-ball
dhcp:
  hosts_file: /a
  leases_file: /b
  scopes: [{id: lan, start: 10.0.0.1, end: 10.0.0.9}]
output: {directory: /data}
`,
		},
		{
			name: "negative probe timeout",
			config: `
liveness: {probe_timeout: -1s}
dhcp:
  hosts_file: /a
  leases_file: /b
  scopes: [{id: lan, start: 10.0.0.1, end: 10.0.0.9}]
output: {directory: /data}
`,
		},
		{
			name: "missing hosts file",
			config: `
dhcp:
  leases_file: /b
  scopes: [{id: lan, start: 10.0.0.1, end: 10.0.0.9}]
output: {directory: /data}
`,
		},
		{
			name: "no scopes",
			config: `
dhcp:
  hosts_file: /a
  leases_file: /b
output: {directory: /data}
`,
		},
		{
			name: "scope with an unparsable address",
			config: `
dhcp:
  hosts_file: /a
  leases_file: /b
  scopes: [{id: lan, start: not-an-ip, end: 10.0.0.1}]
output: {directory: /data}
`,
		},
		{
			name: "duplicated scope id",
			config: `
dhcp:
  hosts_file: /a
  leases_file: /b
  scopes:
    - {id: lan, start: 10.0.0.1, end: 10.0.0.9}
    - {id: lan, start: 10.0.1.1, end: 10.0.1.9}
output: {directory: /data}
`,
		},
		{
			name: "missing output directory",
			config: `
dhcp:
  hosts_file: /a
  leases_file: /b
  scopes: [{id: lan, start: 10.0.0.1, end: 10.0.0.9}]
`,
		},
		{
			name: "tracker enabled without a database",
			config: `
dhcp:
  hosts_file: /a
  leases_file: /b
  scopes: [{id: lan, start: 10.0.0.1, end: 10.0.0.9}]
output: {directory: /data}
tracker: {enabled: true}
`,
		},
		{
			name: "recover_last_online without tracker",
			config: `
dhcp:
  hosts_file: /a
  leases_file: /b
  scopes: [{id: lan, start: 10.0.0.1, end: 10.0.0.9}]
output: {directory: /data}
tracker: {recover_last_online: true}
`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var opts Options
			assert.Error(t, yaml.Unmarshal([]byte(test.config), &opts))
		})
	}
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validConfig), 0o644))

	opts, err := LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, ModeActiveProbe, opts.Mode)

	_, err = LoadOptions(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}
