package config

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sinkDatabase(host string) *DatabaseConfig {
	return &DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "reports",
		Database: "salesintel",
		SSLMode:  "disable",
	}
}

func TestConnectionString_LoopbackSinkHost(t *testing.T) {
	for _, host := range []string{"localhost", "127.0.0.1"} {
		t.Run(host, func(t *testing.T) {
			// The rewrite depends on whether the test itself runs in a container.
			want := host
			if IsRunningInDocker() {
				want = "host.docker.internal"
			}

			u, err := url.Parse(sinkDatabase(host).ConnectionString())
			require.NoError(t, err)
			assert.Equal(t, want, u.Hostname())
			assert.Equal(t, "5432", u.Port())
			assert.Equal(t, "/salesintel", u.Path)
		})
	}
}

func TestConnectionString_RemoteSinkHostUnchanged(t *testing.T) {
	for _, host := range []string{"db.reports.internal", "10.0.4.12", "host.docker.internal"} {
		t.Run(host, func(t *testing.T) {
			u, err := url.Parse(sinkDatabase(host).ConnectionString())
			require.NoError(t, err)
			assert.Equal(t, host, u.Hostname())
		})
	}
}

func TestIsRunningInDocker_Cached(t *testing.T) {
	assert.Equal(t, IsRunningInDocker(), IsRunningInDocker())
}
