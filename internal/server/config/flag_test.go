package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	args := []string{
		"-a", "127.0.0.1:9090", "-h", "127.0.0.1:8080", "-d", "memory", "-s", "secret",
		"-t", "1", "-r", "3", "-u", "user", "-p", "password", "-b", "bucket",
		"-g", "us-west-1", "-e", "http://endpoint", "-l", "media/", "-w", "4",
		"-unrelated", "x",
	}
	expected := &Config{
		EndpointAddrGRPC:             "127.0.0.1:9090",
		EndpointAddrHTTP:             "127.0.0.1:8080",
		DatabaseDSN:                  "memory",
		SecretKey:                    "secret",
		AccessTokenValidityDuration:  time.Minute,
		RefreshTokenValidityDuration: 3 * time.Minute,
		S3RootUser:                   "user",
		S3RootPassword:               "password",
		S3Bucket:                     "bucket",
		S3Region:                     "us-west-1",
		S3BaseEndpoint:               "http://endpoint",
		LibraryPrefix:                "media/",
		ViewBuildConcurrency:         4,
	}

	cfg := &Config{}
	require.NoError(t, parseFlags(cfg, args))
	assert.Empty(t, cmp.Diff(expected, cfg))
}

func TestParseFlags_BadValue(t *testing.T) {
	assert.Error(t, parseFlags(&Config{}, []string{"-t", "soon"}))
}
