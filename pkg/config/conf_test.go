package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", FileName)

	c1 := Default()
	c1.True = "s3://bucket/true.pkl.gz"
	c1.Generated = "gen.pkl.gz"
	c1.Attempts = 5
	c1.DB = "postgres://localhost/celleval"
	c1.S3.Endpoint = "http://localhost:9000"
	c1.S3.PathStyle = true

	require.NoError(t, Save(path, c1))

	c2, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
	assert.NoError(t, c2.Validate())
}

func TestLoad_KeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("true: a.pkl.gz\ngenerated: b.pkl.gz\nmetrics_file: out.prom\n"), 0600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultAttempts, c.Attempts)
	assert.Equal(t, DefaultOutput, c.Output)
	assert.Equal(t, "out.prom", c.MetricsFile)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(bad, []byte("attempts: [1"), 0600))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestSave_Errors(t *testing.T) {
	assert.Error(t, Save("", Default()))
	assert.Error(t, Save(filepath.Join(t.TempDir(), FileName), nil))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(c *Config)
		want error
	}{
		{"valid", func(c *Config) {}, nil},
		{"no true", func(c *Config) { c.True = "" }, ErrMissingInput},
		{"no generated", func(c *Config) { c.Generated = "" }, ErrMissingInput},
		{"zero attempts", func(c *Config) { c.Attempts = 0 }, ErrInvalidAttempts},
		{"no output", func(c *Config) { c.Output = "" }, ErrMissingOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.True = "t.pkl"
			c.Generated = "g.pkl"
			tt.mod(c)
			err := c.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	var c *Config
	assert.Error(t, c.Validate())
}

func TestGetOrCreateHomeDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir, created, err := GetOrCreateHomeDir("celleval")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, ".celleval", filepath.Base(dir))

	_, created, err = GetOrCreateHomeDir(".celleval")
	require.NoError(t, err)
	assert.False(t, created)

	_, _, err = GetOrCreateHomeDir("")
	assert.Error(t, err)
}
