package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fwatch/internal/eventbus"
)

func TestLoadMissingDefaultFileReturnsDefaults(t *testing.T) {
	cs := NewConfigService(t.TempDir())

	cfg, err := cs.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFromPathMissing(t *testing.T) {
	cs := NewConfigService(t.TempDir())

	_, err := cs.LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoadParsesTOML(t *testing.T) {
	dir := t.TempDir()
	body := `
version = 1
roots = ["src", "docs"]
command = ["make", "{}"]
extension = ".go"
pager = true
ignore = ["vendor", "build/"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFileName), []byte(body), 0644))

	cfg, err := NewConfigService(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"src", "docs"}, cfg.Roots)
	assert.Equal(t, []string{"make", "{}"}, cfg.Command)
	assert.Equal(t, "go", cfg.Extension)
	assert.True(t, cfg.Pager)
	assert.Equal(t, []string{"vendor", "build/"}, cfg.Ignore)
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFileName), []byte("roots = [\n"), 0644))

	_, err := NewConfigService(dir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestSaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	cs := NewConfigService(dir)

	cfg := DefaultConfig()
	cfg.Roots = []string{"."}
	cfg.Command = []string{"go", "test", "./..."}
	cfg.Regex = `_test\.go$`
	cfg.Ignore = []string{"vendor"}
	require.NoError(t, cs.Save(cfg))

	loaded, err := cs.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestServiceWithBusPublishesEvents(t *testing.T) {
	dir := t.TempDir()
	bus := eventbus.New()

	var events []eventbus.DomainEvent
	record := func(e eventbus.DomainEvent) { events = append(events, e) }
	bus.Subscribe(eventbus.EventConfigSaved, record)
	bus.Subscribe(eventbus.EventConfigLoaded, record)

	cs := NewConfigServiceWithBus(dir, bus)
	cfg := DefaultConfig()
	cfg.Roots = []string{"."}
	require.NoError(t, cs.Save(cfg))
	_, err := cs.Load()
	require.NoError(t, err)

	// Close drains the queue, and handlers run on one goroutine in order
	bus.Close()
	path := filepath.Join(dir, DefaultFileName)
	assert.Equal(t, []eventbus.DomainEvent{
		eventbus.ConfigSavedEvent{Path: path},
		eventbus.ConfigLoadedEvent{Path: path},
	}, events)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Roots = []string{"."}
		cfg.Command = []string{"echo", "{}"}
		return cfg
	}

	t.Run("ok", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("no directories", func(t *testing.T) {
		cfg := valid()
		cfg.Roots = nil
		assert.ErrorIs(t, cfg.Validate(), ErrNoDirectories)
	})

	t.Run("empty command", func(t *testing.T) {
		cfg := valid()
		cfg.Command = nil
		assert.ErrorIs(t, cfg.Validate(), ErrEmptyCommand)
	})

	t.Run("bad regex", func(t *testing.T) {
		cfg := valid()
		cfg.Regex = "("
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid regex")
	})

	t.Run("bad ignore pattern", func(t *testing.T) {
		cfg := valid()
		cfg.Ignore = []string{"[abc"}
		assert.Error(t, cfg.Validate())
	})
}

func TestLogPath(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "", cfg.LogPath())

	cfg.Pager = true
	assert.Equal(t, DefaultLogFile, cfg.LogPath())

	cfg.LogFile = "/tmp/custom.log"
	assert.Equal(t, "/tmp/custom.log", cfg.LogPath())
}
