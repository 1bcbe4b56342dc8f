package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/justinabrahms/chessboard/internal/chess"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inDir runs the test from dir so Load sees only the files placed there.
func inDir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	inDir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, chess.StartingFEN, cfg.Session.StartFEN)
	assert.False(t, cfg.Session.StrictMoves)
	assert.Equal(t, 2*time.Hour, cfg.Session.IdleTimeout)
	assert.Equal(t, chess.ModeGame, cfg.StartMode())

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  host: 0.0.0.0
  port: 9000
session:
  start_fen: "8/8/8/4k3/8/3K4/8/8 w - - 0 1"
  analysis_mode: true
  idle_timeout: 15m
development:
  log_level: warn
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	inDir(t, dir)
	t.Setenv("CHESSBOARD_SERVER_PORT", "9100")
	t.Setenv("CHESSBOARD_SESSION_STRICT_MOVES", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "8/8/8/4k3/8/3K4/8/8 w - - 0 1", cfg.Session.StartFEN)
	assert.True(t, cfg.Session.StrictMoves)
	assert.Equal(t, 15*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, chess.ModeAnalysis, cfg.StartMode())

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, level)
}

func TestLoadRejectsBadStartFEN(t *testing.T) {
	inDir(t, t.TempDir())
	t.Setenv("CHESSBOARD_SESSION_START_FEN", "not/a/fen w - - 0 1")

	_, err := Load()
	assert.ErrorIs(t, err, chess.ErrMalformedDescriptor)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Server:      ServerConfig{Host: "localhost", Port: 8080},
		Session:     SessionConfig{StartFEN: chess.StartingFEN},
		Development: DevelopmentConfig{LogLevel: "info"},
	}
	require.NoError(t, valid.Validate())

	badPort := valid
	badPort.Server.Port = 0
	assert.Error(t, badPort.Validate())

	badIdle := valid
	badIdle.Session.IdleTimeout = -time.Second
	assert.Error(t, badIdle.Validate())

	badLevel := valid
	badLevel.Development.LogLevel = "loud"
	assert.Error(t, badLevel.Validate())

	debug := badLevel
	debug.Development.Debug = true
	level, err := debug.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)
}
