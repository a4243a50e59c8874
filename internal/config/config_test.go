package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "voxelworld.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsWithoutPath(t *testing.T) {
	t.Setenv("VOXEL_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
world:
  seed: 42
  chunk_edge: 16
  horizontal_radius: 3
scheduler:
  generation_budget: 2
terrain:
  amplitude: 6
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.World.Seed)
	assert.Equal(t, 16, cfg.World.ChunkEdge)
	assert.Equal(t, 3, cfg.World.HorizontalRadius)
	assert.Equal(t, 2, cfg.Scheduler.GenerationBudget)
	assert.Equal(t, 8, cfg.Scheduler.MeshingBudget, "незаданные поля берутся по умолчанию")

	ts := cfg.TerrainSettings()
	assert.Equal(t, 6, ts.Amplitude)
	assert.Equal(t, 16*3/8, ts.BaseHeight)
}

func TestLoad_EnvPath(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "world:\n  horizontal_radius: 7\n")
	t.Setenv("VOXEL_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.World.HorizontalRadius)
}

func TestLoad_SchemaRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"неизвестное поле":   "world:\n  chunk_size: 16\n",
		"слишком малое ребро": "world:\n  chunk_edge: 2\n",
		"неверный тип":        "storage:\n  enabled: \"yes\"\n",
		"неверный уровень":    "logging:\n  level: verbose\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "нет.yaml"))
	assert.Error(t, err)
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("VOXEL_METRICS_PORT", "9200")
	t.Setenv("VOXEL_SEED", "777")

	d := DiagnosticsConfig{}
	assert.Equal(t, 9200, d.GetMetricsPort())
	d.MetricsPort = 9300
	assert.Equal(t, 9300, d.GetMetricsPort(), "значение из конфига важнее env")

	w := WorldConfig{}
	assert.Equal(t, int64(777), w.GetSeed())
	w.Seed = 5
	assert.Equal(t, int64(5), w.GetSeed())

	t.Setenv("VOXEL_METRICS_PORT", "")
	assert.Equal(t, 2112, (&DiagnosticsConfig{}).GetMetricsPort())
}

func TestLoad_EnvFallbacksApply(t *testing.T) {
	t.Setenv("VOXEL_SEED", "777")
	t.Setenv("VOXEL_METRICS_PORT", "9200")
	t.Setenv("VOXEL_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(777), cfg.World.GetSeed(), "без конфига сид берётся из env")
	assert.Equal(t, 9200, cfg.Diagnostics.GetMetricsPort(), "без конфига порт берётся из env")

	path := writeConfig(t, t.TempDir(), "world:\n  horizontal_radius: 2\n")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(777), cfg.World.GetSeed(), "файл без seed не перекрывает env")
	assert.Equal(t, 9200, cfg.Diagnostics.GetMetricsPort(), "файл без metrics_port не перекрывает env")

	path = writeConfig(t, t.TempDir(), "world:\n  seed: 5\ndiagnostics:\n  metrics_port: 9300\n")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), cfg.World.GetSeed(), "значение из файла важнее env")
	assert.Equal(t, 9300, cfg.Diagnostics.GetMetricsPort())
}

func TestLoad_BuiltinDefaultsWithoutEnv(t *testing.T) {
	t.Setenv("VOXEL_SEED", "")
	t.Setenv("VOXEL_METRICS_PORT", "")
	t.Setenv("VOXEL_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), cfg.World.GetSeed())
	assert.Equal(t, 2112, cfg.Diagnostics.GetMetricsPort())
}

func TestWatcher_PublishesRadiusAndKeepsEdge(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "world:\n  chunk_edge: 16\n  horizontal_radius: 2\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	w := NewWatcher(path, cfg, time.Millisecond)
	assert.False(t, w.Poll(), "файл не менялся")

	writeConfig(t, dir, "world:\n  chunk_edge: 32\n  horizontal_radius: 5\n")
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	require.True(t, w.Poll())
	select {
	case next := <-w.Changes():
		assert.Equal(t, 5, next.World.HorizontalRadius)
		assert.Equal(t, 16, next.World.ChunkEdge, "ребро чанка фиксировано на старте")
	default:
		t.Fatal("новая версия не опубликована")
	}
}

func TestWatcher_RejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "world:\n  horizontal_radius: 2\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	w := NewWatcher(path, cfg, 0)

	writeConfig(t, dir, "world:\n  horizontal_radius: [1, 2]\n")
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	assert.False(t, w.Poll(), "некорректный конфиг не публикуется")
	assert.Len(t, w.Changes(), 0)
}
