package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/annel0/voxelworld/internal/terrain"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации клиента мира
type Config struct {
	World       WorldConfig       `yaml:"world"`
	Terrain     TerrainConfig     `yaml:"terrain"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Storage     StorageConfig     `yaml:"storage"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// WorldConfig параметры мира. ChunkEdge фиксируется при старте.
type WorldConfig struct {
	Seed             int64 `yaml:"seed"`
	ChunkEdge        int   `yaml:"chunk_edge"`
	HorizontalRadius int   `yaml:"horizontal_radius"`
	VerticalRadius   int   `yaml:"vertical_radius"` // 0 - один слой чанков без вертикального деления
}

// TerrainConfig переопределения рельефа; нулевые значения берутся по умолчанию
type TerrainConfig struct {
	BaseHeight int     `yaml:"base_height"`
	Amplitude  int     `yaml:"amplitude"`
	SeaLevel   int     `yaml:"sea_level"`
	NoiseScale float64 `yaml:"noise_scale"`
	BiomeScale float64 `yaml:"biome_scale"`
}

// SchedulerConfig бюджеты кадра и пул воркеров
type SchedulerConfig struct {
	GenerationBudget int `yaml:"generation_budget"`
	MeshingBudget    int `yaml:"meshing_budget"`
	Workers          int `yaml:"workers"`    // 0 - по числу логических CPU
	QueueSize        int `yaml:"queue_size"` // 0 - 4 задачи на воркер
}

type StorageConfig struct {
	Enabled bool `yaml:"enabled"`
}

type DiagnosticsConfig struct {
	MetricsPort     int     `yaml:"metrics_port"`
	LogEverySeconds float64 `yaml:"log_every_seconds"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default возвращает конфигурацию по умолчанию.
// Seed и MetricsPort остаются нулевыми: их разрешают GetSeed и GetMetricsPort.
func Default() *Config {
	return &Config{
		World: WorldConfig{
			ChunkEdge:        32,
			HorizontalRadius: 4,
			VerticalRadius:   0,
		},
		Scheduler: SchedulerConfig{
			GenerationBudget: 8,
			MeshingBudget:    8,
		},
		Storage: StorageConfig{Enabled: true},
		Diagnostics: DiagnosticsConfig{
			LogEverySeconds: 5,
		},
		Telemetry: TelemetryConfig{ServiceName: "voxelworld"},
		Logging:   LoggingConfig{Level: "info"},
	}
}

// TerrainSettings сводит переопределения с настройками рельефа по умолчанию
func (c *Config) TerrainSettings() terrain.Settings {
	s := terrain.DefaultSettings(c.World.ChunkEdge)
	t := c.Terrain
	if t.BaseHeight > 0 {
		s.BaseHeight = t.BaseHeight
	}
	if t.Amplitude > 0 {
		s.Amplitude = t.Amplitude
	}
	if t.SeaLevel > 0 {
		s.SeaLevel = t.SeaLevel
	}
	if t.NoiseScale > 0 {
		s.NoiseScale = t.NoiseScale
	}
	if t.BiomeScale > 0 {
		s.BiomeScale = t.BiomeScale
	}
	return s
}

// GetSeed возвращает сид с приоритетом: config -> env VOXEL_SEED -> default
func (w *WorldConfig) GetSeed() int64 {
	if w.Seed != 0 {
		return w.Seed
	}
	if envVal := os.Getenv("VOXEL_SEED"); envVal != "" {
		if seed, err := strconv.ParseInt(envVal, 10, 64); err == nil {
			return seed
		}
	}
	return 12345
}

// GetMetricsPort возвращает порт Prometheus с поддержкой fallback значений
func (d *DiagnosticsConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(d.MetricsPort, "VOXEL_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", берётся ENV VOXEL_CONFIG; если не задан и он - возвращаются значения по умолчанию.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать конфиг %s: %w", path, err)
	}
	return Parse(data)
}

// Parse проверяет документ по схеме и декодирует его поверх Default()
func Parse(data []byte) (*Config, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет связи между полями, которые схема не выражает
func (c *Config) Validate() error {
	var errs []error
	if c.World.ChunkEdge <= 0 {
		errs = append(errs, fmt.Errorf("world.chunk_edge должен быть положительным, получено %d", c.World.ChunkEdge))
	}
	if c.World.VerticalRadius < 0 {
		errs = append(errs, fmt.Errorf("world.vertical_radius не может быть отрицательным"))
	}
	return errors.Join(errs...)
}
