package terrain

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/annel0/voxelworld/internal/voxel"
)

// Settings параметры рельефа в мировых координатах
type Settings struct {
	BaseHeight    int     // Средняя высота поверхности
	Amplitude     int     // Отклонение высоты от средней
	SeaLevel      int     // Ниже этого уровня пустота заливается водой
	NoiseScale    float64 // Масштаб шума высоты
	BiomeScale    float64 // Масштаб шума биомов
	StrataLayers  int     // Число слоёв биома над камнем
	BedrockLayers int     // Толщина нижней границы мира
}

// DefaultSettings подбирает рельеф так, чтобы поверхность помещалась в один слой чанков
func DefaultSettings(edge int) Settings {
	return Settings{
		BaseHeight:    edge * 3 / 8,
		Amplitude:     edge / 4,
		SeaLevel:      edge * 5 / 16,
		NoiseScale:    0.02,
		BiomeScale:    0.004,
		StrataLayers:  8,
		BedrockLayers: 2,
	}
}

// decorationMargin сколько колонок вокруг чанка просматривается в поисках украшений
const decorationMargin = 2

type biomeEntry struct {
	biome     Biome
	threshold float64
}

// Generator детерминированный генератор содержимого чанков.
// Неизменяем после Build и безопасен для одновременного использования.
type Generator struct {
	seed     int64
	edge     int
	settings Settings
	noise    *Noise
	biomes   []biomeEntry
}

// Builder собирает Generator; регистрация биомов - шаг сборки
type Builder struct {
	seed     int64
	edge     int
	settings *Settings
	biomes   []biomeEntry
}

// NewBuilder начинает сборку генератора для сида и ребра чанка
func NewBuilder(seed int64, edge int) *Builder {
	return &Builder{seed: seed, edge: edge}
}

// WithSettings задаёт параметры рельефа
func (b *Builder) WithSettings(s Settings) *Builder {
	b.settings = &s
	return b
}

// WithBiome регистрирует биом. Биом выбирается, если шум биома >= threshold
// и нет биома с большим порогом, который тоже подходит.
func (b *Builder) WithBiome(biome Biome, threshold float64) *Builder {
	b.biomes = append(b.biomes, biomeEntry{biome: biome, threshold: threshold})
	return b
}

// WithDefaultBiomes регистрирует стандартный набор: снежные равнины, равнины, пустыня
func (b *Builder) WithDefaultBiomes() *Builder {
	return b.WithBiome(BiomeSnowyPlains, 0).
		WithBiome(BiomePlains, 0.35).
		WithBiome(BiomeDesert, 0.65)
}

// Build проверяет параметры и создаёт генератор
func (b *Builder) Build() (*Generator, error) {
	if b.edge <= 0 {
		return nil, fmt.Errorf("некорректное ребро чанка %d", b.edge)
	}
	settings := DefaultSettings(b.edge)
	if b.settings != nil {
		settings = *b.settings
	}
	if settings.Amplitude < 0 || settings.StrataLayers < 0 || settings.BedrockLayers < 0 {
		return nil, errors.New("параметры рельефа не могут быть отрицательными")
	}

	biomes := append([]biomeEntry(nil), b.biomes...)
	if len(biomes) == 0 {
		biomes = []biomeEntry{{biome: BiomePlains}}
	}
	sort.SliceStable(biomes, func(i, j int) bool { return biomes[i].threshold < biomes[j].threshold })

	return &Generator{
		seed:     b.seed,
		edge:     b.edge,
		settings: settings,
		noise:    NewNoise(b.seed),
		biomes:   biomes,
	}, nil
}

// Seed возвращает сид генератора
func (g *Generator) Seed() int64 { return g.seed }

// Edge возвращает ребро чанка, под которое собран генератор
func (g *Generator) Edge() int { return g.edge }

// Settings возвращает параметры рельефа
func (g *Generator) Settings() Settings { return g.settings }

// HeightAt высота поверхности колонки: воксели с y < HeightAt твёрдые
func (g *Generator) HeightAt(x, z int) int {
	s := g.settings
	n := g.noise.Height01(float64(x)*s.NoiseScale, float64(z)*s.NoiseScale)
	return s.BaseHeight + int(math.Round((n*2-1)*float64(s.Amplitude)))
}

// BiomeAt возвращает биом колонки
func (g *Generator) BiomeAt(x, z int) Biome {
	v := g.noise.Biome01(float64(x)*g.settings.BiomeScale, float64(z)*g.settings.BiomeScale)
	chosen := g.biomes[0].biome
	for _, e := range g.biomes {
		if v >= e.threshold {
			chosen = e.biome
		}
	}
	return chosen
}

// Scratch рабочая память генерации, принадлежит одному воркеру
type Scratch struct {
	span    int
	heights []int
	biomes  []Biome
}

// NewScratch выделяет рабочую память под чанк с ребром edge
func NewScratch(edge int) *Scratch {
	span := edge + 2*decorationMargin
	return &Scratch{
		span:    span,
		heights: make([]int, span*span),
		biomes:  make([]Biome, span*span),
	}
}

// Generate заполняет buf содержимым чанка key. Каждый воксель буфера перезаписывается.
func (g *Generator) Generate(key voxel.ChunkKey, buf *voxel.Buffer, scratch *Scratch) {
	edge := g.edge
	if buf.Shape().Edge != edge {
		panic(fmt.Sprintf("terrain: buffer edge %d does not match generator edge %d", buf.Shape().Edge, edge))
	}
	if scratch == nil || scratch.span != edge+2*decorationMargin {
		scratch = NewScratch(edge)
	}

	g.sampleColumns(key, scratch)
	g.carve(key, buf, scratch)
	g.decorate(key, buf, scratch)
}

// sampleColumns считает высоты и биомы для чанка и полосы decorationMargin вокруг него
func (g *Generator) sampleColumns(key voxel.ChunkKey, s *Scratch) {
	for dz := 0; dz < s.span; dz++ {
		for dx := 0; dx < s.span; dx++ {
			wx := key.X + dx - decorationMargin
			wz := key.Z + dz - decorationMargin
			i := dz*s.span + dx
			s.heights[i] = g.HeightAt(wx, wz)
			s.biomes[i] = g.BiomeAt(wx, wz)
		}
	}
}

func (g *Generator) carve(key voxel.ChunkKey, buf *voxel.Buffer, s *Scratch) {
	edge := g.edge
	set := g.settings
	water := voxel.Of(voxel.MaterialWater)
	rock := voxel.Of(voxel.MaterialRock)
	bedrock := voxel.Of(voxel.MaterialBedrock)

	for z := 0; z < edge; z++ {
		for x := 0; x < edge; x++ {
			i := (z+decorationMargin)*s.span + x + decorationMargin
			h := s.heights[i]
			biome := s.biomes[i]

			for y := 0; y < edge; y++ {
				wy := key.Y + y
				v := voxel.Empty
				switch {
				case wy < h:
					if depth := h - 1 - wy; depth <= set.StrataLayers {
						v = biome.Strata(depth)
					} else {
						v = rock
					}
				case wy < set.SeaLevel:
					v = water
				}
				if wy >= 0 && wy < set.BedrockLayers {
					v = bedrock
				}
				buf.SetVoxel(x, y, z, v)
			}
		}
	}
}

// decorate ставит украшения. Колонки из полосы вокруг чанка тоже учитываются,
// их части, попавшие в чанк, вырезаются, поэтому швов между чанками нет.
func (g *Generator) decorate(key voxel.ChunkKey, buf *voxel.Buffer, s *Scratch) {
	for dz := 0; dz < s.span; dz++ {
		for dx := 0; dx < s.span; dx++ {
			i := dz*s.span + dx
			h := s.heights[i]
			if h <= g.settings.SeaLevel {
				continue
			}
			wx := key.X + dx - decorationMargin
			wz := key.Z + dz - decorationMargin
			chance := g.noise.Chance(wx, wz, 0xDEC0)

			switch s.biomes[i].Decoration(chance) {
			case DecorationTree:
				height := 4 + int(chance*1e4)%3
				g.placeTree(key, buf, wx, h, wz, height, 2)
			case DecorationPine:
				height := 5 + int(chance*1e4)%3
				g.placePine(key, buf, wx, h, wz, height)
			case DecorationCactus:
				height := 2 + int((chance-cactusThreshold)*500)
				if height > 5 {
					height = 5
				}
				for y := 0; y < height; y++ {
					g.put(key, buf, wx, h+y, wz, voxel.Of(voxel.MaterialCactus), true)
				}
			}
		}
	}
}

func (g *Generator) placeTree(key voxel.ChunkKey, buf *voxel.Buffer, wx, base, wz, height, radius int) {
	top := base + height - 1
	for dy := -radius; dy <= radius; dy++ {
		for dz := -radius; dz <= radius; dz++ {
			for dx := -radius; dx <= radius; dx++ {
				if dx*dx+dy*dy+dz*dz > radius*radius+1 {
					continue
				}
				g.put(key, buf, wx+dx, top+dy, wz+dz, voxel.Of(voxel.MaterialLeaves), false)
			}
		}
	}
	for y := base; y < top; y++ {
		g.put(key, buf, wx, y, wz, voxel.Of(voxel.MaterialWood), true)
	}
}

func (g *Generator) placePine(key voxel.ChunkKey, buf *voxel.Buffer, wx, base, wz, height int) {
	top := base + height
	for y := base + 2; y <= top; y++ {
		r := (top - y + 1) / 2
		if r > decorationMargin {
			r = decorationMargin
		}
		for dz := -r; dz <= r; dz++ {
			for dx := -r; dx <= r; dx++ {
				if abs(dx)+abs(dz) > r {
					continue
				}
				g.put(key, buf, wx+dx, y, wz+dz, voxel.Of(voxel.MaterialLeaves), false)
			}
		}
	}
	for y := base; y < top; y++ {
		g.put(key, buf, wx, y, wz, voxel.Of(voxel.MaterialWood), true)
	}
}

// put пишет воксель по мировым координатам, если он попадает в чанк.
// Без overwrite заменяется только пустота.
func (g *Generator) put(key voxel.ChunkKey, buf *voxel.Buffer, wx, wy, wz int, v voxel.Voxel, overwrite bool) {
	x, y, z := wx-key.X, wy-key.Y, wz-key.Z
	if x < 0 || y < 0 || z < 0 || x >= g.edge || y >= g.edge || z >= g.edge {
		return
	}
	if !overwrite && !buf.VoxelAt(x, y, z).IsEmpty() {
		return
	}
	buf.SetVoxel(x, y, z, v)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
