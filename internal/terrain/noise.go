package terrain

import (
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Noise источники когерентного шума генератора. Только чтение после создания,
// поэтому один экземпляр безопасно использовать из всех воркеров.
type Noise struct {
	seed   int64
	height *perlin.Perlin
	biome  opensimplex.Noise
}

// NewNoise создаёт шумы для сида
func NewNoise(seed int64) *Noise {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &Noise{
		seed:   seed,
		height: perlin.NewPerlin(alpha, beta, n, seed),
		biome:  opensimplex.NewNormalized(seed + 42),
	}
}

// Height01 возвращает шум высоты в диапазоне [0, 1]
func (n *Noise) Height01(x, z float64) float64 {
	v := (n.height.Noise2D(x, z) + 1.0) / 2.0
	return math.Max(0, math.Min(1, v))
}

// Biome01 возвращает шум биома в диапазоне [0, 1)
func (n *Noise) Biome01(x, z float64) float64 {
	return n.biome.Eval2(x, z)
}

// Chance детерминированное псевдослучайное число [0, 1) для колонки (x, z)
func (n *Noise) Chance(x, z int, salt uint64) float64 {
	h := uint64(n.seed) ^ salt
	h = mix(h ^ uint64(int64(x))*0x9E3779B97F4A7C15)
	h = mix(h ^ uint64(int64(z))*0xC2B2AE3D27D4EB4F)
	return float64(h>>11) / float64(1<<53)
}

// mix финализатор splitmix64
func mix(z uint64) uint64 {
	z += 0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
