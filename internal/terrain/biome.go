package terrain

import "github.com/annel0/voxelworld/internal/voxel"

// Biome тип биома. Набор закрыт, поведение выбирается через switch.
type Biome uint8

const (
	BiomePlains Biome = iota
	BiomeDesert
	BiomeSnowyPlains
)

func (b Biome) String() string {
	switch b {
	case BiomePlains:
		return "plains"
	case BiomeDesert:
		return "desert"
	case BiomeSnowyPlains:
		return "snowy_plains"
	default:
		return "unknown"
	}
}

// Strata материал слоя на глубине layer под поверхностью (0 - верхний воксель)
func (b Biome) Strata(layer int) voxel.Voxel {
	switch b {
	case BiomeDesert:
		if layer <= 5 {
			return voxel.Of(voxel.MaterialSand)
		}
		return voxel.Of(voxel.MaterialSandstone)
	case BiomeSnowyPlains:
		switch {
		case layer == 0:
			return voxel.Of(voxel.MaterialSnow)
		case layer <= 2:
			return voxel.Of(voxel.MaterialGrass)
		default:
			return voxel.Of(voxel.MaterialDirt)
		}
	default:
		if layer <= 1 {
			return voxel.Of(voxel.MaterialGrass)
		}
		return voxel.Of(voxel.MaterialDirt)
	}
}

// Decoration вид украшения на поверхности
type Decoration uint8

const (
	DecorationNone Decoration = iota
	DecorationTree
	DecorationPine
	DecorationCactus
)

// Пороги появления украшений
const (
	treeThreshold   = 0.981
	pineThreshold   = 0.985
	cactusThreshold = 0.992
)

// Decoration выбирает украшение колонки по её случайному значению
func (b Biome) Decoration(chance float64) Decoration {
	switch b {
	case BiomePlains:
		if chance > treeThreshold {
			return DecorationTree
		}
	case BiomeDesert:
		if chance > cactusThreshold {
			return DecorationCactus
		}
	case BiomeSnowyPlains:
		if chance > pineThreshold {
			return DecorationPine
		}
	}
	return DecorationNone
}
