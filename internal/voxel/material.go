package voxel

// Material идентификатор материала вокселя. Ноль зарезервирован под пустоту.
type Material uint8

const (
	MaterialEmpty Material = iota
	MaterialDirt
	MaterialSand
	MaterialGrass
	MaterialRock
	MaterialSnow
	MaterialWater
	MaterialBedrock
	MaterialSandstone
	MaterialWood
	MaterialLeaves
	MaterialCactus

	materialCount
)

// Kind класс видимости материала, определяющий проход мешинга
type Kind uint8

const (
	KindEmpty Kind = iota
	KindSolid
	KindFluid
)

type materialInfo struct {
	name  string
	kind  Kind
	color [4]uint8
}

var materials = [materialCount]materialInfo{
	MaterialEmpty:     {name: "empty", kind: KindEmpty},
	MaterialDirt:      {name: "dirt", kind: KindSolid, color: [4]uint8{112, 83, 57, 255}},
	MaterialSand:      {name: "sand", kind: KindSolid, color: [4]uint8{219, 202, 146, 255}},
	MaterialGrass:     {name: "grass", kind: KindSolid, color: [4]uint8{96, 160, 64, 255}},
	MaterialRock:      {name: "rock", kind: KindSolid, color: [4]uint8{122, 122, 122, 255}},
	MaterialSnow:      {name: "snow", kind: KindSolid, color: [4]uint8{240, 244, 250, 255}},
	MaterialWater:     {name: "water", kind: KindFluid, color: [4]uint8{48, 96, 200, 160}},
	MaterialBedrock:   {name: "bedrock", kind: KindSolid, color: [4]uint8{40, 40, 40, 255}},
	MaterialSandstone: {name: "sandstone", kind: KindSolid, color: [4]uint8{196, 170, 110, 255}},
	MaterialWood:      {name: "wood", kind: KindSolid, color: [4]uint8{102, 76, 46, 255}},
	MaterialLeaves:    {name: "leaves", kind: KindSolid, color: [4]uint8{58, 122, 48, 255}},
	MaterialCactus:    {name: "cactus", kind: KindSolid, color: [4]uint8{70, 140, 60, 255}},
}

func (m Material) info() materialInfo {
	if m >= materialCount {
		// Неизвестные материалы считаются твёрдыми, чтобы не терять геометрию
		return materialInfo{name: "unknown", kind: KindSolid, color: [4]uint8{255, 0, 255, 255}}
	}
	return materials[m]
}

// Kind возвращает класс видимости материала
func (m Material) Kind() Kind { return m.info().kind }

// Color возвращает базовый цвет материала в RGBA
func (m Material) Color() [4]uint8 { return m.info().color }

func (m Material) String() string { return m.info().name }
