package voxel

// Voxel наименьшая адресуемая единица мира: материал и байт атрибутов (оттенок/вариант)
type Voxel struct {
	Material Material
	Attr     uint8
}

// Empty нулевое значение вокселя
var Empty = Voxel{}

// Of создаёт воксель заданного материала без атрибутов
func Of(m Material) Voxel {
	return Voxel{Material: m}
}

// IsEmpty сообщает, что в вокселе нет ни твёрдого тела, ни жидкости
func (v Voxel) IsEmpty() bool {
	return v.Material == MaterialEmpty
}

// Kind возвращает класс видимости вокселя
func (v Voxel) Kind() Kind {
	return v.Material.Kind()
}

// IsOpaque сообщает, что воксель попадает в непрозрачный меш
func (v Voxel) IsOpaque() bool {
	return v.Kind() == KindSolid
}

// Color возвращает цвет вокселя с учётом атрибута яркости
func (v Voxel) Color() [4]uint8 {
	c := v.Material.Color()
	if v.Attr == 0 {
		return c
	}
	// Attr затемняет цвет: 255 почти чёрный
	shade := 255 - int(v.Attr)/2
	for i := 0; i < 3; i++ {
		c[i] = uint8(int(c[i]) * shade / 255)
	}
	return c
}
