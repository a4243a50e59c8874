package voxel

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/annel0/voxelworld/internal/vec"
)

// Buffer плотный кубический массив вокселей одного чанка.
// Размер задаётся при создании и никогда не меняется.
type Buffer struct {
	shape Shape
	data  []Voxel
}

// NewBuffer создаёт пустой буфер
func NewBuffer(shape Shape) *Buffer {
	return &Buffer{
		shape: shape,
		data:  make([]Voxel, shape.Volume()),
	}
}

// NewFilledBuffer создаёт буфер, заполненный значением v
func NewFilledBuffer(shape Shape, v Voxel) *Buffer {
	b := NewBuffer(shape)
	b.Fill(v)
	return b
}

// Shape возвращает форму буфера
func (b *Buffer) Shape() Shape {
	return b.shape
}

// Data возвращает линейное представление (только для чтения снаружи пакета)
func (b *Buffer) Data() []Voxel {
	return b.data
}

// VoxelAt читает воксель по локальным координатам. Границы не проверяются.
func (b *Buffer) VoxelAt(x, y, z int) Voxel {
	return b.data[b.shape.Linearize(x, y, z)]
}

// SetVoxel записывает воксель по локальным координатам. Границы не проверяются.
func (b *Buffer) SetVoxel(x, y, z int, v Voxel) {
	b.data[b.shape.Linearize(x, y, z)] = v
}

// At читает воксель по локальному вектору
func (b *Buffer) At(p vec.Vec3) Voxel {
	return b.VoxelAt(p.X, p.Y, p.Z)
}

// Fill заполняет весь буфер значением v
func (b *Buffer) Fill(v Voxel) {
	for i := range b.data {
		b.data[i] = v
	}
}

// FillExtent заполняет параллелепипед [min, min+size), обрезая его по границам буфера
func (b *Buffer) FillExtent(min, size vec.Vec3, v Voxel) {
	x0, y0, z0 := clamp(min.X, b.shape.Edge), clamp(min.Y, b.shape.Edge), clamp(min.Z, b.shape.Edge)
	x1, y1, z1 := clamp(min.X+size.X, b.shape.Edge), clamp(min.Y+size.Y, b.shape.Edge), clamp(min.Z+size.Z, b.shape.Edge)
	for y := y0; y < y1; y++ {
		for z := z0; z < z1; z++ {
			for x := x0; x < x1; x++ {
				b.SetVoxel(x, y, z, v)
			}
		}
	}
}

func clamp(v, edge int) int {
	if v < 0 {
		return 0
	}
	if v > edge {
		return edge
	}
	return v
}

// IsEmpty сообщает, что в буфере нет ни одного непустого вокселя
func (b *Buffer) IsEmpty() bool {
	for _, v := range b.data {
		if !v.IsEmpty() {
			return false
		}
	}
	return true
}

// Clone возвращает глубокую копию буфера
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{shape: b.shape, data: make([]Voxel, len(b.data))}
	copy(c.data, b.data)
	return c
}

// Equal сравнивает форму и содержимое
func (b *Buffer) Equal(other *Buffer) bool {
	if other == nil || b.shape != other.shape {
		return false
	}
	for i := range b.data {
		if b.data[i] != other.data[i] {
			return false
		}
	}
	return true
}

const (
	bufferMagic   = "VXB1"
	headerSize    = len(bufferMagic) + 2
	bytesPerVoxel = 2
)

// ErrCorruptBuffer возвращается при разборе повреждённых данных буфера
var ErrCorruptBuffer = errors.New("voxel: corrupt buffer encoding")

// MarshalBinary кодирует буфер: магия, ребро (uint16 LE), затем пары (материал, атрибут)
func (b *Buffer) MarshalBinary() ([]byte, error) {
	out := make([]byte, headerSize+len(b.data)*bytesPerVoxel)
	copy(out, bufferMagic)
	binary.LittleEndian.PutUint16(out[len(bufferMagic):], uint16(b.shape.Edge))
	p := out[headerSize:]
	for i, v := range b.data {
		p[i*2] = byte(v.Material)
		p[i*2+1] = v.Attr
	}
	return out, nil
}

// UnmarshalBinary восстанавливает буфер, закодированный MarshalBinary
func (b *Buffer) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize || string(data[:len(bufferMagic)]) != bufferMagic {
		return ErrCorruptBuffer
	}
	edge := int(binary.LittleEndian.Uint16(data[len(bufferMagic):]))
	if edge == 0 {
		return ErrCorruptBuffer
	}
	shape := Shape{Edge: edge}
	body := data[headerSize:]
	if len(body) != shape.Volume()*bytesPerVoxel {
		return fmt.Errorf("%w: want %d bytes, got %d", ErrCorruptBuffer, shape.Volume()*bytesPerVoxel, len(body))
	}

	b.shape = shape
	b.data = make([]Voxel, shape.Volume())
	for i := range b.data {
		b.data[i] = Voxel{Material: Material(body[i*2]), Attr: body[i*2+1]}
	}
	return nil
}
