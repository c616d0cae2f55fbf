package physics

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Sphere - сферическая форма коллизии (игрок, коллекционные предметы)
type Sphere struct {
	Radius float32
}

// Trimesh - статичная вогнутая треугольная сетка (партиции террейна).
// Вершины хранятся в локальном пространстве тела, индексы тройками.
type Trimesh struct {
	vertices []mgl32.Vec3
	indices  []uint32

	aabbMin mgl32.Vec3
	aabbMax mgl32.Vec3
}

// NewTrimesh строит сетку из плоского массива координат (x, y, z подряд)
// и списка индексов. Количество индексов должно быть кратно трем, и каждый
// индекс обязан ссылаться на существующую вершину.
func NewTrimesh(positions []float32, indices []uint32) (*Trimesh, error) {
	if len(positions)%3 != 0 {
		return nil, errors.Errorf("длина массива вершин %d не кратна 3", len(positions))
	}
	if len(indices)%3 != 0 {
		return nil, errors.Errorf("длина массива индексов %d не кратна 3", len(indices))
	}

	count := len(positions) / 3
	vertices := make([]mgl32.Vec3, count)
	for i := 0; i < count; i++ {
		vertices[i] = mgl32.Vec3{positions[i*3], positions[i*3+1], positions[i*3+2]}
	}

	for _, idx := range indices {
		if int(idx) >= count {
			return nil, errors.Errorf("индекс %d вне буфера вершин (всего %d)", idx, count)
		}
	}

	m := &Trimesh{
		vertices: vertices,
		indices:  append([]uint32(nil), indices...),
	}
	m.computeAABB()
	return m, nil
}

func (m *Trimesh) computeAABB() {
	if len(m.vertices) == 0 {
		return
	}
	min := m.vertices[0]
	max := m.vertices[0]
	for _, v := range m.vertices[1:] {
		for i := 0; i < 3; i++ {
			if v[i] < min[i] {
				min[i] = v[i]
			}
			if v[i] > max[i] {
				max[i] = v[i]
			}
		}
	}
	m.aabbMin = min
	m.aabbMax = max
}

// TriangleCount возвращает количество треугольников в сетке
func (m *Trimesh) TriangleCount() int {
	return len(m.indices) / 3
}

// VertexCount возвращает количество вершин в локальном буфере
func (m *Trimesh) VertexCount() int {
	return len(m.vertices)
}

// Triangle возвращает вершины i-го треугольника в локальном пространстве
func (m *Trimesh) Triangle(i int) (a, b, c mgl32.Vec3) {
	a = m.vertices[m.indices[i*3]]
	b = m.vertices[m.indices[i*3+1]]
	c = m.vertices[m.indices[i*3+2]]
	return a, b, c
}

// AABB возвращает ограничивающий объем сетки в локальном пространстве
func (m *Trimesh) AABB() (min, max mgl32.Vec3) {
	return m.aabbMin, m.aabbMax
}
