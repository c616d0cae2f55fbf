package world

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Document - сырой документ террейна.
// Flat и Pit - индексные списки в глобальный массив вершин.
// Mountain опционален: либо индексы в глобальный массив, либо
// уже прореженная партиция со своим буфером вершин.
type Document struct {
	Vertices []float32          `json:"vertices"`
	Flat     []uint32           `json:"flat"`
	Pit      []uint32           `json:"pit"`
	Mountain *MountainPartition `json:"mountain,omitempty"`
	Metadata *Metadata          `json:"metadata,omitempty"`
}

// MountainPartition - горная партиция. Если Vertices пуст, Indices
// трактуются как ссылки в глобальный массив и проходят перенумерацию,
// иначе партиция берется как есть (прореженный вариант).
type MountainPartition struct {
	Vertices []float32 `json:"vertices,omitempty"`
	Indices  []uint32  `json:"indices"`
}

// Metadata - необязательный блок метаданных. Его отсутствие не мешает
// загрузке террейна, только отключает зависящие от размера функции.
type Metadata struct {
	TerrainSize    float32 `json:"terrain_size,omitempty"`
	MountainHeight float32 `json:"mountain_height,omitempty"`
	MountainRadius float32 `json:"mountain_radius,omitempty"`
}

// Partition - компактная партиция: собственный буфер вершин без
// неиспользуемых позиций и индексы, перенумерованные в этот буфер
type Partition struct {
	Name     string
	Vertices []float32
	Indices  []uint32
}

// VertexCount возвращает количество вершин в локальном буфере партиции
func (p *Partition) VertexCount() int {
	return len(p.Vertices) / 3
}

// Dataset - разобранный и проверенный датасет террейна
type Dataset struct {
	Partitions []*Partition
	Metadata   *Metadata
}

// Partition ищет партицию по имени
func (ds *Dataset) Partition(name string) (*Partition, bool) {
	for _, p := range ds.Partitions {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Load читает документ террейна с диска. Любая ошибка фатальна для
// построения мира и пробрасывается вызывающему.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "чтение датасета террейна %s", path)
	}
	return Parse(data)
}

// Parse разбирает JSON-документ террейна и строит компактные партиции
func Parse(data []byte) (*Dataset, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "разбор документа террейна")
	}
	return Build(&doc)
}

// Build превращает документ в датасет: перенумеровывает партиции и
// проверяет инварианты (каждый индекс партиции ссылается только на
// вершины ее собственного буфера).
func Build(doc *Document) (*Dataset, error) {
	if len(doc.Vertices) == 0 {
		return nil, errors.New("документ террейна без вершин")
	}
	if len(doc.Vertices)%3 != 0 {
		return nil, errors.Errorf("длина глобального массива вершин %d не кратна 3", len(doc.Vertices))
	}
	if len(doc.Flat) == 0 || len(doc.Pit) == 0 {
		return nil, errors.New("партиции flat и pit обязательны")
	}

	ds := &Dataset{Metadata: doc.Metadata}

	flat, err := remapPartition("flat", doc.Vertices, doc.Flat)
	if err != nil {
		return nil, err
	}
	ds.Partitions = append(ds.Partitions, flat)

	pit, err := remapPartition("pit", doc.Vertices, doc.Pit)
	if err != nil {
		return nil, err
	}
	ds.Partitions = append(ds.Partitions, pit)

	// Горная партиция опциональна: ее отсутствие не является ошибкой
	if doc.Mountain != nil && len(doc.Mountain.Indices) > 0 {
		var mountain *Partition
		if len(doc.Mountain.Vertices) > 0 {
			// Прореженный вариант: буфер уже собственный, перенумерация не нужна
			mountain, err = verbatimPartition("mountain", doc.Mountain.Vertices, doc.Mountain.Indices)
		} else {
			mountain, err = remapPartition("mountain", doc.Vertices, doc.Mountain.Indices)
		}
		if err != nil {
			return nil, err
		}
		ds.Partitions = append(ds.Partitions, mountain)
	}

	return ds, nil
}

// remapPartition обходит треугольники партиции и для каждого еще не
// встреченного глобального индекса добавляет позицию в локальный буфер,
// запоминая соответствие глобальный->локальный. Индексы треугольников
// переписываются через это соответствие: получается компактный буфер
// без неиспользуемых вершин.
func remapPartition(name string, global []float32, indices []uint32) (*Partition, error) {
	if len(indices)%3 != 0 {
		return nil, errors.Errorf("партиция %s: количество индексов %d не кратно 3", name, len(indices))
	}

	globalCount := uint32(len(global) / 3)
	mapping := make(map[uint32]uint32, len(indices))

	p := &Partition{Name: name}
	for _, gi := range indices {
		if gi >= globalCount {
			return nil, errors.Errorf("партиция %s: глобальный индекс %d вне массива вершин (всего %d)",
				name, gi, globalCount)
		}
		local, seen := mapping[gi]
		if !seen {
			local = uint32(len(p.Vertices) / 3)
			mapping[gi] = local
			p.Vertices = append(p.Vertices,
				global[gi*3], global[gi*3+1], global[gi*3+2])
		}
		p.Indices = append(p.Indices, local)
	}

	return p, nil
}

// verbatimPartition принимает партицию с собственным буфером вершин,
// проверяя только границы индексов
func verbatimPartition(name string, vertices []float32, indices []uint32) (*Partition, error) {
	if len(vertices)%3 != 0 {
		return nil, errors.Errorf("партиция %s: длина буфера вершин %d не кратна 3", name, len(vertices))
	}
	if len(indices)%3 != 0 {
		return nil, errors.Errorf("партиция %s: количество индексов %d не кратно 3", name, len(indices))
	}

	count := uint32(len(vertices) / 3)
	for _, idx := range indices {
		if idx >= count {
			return nil, errors.Errorf("партиция %s: индекс %d вне буфера вершин (всего %d)", name, idx, count)
		}
	}

	return &Partition{
		Name:     name,
		Vertices: append([]float32(nil), vertices...),
		Indices:  append([]uint32(nil), indices...),
	}, nil
}
