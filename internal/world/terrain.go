package world

import (
	"log"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"x-runner/internal/physics"
)

// Высота, с которой пускается луч поиска поверхности
const surfaceProbeHeight = 200.0

// Terrain - собранный физический мир сессии: по одному статичному телу
// на партицию, таблица контактов и сам физический мир. Владеет шагом
// симуляции.
type Terrain struct {
	world  *physics.World
	bodies []*physics.Body

	// Половина стороны квадрата, в котором размещаются предметы.
	// Берется из метаданных либо вычисляется по габаритам партиций.
	halfExtent float32
}

// Assemble строит физический мир из датасета: для каждой партиции
// создает неподвижное тело с вогнутой сеткой, применяя единый
// вертикальный сдвиг, и заполняет таблицу контактов.
func Assemble(ds *Dataset) (*Terrain, error) {
	cfg := GetConfig()

	contacts := physics.NewContactTable()
	world := physics.NewWorld(mgl32.Vec3{0, cfg.World.GravityY, 0}, contacts)

	t := &Terrain{world: world}

	for _, p := range ds.Partitions {
		mesh, err := physics.NewTrimesh(p.Vertices, p.Indices)
		if err != nil {
			return nil, errors.Wrapf(err, "сетка партиции %s", p.Name)
		}

		body := physics.NewMeshBody(
			"terrain_"+p.Name,
			mgl32.Vec3{0, cfg.World.VerticalOffset, 0},
			mesh,
			p.Name,
		)
		if err := world.AddBody(body); err != nil {
			return nil, errors.Wrapf(err, "тело партиции %s", p.Name)
		}
		t.bodies = append(t.bodies, body)

		// Материал игрока обязан иметь пару с материалом каждой партиции.
		// Контакты партиций друг с другом не нужны: статика со статикой
		// не сталкивается, но пара "сам с собой" определяется для полноты.
		contacts.Define(physics.MaterialDynamic, p.Name, cfg.Contact.contactFor(p.Name))
		contacts.Define(p.Name, p.Name, cfg.Contact.TerrainSelf)

		log.Printf("[Terrain] Партиция %s: %d вершин, %d треугольников",
			p.Name, p.VertexCount(), mesh.TriangleCount())
	}

	t.halfExtent = computeHalfExtent(ds)
	log.Printf("[Terrain] Мир собран: %d статичных тел, зона размещения ±%.0f",
		len(t.bodies), t.halfExtent)

	return t, nil
}

func computeHalfExtent(ds *Dataset) float32 {
	if ds.Metadata != nil && ds.Metadata.TerrainSize > 0 {
		return ds.Metadata.TerrainSize / 2
	}

	// Метаданных нет - оцениваем по габаритам партиций
	extent := float32(0)
	for _, p := range ds.Partitions {
		for i := 0; i < len(p.Vertices); i += 3 {
			extent = math32.Max(extent, math32.Abs(p.Vertices[i]))
			extent = math32.Max(extent, math32.Abs(p.Vertices[i+2]))
		}
	}
	if extent == 0 {
		extent = 50
	}
	return extent
}

// World возвращает физический мир террейна
func (t *Terrain) World() *physics.World {
	return t.world
}

// Step продвигает физическую симуляцию (делегат мира)
func (t *Terrain) Step(fixedDelta, wallDelta float32) {
	t.world.Step(fixedDelta, wallDelta)
}

// GetMaterial возвращает параметры контакта динамического тела
// с партицией по имени материала
func (t *Terrain) GetMaterial(name string) (physics.ContactParams, bool) {
	return t.world.Contacts().Lookup(physics.MaterialDynamic, name)
}

// BodyCount возвращает количество статичных тел террейна
func (t *Terrain) BodyCount() int {
	return len(t.bodies)
}

// HalfExtent возвращает половину стороны зоны размещения предметов
func (t *Terrain) HalfExtent() float32 {
	return t.halfExtent
}

// SurfaceAt пускает вертикальный луч вниз в точке (x, z) и возвращает
// высоту поверхности террейна. Декоративные тела и динамика исключены:
// размещение предметов идет только по партициям террейна.
func (t *Terrain) SurfaceAt(x, z float32) (float32, bool) {
	hit, ok := t.world.RayCast(
		mgl32.Vec3{x, surfaceProbeHeight, z},
		mgl32.Vec3{0, -1, 0},
		surfaceProbeHeight*2,
		func(b *physics.Body) bool {
			return b.IsStatic() && !b.Decorative && b.Mesh != nil
		},
	)
	if !ok {
		return 0, false
	}
	return hit.Point.Y(), true
}
