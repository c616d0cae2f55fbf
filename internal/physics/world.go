package physics

import (
	"sync"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

const (
	// Скорость гашения касательной составляющей при контакте.
	// Подобрана так, чтобы шар не скользил бесконечно по пологому склону.
	frictionRate = 18.0

	// Минимальная скорость по нормали, ниже которой отскок не считается
	restitutionThreshold = 0.8
)

// World - физический мир: тела, таблица контактов, гравитация и шаг
// симуляции с фиксированным подшагом.
type World struct {
	gravity     mgl32.Vec3
	contacts    *ContactTable
	bodies      []*Body
	byID        map[string]*Body
	accumulator float32
	maxSubSteps int
	mu          sync.RWMutex
}

// NewWorld создает мир с заданной гравитацией и таблицей контактов
func NewWorld(gravity mgl32.Vec3, contacts *ContactTable) *World {
	return &World{
		gravity:     gravity,
		contacts:    contacts,
		byID:        make(map[string]*Body),
		maxSubSteps: 4,
	}
}

// Contacts возвращает таблицу контактов мира
func (w *World) Contacts() *ContactTable {
	return w.contacts
}

// AddBody добавляет тело в мир. Тело с пустым или повторяющимся ID - ошибка.
func (w *World) AddBody(b *Body) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if b.ID == "" {
		return errors.New("тело без ID")
	}
	if _, exists := w.byID[b.ID]; exists {
		return errors.Errorf("тело %s уже добавлено", b.ID)
	}

	w.bodies = append(w.bodies, b)
	w.byID[b.ID] = b
	return nil
}

// RemoveBody удаляет тело из мира по ID
func (w *World) RemoveBody(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.byID[id]; !exists {
		return
	}
	delete(w.byID, id)
	for i, b := range w.bodies {
		if b.ID == id {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			break
		}
	}
}

// Body возвращает тело по ID
func (w *World) Body(id string) (*Body, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	b, ok := w.byID[id]
	return b, ok
}

// Bodies возвращает снимок списка тел
func (w *World) Bodies() []*Body {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return append([]*Body(nil), w.bodies...)
}

// StaticBodyCount возвращает количество статичных тел в мире
func (w *World) StaticBodyCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	count := 0
	for _, b := range w.bodies {
		if b.IsStatic() {
			count++
		}
	}
	return count
}

// Step продвигает симуляцию. fixedDelta - длительность одного подшага,
// wallDelta - реально прошедшее время кадра. Аккумулятор гарантирует
// детерминированные подшаги при неровной частоте кадров; остаток
// переносится на следующий кадр, не более maxSubSteps подшагов за вызов.
func (w *World) Step(fixedDelta, wallDelta float32) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.accumulator += wallDelta
	steps := 0
	for w.accumulator >= fixedDelta && steps < w.maxSubSteps {
		w.stepOnce(fixedDelta)
		w.accumulator -= fixedDelta
		steps++
	}
	// При сильном проседании кадра лишнее время сбрасываем,
	// иначе симуляция начнет раскручивать спираль догоняющих шагов
	if w.accumulator > fixedDelta*float32(w.maxSubSteps) {
		w.accumulator = 0
	}
}

func (w *World) stepOnce(dt float32) {
	for _, b := range w.bodies {
		if b.IsStatic() {
			continue
		}

		// Гравитация и линейное затухание
		b.Velocity = b.Velocity.Add(w.gravity.Mul(b.GravityScale * dt))
		if b.LinearDamping > 0 {
			b.Velocity = b.Velocity.Mul(1.0 - math32.Min(b.LinearDamping*dt, 0.9))
		}

		// Интеграция
		b.Position = b.Position.Add(b.Velocity.Mul(dt))

		// Разрешение контактов против остальных тел
		for _, other := range w.bodies {
			if other == b {
				continue
			}
			w.resolveContact(b, other, dt)
		}
	}
}

// resolveContact выталкивает динамическое тело из пересечения и гасит
// скорость по нормали (отскок) и касательной (трение) согласно таблице
// контактов. Пары материалов без определения не взаимодействуют.
func (w *World) resolveContact(b, other *Body, dt float32) {
	params, ok := w.contacts.Lookup(b.Material, other.Material)
	if !ok {
		return
	}

	var normal mgl32.Vec3
	var penetration float32
	var hit bool

	switch {
	case b.Sphere != nil && other.Mesh != nil:
		normal, penetration, hit = sphereMeshContact(b, other)
	case b.Sphere != nil && other.Sphere != nil:
		normal, penetration, hit = sphereSphereContact(b, other)
	default:
		return
	}
	if !hit {
		return
	}

	// Выталкивание из пересечения
	b.Position = b.Position.Add(normal.Mul(penetration))

	velAlongNormal := b.Velocity.Dot(normal)
	if velAlongNormal >= 0 {
		return
	}

	// Отскок по нормали: медленные соударения гасятся полностью,
	// иначе тело мелко дрожит на поверхности
	restitution := params.Restitution
	if -velAlongNormal < restitutionThreshold {
		restitution = 0
	}
	b.Velocity = b.Velocity.Sub(normal.Mul((1 + restitution) * velAlongNormal))

	// Трение по касательной
	tangentVel := b.Velocity.Sub(normal.Mul(b.Velocity.Dot(normal)))
	speed := tangentVel.Len()
	if speed > 1e-4 {
		drop := params.Friction * frictionRate * dt
		if drop > 1 {
			drop = 1
		}
		b.Velocity = b.Velocity.Sub(tangentVel.Mul(drop))
	}
}

// sphereMeshContact ищет самое глубокое пересечение сферы с треугольной
// сеткой. Возвращает нормаль (от сетки к сфере) и глубину проникновения.
func sphereMeshContact(sphere, mesh *Body) (mgl32.Vec3, float32, bool) {
	radius := sphere.Sphere.Radius
	local := sphere.Position.Sub(mesh.Position)

	// Грубая отсечка по AABB сетки, расширенному на радиус
	min, max := mesh.Mesh.AABB()
	for i := 0; i < 3; i++ {
		if local[i] < min[i]-radius || local[i] > max[i]+radius {
			return mgl32.Vec3{}, 0, false
		}
	}

	bestDepth := float32(-1)
	var bestNormal mgl32.Vec3

	for i := 0; i < mesh.Mesh.TriangleCount(); i++ {
		a, bb, c := mesh.Mesh.Triangle(i)
		closest := closestPointOnTriangle(local, a, bb, c)
		delta := local.Sub(closest)
		distSq := delta.Dot(delta)
		if distSq >= radius*radius {
			continue
		}

		dist := math32.Sqrt(distSq)
		depth := radius - dist

		var n mgl32.Vec3
		if dist > 1e-6 {
			n = delta.Mul(1.0 / dist)
		} else {
			// Центр сферы лежит на треугольнике - берем нормаль грани
			n = c.Sub(a).Cross(bb.Sub(a))
			if l := n.Len(); l > 1e-6 {
				n = n.Mul(1.0 / l)
			} else {
				continue
			}
		}

		if depth > bestDepth {
			bestDepth = depth
			bestNormal = n
		}
	}

	if bestDepth < 0 {
		return mgl32.Vec3{}, 0, false
	}
	return bestNormal, bestDepth, true
}

func sphereSphereContact(b, other *Body) (mgl32.Vec3, float32, bool) {
	delta := b.Position.Sub(other.Position)
	distSq := delta.Dot(delta)
	sum := b.Sphere.Radius + other.Sphere.Radius
	if distSq >= sum*sum {
		return mgl32.Vec3{}, 0, false
	}

	dist := math32.Sqrt(distSq)
	if dist < 1e-6 {
		return mgl32.Vec3{0, 1, 0}, sum, true
	}
	return delta.Mul(1.0 / dist), sum - dist, true
}

// closestPointOnTriangle возвращает ближайшую к p точку треугольника abc
func closestPointOnTriangle(p, a, b, c mgl32.Vec3) mgl32.Vec3 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Mul(v))
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Mul(w))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(w))
	}

	denom := 1.0 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w))
}
