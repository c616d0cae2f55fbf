package physics

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// RayHit - результат попадания луча в тело
type RayHit struct {
	Body     *Body
	Point    mgl32.Vec3
	Normal   mgl32.Vec3
	Distance float32
}

// RayFilter решает, участвует ли тело в конкретном raycast.
// nil-фильтр означает "все тела".
type RayFilter func(*Body) bool

// RayCast пускает луч из origin в направлении dir (нормализуется внутри)
// на дистанцию maxDist и возвращает ближайшее попадание среди тел,
// прошедших фильтр.
func (w *World) RayCast(origin, dir mgl32.Vec3, maxDist float32, filter RayFilter) (RayHit, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if l := dir.Len(); l > 1e-6 {
		dir = dir.Mul(1.0 / l)
	} else {
		return RayHit{}, false
	}

	best := RayHit{Distance: maxDist}
	found := false

	for _, b := range w.bodies {
		if filter != nil && !filter(b) {
			continue
		}

		var t float32
		var n mgl32.Vec3
		var ok bool
		switch {
		case b.Mesh != nil:
			t, n, ok = rayMesh(origin.Sub(b.Position), dir, b.Mesh, best.Distance)
		case b.Sphere != nil:
			t, ok = raySphere(origin, dir, b.Position, b.Sphere.Radius)
			if ok {
				n = origin.Add(dir.Mul(t)).Sub(b.Position).Normalize()
			}
		}
		if !ok || t >= best.Distance {
			continue
		}

		best = RayHit{
			Body:     b,
			Point:    origin.Add(dir.Mul(t)),
			Normal:   n,
			Distance: t,
		}
		found = true
	}

	return best, found
}

// rayMesh ищет ближайшее пересечение луча с треугольниками сетки.
// Луч уже переведен в локальное пространство тела.
func rayMesh(origin, dir mgl32.Vec3, mesh *Trimesh, maxDist float32) (float32, mgl32.Vec3, bool) {
	if !rayAABB(origin, dir, mesh.aabbMin, mesh.aabbMax, maxDist) {
		return 0, mgl32.Vec3{}, false
	}

	best := maxDist
	var bestNormal mgl32.Vec3
	found := false

	for i := 0; i < mesh.TriangleCount(); i++ {
		a, b, c := mesh.Triangle(i)
		t, ok := rayTriangle(origin, dir, a, b, c)
		if !ok || t >= best {
			continue
		}
		n := b.Sub(a).Cross(c.Sub(a))
		if l := n.Len(); l > 1e-6 {
			n = n.Mul(1.0 / l)
			// Нормаль всегда навстречу лучу
			if n.Dot(dir) > 0 {
				n = n.Mul(-1)
			}
		}
		best = t
		bestNormal = n
		found = true
	}

	return best, bestNormal, found
}

// rayTriangle - пересечение луча с треугольником (Moller-Trumbore)
func rayTriangle(origin, dir, a, b, c mgl32.Vec3) (float32, bool) {
	const epsilon = 1e-7

	edge1 := b.Sub(a)
	edge2 := c.Sub(a)
	h := dir.Cross(edge2)
	det := edge1.Dot(h)
	if det > -epsilon && det < epsilon {
		return 0, false
	}

	invDet := 1.0 / det
	s := origin.Sub(a)
	u := s.Dot(h) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := edge2.Dot(q) * invDet
	if t <= epsilon {
		return 0, false
	}
	return t, true
}

// raySphere - пересечение луча со сферой, возвращает ближайший корень
func raySphere(origin, dir, center mgl32.Vec3, radius float32) (float32, bool) {
	oc := origin.Sub(center)
	b := oc.Dot(dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}

	sq := math32.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}

// rayAABB - грубая проверка пересечения луча с ограничивающим объемом
func rayAABB(origin, dir, min, max mgl32.Vec3, maxDist float32) bool {
	tMin := float32(0)
	tMax := maxDist

	for i := 0; i < 3; i++ {
		if math32.Abs(dir[i]) < 1e-7 {
			if origin[i] < min[i] || origin[i] > max[i] {
				return false
			}
			continue
		}
		inv := 1.0 / dir[i]
		t1 := (min[i] - origin[i]) * inv
		t2 := (max[i] - origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return false
		}
	}
	return true
}
