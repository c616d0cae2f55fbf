package physics

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Body - твердое тело в симуляции. Масса 0 означает статичное тело
// (террейн), масса > 0 - динамическое. Вращение игрока заблокировано:
// сферы в этом мире не вращаются, ориентация статичных тел фиксирована.
type Body struct {
	ID       string
	Position mgl32.Vec3
	Velocity mgl32.Vec3
	Mass     float32
	Material string

	// Форма коллизии: ровно одно из полей заполнено
	Sphere *Sphere
	Mesh   *Trimesh

	// CameraTransparent исключает тело из raycast камеры (декоративные
	// объекты с физическим объемом, через которые камера видит насквозь)
	CameraTransparent bool

	// Decorative исключает тело из raycast размещения предметов:
	// спавн идет только по поверхностям террейна
	Decorative bool

	GravityScale  float32
	LinearDamping float32
}

// NewSphereBody создает динамическое (или статичное при mass=0) сферическое тело
func NewSphereBody(id string, position mgl32.Vec3, radius, mass float32, material string) *Body {
	return &Body{
		ID:           id,
		Position:     position,
		Mass:         mass,
		Material:     material,
		Sphere:       &Sphere{Radius: radius},
		GravityScale: 1.0,
	}
}

// NewMeshBody создает статичное тело с треугольной сеткой
func NewMeshBody(id string, position mgl32.Vec3, mesh *Trimesh, material string) *Body {
	return &Body{
		ID:       id,
		Position: position,
		Mass:     0,
		Material: material,
		Mesh:     mesh,
	}
}

// IsStatic сообщает, является ли тело неподвижным
func (b *Body) IsStatic() bool {
	return b.Mass == 0
}

// ApplyForce применяет силу на интервале dt
func (b *Body) ApplyForce(force mgl32.Vec3, dt float32) {
	if b.IsStatic() {
		return
	}
	b.Velocity = b.Velocity.Add(force.Mul(dt / b.Mass))
}

// SetRadius изменяет радиус сферы тела (механика роста).
// Для тел без сферической формы вызов игнорируется.
func (b *Body) SetRadius(radius float32) {
	if b.Sphere != nil {
		b.Sphere.Radius = radius
	}
}

// Radius возвращает радиус сферы тела (0 для сеток)
func (b *Body) Radius() float32 {
	if b.Sphere != nil {
		return b.Sphere.Radius
	}
	return 0
}
