package player

import (
	"sync"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"x-runner/internal/physics"
)

const (
	cameraBaseDistance = 9.0
	cameraMinDistance  = 2.5
	cameraClearance    = 0.6
	cameraAnchorHeight = 1.2
	cameraEaseRate     = 12.0 // скорость экспоненциального сглаживания дистанции

	cameraMinPitch = -0.2
	cameraMaxPitch = 1.35
)

// CameraLockState - явная двухсостоянийная машина захвата камеры.
// Углы принимаются только в захваченном состоянии: случайные движения
// мыши вне захвата не крутят камеру.
type CameraLockState int

const (
	CameraUnlocked CameraLockState = iota
	CameraLocked
)

func (s CameraLockState) String() string {
	if s == CameraLocked {
		return "locked"
	}
	return "unlocked"
}

// OrbitCamera - орбитальная камера третьего лица: углы от захваченного
// ввода, дистанция от фактора роста с проверкой заслона лучом.
type OrbitCamera struct {
	world *physics.World
	owner *physics.Body

	mu    sync.Mutex
	state CameraLockState
	yaw   float32
	pitch float32

	// Текущая сглаженная дистанция; стремится к желаемой
	distance float32
}

// NewOrbitCamera создает камеру за телом владельца
func NewOrbitCamera(w *physics.World, owner *physics.Body) *OrbitCamera {
	return &OrbitCamera{
		world:    w,
		owner:    owner,
		pitch:    0.45,
		distance: cameraBaseDistance,
	}
}

// Engage переводит камеру в захваченное состояние (pointer lock получен)
func (c *OrbitCamera) Engage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = CameraLocked
}

// Release снимает захват; углы замораживаются до следующего Engage
func (c *OrbitCamera) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = CameraUnlocked
}

// LockState возвращает текущее состояние захвата
func (c *OrbitCamera) LockState() CameraLockState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetAngles принимает углы орбиты из ввода. Вне захвата вызов
// игнорируется целиком.
func (c *OrbitCamera) SetAngles(yaw, pitch float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CameraLocked {
		return
	}

	for yaw > math32.Pi {
		yaw -= 2 * math32.Pi
	}
	for yaw < -math32.Pi {
		yaw += 2 * math32.Pi
	}
	c.yaw = yaw

	if pitch < cameraMinPitch {
		pitch = cameraMinPitch
	} else if pitch > cameraMaxPitch {
		pitch = cameraMaxPitch
	}
	c.pitch = pitch
}

// Yaw возвращает текущий угол орбиты вокруг вертикали
func (c *OrbitCamera) Yaw() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.yaw
}

// Pitch возвращает текущий угол возвышения
func (c *OrbitCamera) Pitch() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pitch
}

// Distance возвращает текущую сглаженную дистанцию
func (c *OrbitCamera) Distance() float32 {
	return c.distance
}

// anchor - точка над головой персонажа, от которой меряется заслон
func (c *OrbitCamera) anchor(target mgl32.Vec3, scale float32) mgl32.Vec3 {
	return target.Add(mgl32.Vec3{0, cameraAnchorHeight * scale, 0})
}

// offsetDir - единичное направление от якоря к камере по текущим углам
func (c *OrbitCamera) offsetDir() mgl32.Vec3 {
	c.mu.Lock()
	yaw, pitch := c.yaw, c.pitch
	c.mu.Unlock()

	cp := math32.Cos(pitch)
	return mgl32.Vec3{
		-math32.Sin(yaw) * cp,
		math32.Sin(pitch),
		-math32.Cos(yaw) * cp,
	}
}

// Update пересчитывает дистанцию камеры: желаемая растет с фактором
// роста, заслон статической геометрией подтягивает камеру ближе с
// зазором, итог сглаживается экспоненциально
func (c *OrbitCamera) Update(target mgl32.Vec3, scale, dt float32) {
	desired := cameraBaseDistance * (1 + (scale-1)*0.6)

	origin := c.anchor(target, scale)
	dir := c.offsetDir()

	// Заслоняют только статические непрозрачные для камеры тела:
	// сам игрок, предметы и декорации луч не останавливают
	hit, ok := c.world.RayCast(origin, dir, desired, func(b *physics.Body) bool {
		return b.IsStatic() && !b.CameraTransparent
	})
	if ok {
		d := hit.Distance - cameraClearance
		if d < cameraMinDistance {
			d = cameraMinDistance
		}
		if d < desired {
			desired = d
		}
	}

	// Экспоненциальное сглаживание: резкие скачки заслона не дергают
	// камеру, при dt -> большое сходится к цели
	t := 1 - math32.Exp(-cameraEaseRate*dt)
	c.distance += (desired - c.distance) * t
}

// Position возвращает мировую позицию камеры для текущего кадра
func (c *OrbitCamera) Position(target mgl32.Vec3, scale float32) mgl32.Vec3 {
	return c.anchor(target, scale).Add(c.offsetDir().Mul(c.distance))
}
