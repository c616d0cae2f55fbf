package player

import (
	"log"
	"sync"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"x-runner/internal/debug"
	"x-runner/internal/physics"
	"x-runner/internal/rig"
)

// Config - параметры контроллера игрока. Проверяется один раз при
// создании; значения по умолчанию см. DefaultConfig.
type Config struct {
	SpawnPoint mgl32.Vec3
	BaseRadius float32
	Mass       float32

	MoveForce     float32
	JumpSpeed     float32
	DeathY        float32
	LinearDamping float32

	// Рост
	GrowthMultiplier float32
	MaxScaleFactor   float32

	// Разгонный буст: множитель силы, пока горизонтальная скорость
	// ниже порога
	StartBoost      float32
	StartBoostBelow float32

	// Управление в воздухе
	AirControl   float32
	AirFastSpeed float32

	// Активное торможение на земле без ввода
	BrakeThreshold float32
	BrakeStrength  float32

	// Запас длины лучей чувства земли сверх радиуса
	GroundProbeMargin float32
}

// DefaultConfig возвращает настройки контроллера по умолчанию
func DefaultConfig() Config {
	return Config{
		SpawnPoint:        mgl32.Vec3{0, 12, 0},
		BaseRadius:        1.0,
		Mass:              10.0,
		MoveForce:         420.0,
		JumpSpeed:         11.0,
		DeathY:            -40.0,
		LinearDamping:     0.3,
		GrowthMultiplier:  1.5,
		MaxScaleFactor:    4.0,
		StartBoost:        2.0,
		StartBoostBelow:   1.5,
		AirControl:        0.3,
		AirFastSpeed:      7.0,
		BrakeThreshold:    0.4,
		BrakeStrength:     6.0,
		GroundProbeMargin: 0.35,
	}
}

func (c Config) validate() error {
	if c.BaseRadius <= 0 || c.Mass <= 0 || c.JumpSpeed <= 0 || c.MoveForce <= 0 {
		return errors.Errorf("некорректная конфигурация контроллера: %+v", c)
	}
	if c.GrowthMultiplier <= 1 || c.MaxScaleFactor < 1 {
		return errors.New("параметры роста должны быть > 1")
	}
	return nil
}

// InputState - снимок удерживаемого ввода. Пишется горутиной
// транспорта, читается кадровым циклом.
type InputState struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
	JumpHeld bool
}

// Events - интерфейс для уведомления внешнего мира (транспорта)
// о событиях игрока
type Events interface {
	PlayerDied()
	PlayerRespawned()
	GrowthChanged(factor float32)
}

// Направления пяти лучей чувства земли: один вертикальный и четыре
// под ~45° наружу
var groundProbeDirs = []mgl32.Vec3{
	{0, -1, 0},
	{0.7071, -0.7071, 0},
	{-0.7071, -0.7071, 0},
	{0, -0.7071, 0.7071},
	{0, -0.7071, -0.7071},
}

// Controller владеет динамическим телом игрока, чувством земли,
// силовой моделью движения, жизненным циклом прыжка и смерти,
// ростом и орбитальной камерой.
type Controller struct {
	cfg    Config
	world  *physics.World
	body   *physics.Body
	anim   *rig.Animator
	camera *OrbitCamera
	events Events
	dbg    debug.Context

	inputMu       sync.Mutex
	input         InputState
	inputEnabled  bool
	respawnQueued bool

	speedMultiplier float32

	isGrounded   bool
	isJumping    bool
	canJump      bool
	jumpStart    float64
	prevJumpHeld bool

	growth GrowthState
	isDead bool

	targetYaw  float32
	moveIntent bool
}

// NewController создает контроллер, тело игрока и камеру.
// Тело добавляется в мир немедленно.
func NewController(cfg Config, w *physics.World, anim *rig.Animator, events Events, dbg debug.Context) (*Controller, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if dbg == nil {
		dbg = debug.Nop()
	}

	body := physics.NewSphereBody(
		"player_"+uuid.New().String(),
		cfg.SpawnPoint,
		cfg.BaseRadius,
		cfg.Mass,
		physics.MaterialDynamic,
	)
	body.LinearDamping = cfg.LinearDamping
	if err := w.AddBody(body); err != nil {
		return nil, errors.Wrap(err, "тело игрока")
	}

	c := &Controller{
		cfg:             cfg,
		world:           w,
		body:            body,
		anim:            anim,
		events:          events,
		dbg:             dbg,
		speedMultiplier: 1.0,
		canJump:         true,
	}
	c.growth.reset()
	c.camera = NewOrbitCamera(w, body)
	return c, nil
}

// SetInput обновляет снимок ввода (из горутины транспорта)
func (c *Controller) SetInput(in InputState) {
	c.inputMu.Lock()
	defer c.inputMu.Unlock()
	c.input = in
}

// EnableInput включает обработку ввода (старт сессии или возрождение)
func (c *Controller) EnableInput() {
	c.inputMu.Lock()
	defer c.inputMu.Unlock()
	c.inputEnabled = true
}

// RequestRespawn откладывает возрождение до следующего кадра.
// Горутина транспорта не трогает тело напрямую: заявка потребляется
// кадровым циклом и игнорируется, если игрок жив.
func (c *Controller) RequestRespawn() {
	c.inputMu.Lock()
	defer c.inputMu.Unlock()
	c.respawnQueued = true
}

// InputEnabled сообщает, обрабатывается ли ввод
func (c *Controller) InputEnabled() bool {
	c.inputMu.Lock()
	defer c.inputMu.Unlock()
	return c.inputEnabled
}

// SetSpeedMultiplier применяет внешний множитель скорости из данных
// сессии (по умолчанию 1)
func (c *Controller) SetSpeedMultiplier(m float32) {
	if m <= 0 {
		m = 1
	}
	c.speedMultiplier = m
}

// SpeedMultiplier возвращает внешний множитель скорости
func (c *Controller) SpeedMultiplier() float32 {
	return c.speedMultiplier
}

// Body возвращает физическое тело игрока
func (c *Controller) Body() *physics.Body {
	return c.body
}

// Camera возвращает орбитальную камеру
func (c *Controller) Camera() *OrbitCamera {
	return c.camera
}

// Position возвращает позицию тела игрока
func (c *Controller) Position() mgl32.Vec3 {
	return c.body.Position
}

// Radius возвращает текущий радиус коллизии
func (c *Controller) Radius() float32 {
	return c.body.Radius()
}

// ScaleFactor возвращает текущий фактор роста
func (c *Controller) ScaleFactor() float32 {
	return c.growth.Factor()
}

// IsDead сообщает, мертв ли игрок
func (c *Controller) IsDead() bool {
	return c.isDead
}

// IsGrounded сообщает о контакте с землей на последнем кадре
func (c *Controller) IsGrounded() bool {
	return c.isGrounded
}

// Frame собирает снимок для аниматора
func (c *Controller) Frame(now float64) rig.Frame {
	elapsed := 0.0
	if c.isJumping {
		elapsed = now - c.jumpStart
	}
	return rig.Frame{
		IsJumping:   c.isJumping,
		JumpElapsed: elapsed,
		MoveIntent:  c.moveIntent,
		TargetYaw:   c.targetYaw,
	}
}

// Update - один кадр контроллера: чувство земли, прыжок, силы
// движения, проверка смерти, камера
func (c *Controller) Update(now, dt float64) error {
	c.inputMu.Lock()
	in := c.input
	enabled := c.inputEnabled
	respawn := c.respawnQueued
	c.respawnQueued = false
	c.inputMu.Unlock()

	if c.isDead {
		if respawn {
			c.Respawn()
		}
		return nil
	}

	c.senseGround()

	if enabled {
		c.updateJump(in, now)
		c.applyMovement(in, float32(dt))
	} else {
		c.moveIntent = false
	}
	c.prevJumpHeld = in.JumpHeld

	// Смерть при падении за порог; срабатывает ровно один раз
	if c.body.Position.Y() < c.cfg.DeathY && !c.isDead {
		c.die()
		return nil
	}

	c.camera.Update(c.body.Position, c.growth.Factor(), float32(dt))
	return nil
}

// senseGround пускает пучок из пяти коротких лучей вниз. Земля - если
// попал хотя бы один (монотонное ИЛИ, порядок лучей не важен).
func (c *Controller) senseGround() {
	length := c.body.Radius() + c.cfg.GroundProbeMargin
	origin := c.body.Position

	hits := 0
	for _, dir := range groundProbeDirs {
		_, ok := c.world.RayCast(origin, dir, length, func(b *physics.Body) bool {
			return b != c.body
		})
		if ok {
			hits++
		}
	}
	grounded := hits > 0

	if c.dbg.Enabled() && grounded != c.isGrounded {
		c.dbg.Logf("чувство земли: %v (лучей попало %d)", grounded, hits)
	}

	// Переход воздух -> земля при активном прыжке завершает прыжок
	if grounded && !c.isGrounded && c.isJumping {
		c.isJumping = false
	}
	// На земле готовность к прыжку перевзводится всегда: защита от
	// вечной блокировки прыжка в краевых случаях
	if grounded {
		c.canJump = true
	}

	c.isGrounded = grounded
}

// updateJump обрабатывает дискретный фронт кнопки прыжка. Удержание
// кнопки не порождает повторных прыжков.
func (c *Controller) updateJump(in InputState, now float64) {
	pressed := in.JumpHeld && !c.prevJumpHeld
	if !pressed || !c.isGrounded || !c.canJump {
		return
	}

	v := c.body.Velocity
	c.body.Velocity = mgl32.Vec3{v.X(), c.cfg.JumpSpeed, v.Z()}
	c.isJumping = true
	c.jumpStart = now
	c.canJump = false

	c.dbg.Logf("прыжок в t=%.2f из (%.1f, %.1f, %.1f)", now,
		c.body.Position.X(), c.body.Position.Y(), c.body.Position.Z())
}

// forceScale - кривая масштабирования силы от размера: крупный
// персонаж толкает сильнее, не становясь пропорционально медленнее
func (c *Controller) forceScale() float32 {
	return math32.Pow(1.4, math32.Log2(c.growth.Factor()))
}

// applyMovement - силовая модель движения: направление относительно
// осей персонажа, величина с учетом внешнего
// множителя, кривой размера и разгонного буста; в воздухе сила
// ослабляется и корректируется по сонаправленности со скоростью
func (c *Controller) applyMovement(in InputState, dt float32) {
	ix := float32(0)
	iz := float32(0)
	if in.Left {
		ix--
	}
	if in.Right {
		ix++
	}
	if in.Forward {
		iz++
	}
	if in.Backward {
		iz--
	}

	horizontal := mgl32.Vec3{c.body.Velocity.X(), 0, c.body.Velocity.Z()}
	speed := horizontal.Len()

	if ix == 0 && iz == 0 {
		c.moveIntent = false
		c.applyBraking(horizontal, speed, dt)
		return
	}
	c.moveIntent = true

	// Желаемое направление в мире: ввод, развернутый углом камеры
	camYaw := c.camera.Yaw()
	sin, cos := math32.Sin(camYaw), math32.Cos(camYaw)
	desired := mgl32.Vec3{
		iz*sin + ix*cos,
		0,
		iz*cos - ix*sin,
	}.Normalize()
	c.targetYaw = math32.Atan2(desired.X(), desired.Z())

	// Сила прикладывается вдоль текущих осей персонажа (yaw скелета),
	// а не сырых осей камеры: персонаж доворачивается, сила следует
	yaw := c.anim.Yaw()
	dir := mgl32.Vec3{math32.Sin(yaw), 0, math32.Cos(yaw)}

	force := c.cfg.MoveForce * c.speedMultiplier * c.forceScale()
	if speed < c.cfg.StartBoostBelow {
		force *= c.cfg.StartBoost
	}

	if !c.isGrounded {
		force *= c.cfg.AirControl

		if speed > c.cfg.AirFastSpeed {
			align := horizontal.Mul(1.0 / speed).Dot(dir)
			if align > 0.7 {
				// Уже быстро летим туда же - не разгоняем дальше
				force *= 0.25
			} else if align < 0.2 {
				// Смена направления - сохраняем маневренность
				force *= 1.6
			}
		}
	}

	c.body.ApplyForce(dir.Mul(force), dt)
}

// applyBraking - активное торможение на земле без ввода: сила против
// горизонтальной скорости с той же кривой размера, останавливающая
// тело за короткое, не зависящее от размера число кадров
func (c *Controller) applyBraking(horizontal mgl32.Vec3, speed, dt float32) {
	if !c.isGrounded || speed <= c.cfg.BrakeThreshold {
		return
	}

	brake := horizontal.Mul(-1.0 / speed).Mul(
		c.cfg.MoveForce * c.cfg.BrakeStrength * c.forceScale() * dt / c.cfg.Mass)

	// Торможение не должно развернуть тело назад
	if brake.Len() >= speed {
		c.body.Velocity = mgl32.Vec3{0, c.body.Velocity.Y(), 0}
		return
	}
	c.body.Velocity = c.body.Velocity.Add(brake)
}

// Grow применяет событие поедания предмета: радиус коллизии, фактор
// роста скелета и дистанция камеры меняются из одного места
func (c *Controller) Grow() float32 {
	factor := c.growth.grow(c.cfg.GrowthMultiplier, c.cfg.MaxScaleFactor)

	c.body.SetRadius(c.cfg.BaseRadius * factor)
	c.anim.SetScaleFactor(factor)

	if c.events != nil {
		c.events.GrowthChanged(factor)
	}
	log.Printf("[Player] Рост: фактор %.2f, радиус %.2f", factor, c.body.Radius())
	return factor
}

// die переводит игрока в терминальное состояние до явного возрождения
func (c *Controller) die() {
	c.isDead = true
	c.body.Velocity = mgl32.Vec3{}

	c.inputMu.Lock()
	c.inputEnabled = false
	c.input = InputState{}
	c.inputMu.Unlock()

	log.Printf("[Player] Смерть на y=%.1f", c.body.Position.Y())
	if c.events != nil {
		c.events.PlayerDied()
	}
}

// Die принудительно убивает игрока (для проверок и отладки)
func (c *Controller) Die() {
	if !c.isDead {
		c.die()
	}
}

// Respawn возвращает игрока в точку возрождения: позиция, скорость,
// радиус и фактор роста сбрасываются к исходным, ввод перевзводится
func (c *Controller) Respawn() {
	c.body.Position = c.cfg.SpawnPoint
	c.body.Velocity = mgl32.Vec3{}
	c.growth.reset()
	c.body.SetRadius(c.cfg.BaseRadius)
	c.anim.SetScaleFactor(1)

	c.isDead = false
	c.isJumping = false
	c.canJump = true

	c.inputMu.Lock()
	c.inputEnabled = true
	c.inputMu.Unlock()

	log.Printf("[Player] Возрождение в (%.1f, %.1f, %.1f)",
		c.cfg.SpawnPoint.X(), c.cfg.SpawnPoint.Y(), c.cfg.SpawnPoint.Z())
	if c.events != nil {
		c.events.PlayerRespawned()
	}
}
