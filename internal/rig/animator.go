package rig

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// State - состояние анимации. Выводится из состояния игрока каждый
// кадр и нигде не хранится независимо.
type State int

const (
	StateStand State = iota
	StateWalk
	StateRun
	StateJump
)

func (s State) String() string {
	switch s {
	case StateStand:
		return "stand"
	case StateWalk:
		return "walk"
	case StateRun:
		return "run"
	case StateJump:
		return "jump"
	}
	return "unknown"
}

// SelectState - детерминированный выбор состояния анимации.
// StateWalk существует как поза, но текущая схема ввода никогда его не
// выбирает: модификатора медленного шага нет, любое намерение движения
// дает бег. Поза сохранена определением, не достижимым состоянием.
func SelectState(isJumping, moveIntent bool) State {
	if isJumping {
		return StateJump
	}
	if moveIntent {
		return StateRun
	}
	return StateStand
}

const (
	// Фаза разгона прыжка
	takeoffDuration = 0.3
	// Длительность приседания при приземлении
	landingSquashDuration = 0.18

	standArmTilt = math32.Pi / 6 // A-поза: руки на 30° ниже горизонтали

	runLegAmplitude = 0.9 // радианы
	runArmAmplitude = 0.5
	runCycleSpeed   = 9.0 // рад/с
	runTorsoLean    = 0.18
	runBounceBase   = 0.14

	idleHeadYawAmp    = 0.07
	idleTorsoPitchAmp = 0.035

	// Скорость доворота к направлению движения
	turnSpeed = 10.0 // рад/с
)

type effectKind int

const (
	effectNone effectKind = iota
	effectLandingSquash
	effectGrowthFlourish
)

// Длительность косметического всплеска при росте
const growthFlourishDuration = 0.25

// timedEffect - запись временного эффекта {начало, длительность, вид}.
// Вычисляется каждый кадр в Update, а не по отдельному таймеру: исход
// эффекта детерминирован относительно кадрового цикла, и новый эффект
// просто перезаписывает прежний.
type timedEffect struct {
	kind     effectKind
	start    float64
	duration float64
}

func (e timedEffect) activeAt(now float64) bool {
	return e.kind != effectNone && now < e.start+e.duration
}

// Frame - снимок состояния игрока, по которому аниматор выбирает позу
type Frame struct {
	IsJumping   bool
	JumpElapsed float64 // секунды с начала прыжка
	MoveIntent  bool
	TargetYaw   float32 // желаемое направление (камерно-относительное)
}

// Animator обновляет узлы скелета каждый кадр: выбор состояния, позы,
// временные эффекты и контракт масштаба.
type Animator struct {
	rig   *Rig
	state State

	// Текущий фактор роста. Хранится отдельно от временных эффектов
	// прыжка: рост и squash/stretch перемножаются и всегда
	// сходятся обратно к baseScale * scaleFactor.
	scaleFactor float32

	effect     timedEffect
	runPhase   float32
	wasJumping bool
	lastFactor float32

	// Вертикальный офсет подпрыгивания. Не применяется к скелету
	// напрямую: его прибавляет владелец при обновлении позиции,
	// чтобы комбинировать с прижатой к земле высотой.
	bounce float32
}

// NewAnimator создает аниматор для скелета
func NewAnimator(r *Rig) *Animator {
	return &Animator{
		rig:         r,
		scaleFactor: 1.0,
		lastFactor:  1.0,
	}
}

// State возвращает состояние анимации последнего кадра
func (a *Animator) State() State {
	return a.state
}

// SetScaleFactor принимает новый фактор роста от контроллера
func (a *Animator) SetScaleFactor(s float32) {
	if s < 1 {
		s = 1
	}
	a.scaleFactor = s
}

// ScaleFactor возвращает текущий фактор роста
func (a *Animator) ScaleFactor() float32 {
	return a.scaleFactor
}

// ResolvedScale - масштаб персонажа без временных эффектов:
// ровно baseScale * scaleFactor
func (a *Animator) ResolvedScale() float32 {
	return a.rig.baseScale * a.scaleFactor
}

// BounceOffset возвращает вертикальный офсет подпрыгивания текущего кадра
func (a *Animator) BounceOffset() float32 {
	return a.bounce
}

// Yaw возвращает текущий поворот персонажа
func (a *Animator) Yaw() float32 {
	return a.rig.Root.Rotation.Y()
}

// Update пересчитывает позу скелета. now и dt в секундах.
func (a *Animator) Update(now, dt float64, frame Frame) {
	a.state = SelectState(frame.IsJumping, frame.MoveIntent)

	if frame.MoveIntent {
		a.rotateTowards(frame.TargetYaw, float32(dt))
	}

	// Рост с прошлого кадра - косметический всплеск. Чисто
	// визуальный и самозавершающийся, на геймплей не влияет.
	if a.scaleFactor > a.lastFactor {
		a.effect = timedEffect{kind: effectGrowthFlourish, start: now, duration: growthFlourishDuration}
	}
	a.lastFactor = a.scaleFactor

	// Переход прыжок -> земля: запланировать приседание приземления
	if a.wasJumping && !frame.IsJumping {
		a.effect = timedEffect{kind: effectLandingSquash, start: now, duration: landingSquashDuration}
	}
	a.wasJumping = frame.IsJumping

	a.bounce = 0

	switch a.state {
	case StateJump:
		a.applyJump(frame.JumpElapsed)
		return
	case StateRun:
		a.applyRun(float32(dt))
	default:
		a.applyStand(now)
	}

	// Временные эффекты поверх позы. Истекший эффект разрешается в
	// точный исходный масштаб с учетом роста.
	if a.effect.activeAt(now) {
		switch a.effect.kind {
		case effectLandingSquash:
			a.applyLandingSquash()
		case effectGrowthFlourish:
			a.applyGrowthFlourish(now)
		}
	} else if a.effect.kind != effectNone {
		a.effect = timedEffect{}
		a.setScale(1, 1, 1)
	}
}

// ApplyPose принудительно применяет позу состояния (включая walk,
// недостижимый через SelectState). Используется для проверки поз.
func (a *Animator) ApplyPose(s State, now float64) {
	a.state = s
	switch s {
	case StateStand:
		a.applyStand(now)
	case StateWalk:
		a.applyWalk()
	case StateRun:
		a.applyRun(1.0 / 60.0)
	case StateJump:
		a.applyJump(0)
	}
}

// rotateTowards плавно доворачивает yaw к цели по кратчайшей дуге
// с заворотом на ±π, без мгновенного скачка
func (a *Animator) rotateTowards(target, dt float32) {
	current := a.rig.Root.Rotation.Y()

	delta := target - current
	for delta > math32.Pi {
		delta -= 2 * math32.Pi
	}
	for delta < -math32.Pi {
		delta += 2 * math32.Pi
	}

	maxStep := turnSpeed * dt
	if delta > maxStep {
		delta = maxStep
	} else if delta < -maxStep {
		delta = -maxStep
	}

	yaw := current + delta
	for yaw > math32.Pi {
		yaw -= 2 * math32.Pi
	}
	for yaw < -math32.Pi {
		yaw += 2 * math32.Pi
	}
	a.rig.Root.Rotation[1] = yaw
}

// setScale выставляет масштаб корня относительно исходного масштаба
// и текущего фактора роста. Абсолютной записи масштаба нет нигде:
// рост и squash/stretch всегда комбинируются умножением.
func (a *Animator) setScale(mx, my, mz float32) {
	resolved := a.ResolvedScale()
	a.rig.Root.Scale = mgl32.Vec3{resolved * mx, resolved * my, resolved * mz}
}

// applyStand - A-поза с медленным покачиванием. Покачивание чисто
// временное и не зависит от прочих состояний.
func (a *Animator) applyStand(now float64) {
	r := a.rig
	armAngle := math32.Pi/2 - standArmTilt

	r.ArmL.Rotation = mgl32.Vec3{0, 0, armAngle}
	r.ArmR.Rotation = mgl32.Vec3{0, 0, -armAngle}
	r.LegL.Rotation = mgl32.Vec3{}
	r.LegR.Rotation = mgl32.Vec3{}

	t := float32(now)
	r.Head.Rotation = mgl32.Vec3{0, idleHeadYawAmp * math32.Sin(t*1.1), 0}
	r.Torso.Rotation = mgl32.Vec3{idleTorsoPitchAmp * math32.Sin(t*0.9), 0, 0}

	a.setScale(1, 1, 1)
}

// applyWalk - медленный шаг: половинная амплитуда бега, без наклона
// торса. Поза определена для полноты, см. SelectState.
func (a *Animator) applyWalk() {
	r := a.rig
	swing := runLegAmplitude * 0.4 * math32.Sin(a.runPhase)
	armAngle := math32.Pi/2 - standArmTilt

	r.LegL.Rotation = mgl32.Vec3{swing, 0, 0}
	r.LegR.Rotation = mgl32.Vec3{-swing, 0, 0}
	r.ArmL.Rotation = mgl32.Vec3{-swing * 0.5, 0, armAngle}
	r.ArmR.Rotation = mgl32.Vec3{swing * 0.5, 0, -armAngle}
	r.Torso.Rotation = mgl32.Vec3{}
	r.Head.Rotation = mgl32.Vec3{}

	a.setScale(1, 1, 1)
}

// applyRun - беговой цикл: ноги в противофазе, руки в контрфазе к
// противоположной ноге с сохранением базового угла A-позы, легкий
// наклон торса вперед
func (a *Animator) applyRun(dt float32) {
	r := a.rig
	a.runPhase += runCycleSpeed * dt

	swing := runLegAmplitude * math32.Sin(a.runPhase)
	armSwing := runArmAmplitude * math32.Sin(a.runPhase)
	armAngle := math32.Pi/2 - standArmTilt

	r.LegL.Rotation = mgl32.Vec3{swing, 0, 0}
	r.LegR.Rotation = mgl32.Vec3{-swing, 0, 0}

	// Рука машет в противофазе к одноименной ноге
	r.ArmL.Rotation = mgl32.Vec3{-armSwing, 0, armAngle}
	r.ArmR.Rotation = mgl32.Vec3{armSwing, 0, -armAngle}

	r.Torso.Rotation = mgl32.Vec3{runTorsoLean, 0, 0}
	r.Head.Rotation = mgl32.Vec3{}

	// Подпрыгивание отдает владелец позиции, не скелет
	a.bounce = runBounceBase * a.rig.params.Blobbiness * math32.Abs(math32.Sin(a.runPhase))

	a.setScale(1, 1, 1)
}

// applyJump - две подфазы по времени прыжка: разгон (первые ~300мс,
// пропорциональное приседание и подъем рук) и полет (фиксированная
// вытянутая поза до приземления)
func (a *Animator) applyJump(elapsed float64) {
	r := a.rig
	blob := a.rig.params.Blobbiness

	if elapsed < takeoffDuration {
		f := float32(elapsed / takeoffDuration)

		// Ноги постепенно уходят в фиксированный беговой разлет
		split := runLegAmplitude * 0.7 * f
		r.LegL.Rotation = mgl32.Vec3{split, 0, 0}
		r.LegR.Rotation = mgl32.Vec3{-split, 0, 0}

		// Руки поднимаются по синусному сглаживанию
		raise := math32.Sin(f * math32.Pi / 2)
		armAngle := math32.Pi/2 - standArmTilt - raise*math32.Pi/3
		r.ArmL.Rotation = mgl32.Vec3{0, 0, armAngle}
		r.ArmR.Rotation = mgl32.Vec3{0, 0, -armAngle}

		// Приседание: шире и ниже, строго относительно исходного
		// масштаба и текущего фактора роста
		a.setScale(1+0.25*blob*f, 1-0.2*blob*f, 1+0.25*blob*f)
		return
	}

	// Полет: фиксированная вытянутая поза без временной зависимости
	r.LegL.Rotation = mgl32.Vec3{runLegAmplitude * 0.7, 0, 0}
	r.LegR.Rotation = mgl32.Vec3{-runLegAmplitude * 0.7, 0, 0}

	armAngle := math32.Pi/2 - standArmTilt - math32.Pi/3
	r.ArmL.Rotation = mgl32.Vec3{0, 0, armAngle}
	r.ArmR.Rotation = mgl32.Vec3{0, 0, -armAngle}

	a.setScale(1-0.08*blob, 1+0.12*blob, 1-0.08*blob)
}

// applyLandingSquash - краткое приседание при приземлении
func (a *Animator) applyLandingSquash() {
	blob := a.rig.params.Blobbiness
	a.setScale(1+0.2*blob, 1-0.15*blob, 1+0.2*blob)
}

// applyGrowthFlourish - синусный всплеск масштаба после поедания:
// нарастает и спадает к нулю в пределах длительности эффекта
func (a *Animator) applyGrowthFlourish(now float64) {
	f := float32((now - a.effect.start) / a.effect.duration)
	pulse := 0.12 * math32.Sin(f*math32.Pi)
	a.setScale(1+pulse, 1+pulse, 1+pulse)
}
