package game

import (
	"x-runner/internal/player"
	"x-runner/internal/rig"
	"x-runner/internal/world"
)

// Фиксированный шаг физической симуляции. Кадровый цикл идет по
// настенным часам, физика догоняет его целыми шагами.
const fixedPhysicsStep = 1.0 / 60.0

// physicsSystem продвигает физический мир террейна
type physicsSystem struct {
	terrain *world.Terrain
}

func (s *physicsSystem) Name() string  { return "Physics" }
func (s *physicsSystem) Priority() int { return PriorityPhysics }

func (s *physicsSystem) Update(now, dt float64) error {
	s.terrain.Step(fixedPhysicsStep, float32(dt))
	return nil
}

// controllerSystem выполняет кадр контроллера игрока после физики
type controllerSystem struct {
	pc *player.Controller
}

func (s *controllerSystem) Name() string  { return "PlayerController" }
func (s *controllerSystem) Priority() int { return PriorityController }

func (s *controllerSystem) Update(now, dt float64) error {
	return s.pc.Update(now, dt)
}

// rigSystem обновляет позу скелета по снимку состояния игрока
type rigSystem struct {
	pc       *player.Controller
	animator *rig.Animator
}

func (s *rigSystem) Name() string  { return "Rig" }
func (s *rigSystem) Priority() int { return PriorityRig }

func (s *rigSystem) Update(now, dt float64) error {
	s.animator.Update(now, dt, s.pc.Frame(now))
	return nil
}
