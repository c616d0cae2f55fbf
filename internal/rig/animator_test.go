package rig

import (
	"testing"

	"github.com/chewxy/math32"
)

func makeTestAnimator(t *testing.T) *Animator {
	t.Helper()

	r, err := New(DefaultParams(), DefaultColors())
	if err != nil {
		t.Fatalf("построение скелета: %v", err)
	}
	return NewAnimator(r)
}

func TestRigValidation(t *testing.T) {
	bad := DefaultParams()
	bad.LegLength = 0
	if _, err := New(bad, DefaultColors()); err == nil {
		t.Error("нулевая длина ноги должна быть ошибкой")
	}

	bad = DefaultParams()
	bad.Blobbiness = 1.5
	if _, err := New(bad, DefaultColors()); err == nil {
		t.Error("blobbiness вне [0,1] должен быть ошибкой")
	}

	if _, err := New(DefaultParams(), Colors{}); err != nil {
		t.Errorf("пустые цвета заменяются умолчанием, ошибки быть не должно: %v", err)
	}
}

func TestSelectStateDeterministic(t *testing.T) {
	cases := []struct {
		jumping, moving bool
		want            State
	}{
		{true, true, StateJump},
		{true, false, StateJump},
		{false, true, StateRun},
		{false, false, StateStand},
	}
	for _, c := range cases {
		if got := SelectState(c.jumping, c.moving); got != c.want {
			t.Errorf("SelectState(%v, %v) = %v, ожидали %v", c.jumping, c.moving, got, c.want)
		}
	}
}

// Поза walk определена, но через SelectState недостижима
func TestWalkPoseExistsButUnreachable(t *testing.T) {
	a := makeTestAnimator(t)

	a.ApplyPose(StateWalk, 0)
	if a.State() != StateWalk {
		t.Error("поза walk должна применяться принудительно")
	}

	// Никакая комбинация входов не выбирает walk
	for _, jumping := range []bool{true, false} {
		for _, moving := range []bool{true, false} {
			if SelectState(jumping, moving) == StateWalk {
				t.Error("SelectState не должен выбирать walk")
			}
		}
	}
}

// Контракт масштаба: без активных временных эффектов итоговый масштаб
// равен ровно baseScale * scaleFactor для любого фактора роста
func TestResolvedScaleContract(t *testing.T) {
	a := makeTestAnimator(t)
	base := a.rig.BaseScale()

	now := 10.0
	for _, s := range []float32{1.0, 1.5, 2.25, 4.0} {
		a.SetScaleFactor(s)
		a.Update(now, 1.0/60.0, Frame{})
		// Второй кадр за пределами всплеска роста: эффектов нет
		now += growthFlourishDuration + 0.1
		a.Update(now, 1.0/60.0, Frame{})

		want := base * s
		for i := 0; i < 3; i++ {
			if math32.Abs(a.rig.Root.Scale[i]-want) > 1e-6 {
				t.Errorf("фактор %.2f: масштаб по оси %d = %.4f, ожидали %.4f",
					s, i, a.rig.Root.Scale[i], want)
			}
		}
		if a.ResolvedScale() != want {
			t.Errorf("ResolvedScale() = %.4f, ожидали %.4f", a.ResolvedScale(), want)
		}
	}
}

// Приседание разгона прыжка умножается на фактор роста, а не
// перезаписывает его
func TestJumpSquashComposesWithGrowth(t *testing.T) {
	a := makeTestAnimator(t)
	a.SetScaleFactor(2.0)
	blob := a.rig.Params().Blobbiness

	// Середина фазы разгона
	a.Update(0, 1.0/60.0, Frame{IsJumping: true, JumpElapsed: 0.15})

	f := float32(0.5)
	wantY := a.ResolvedScale() * (1 - 0.2*blob*f)
	if math32.Abs(a.rig.Root.Scale.Y()-wantY) > 1e-4 {
		t.Errorf("масштаб Y в разгоне = %.4f, ожидали %.4f", a.rig.Root.Scale.Y(), wantY)
	}
}

func TestMidairPoseIsStatic(t *testing.T) {
	a := makeTestAnimator(t)

	a.Update(0, 1.0/60.0, Frame{IsJumping: true, JumpElapsed: 0.5})
	first := a.rig.Root.Scale
	legFirst := a.rig.LegL.Rotation

	a.Update(1.0/60.0, 1.0/60.0, Frame{IsJumping: true, JumpElapsed: 0.9})
	if a.rig.Root.Scale != first {
		t.Error("поза полета не должна меняться со временем")
	}
	if a.rig.LegL.Rotation != legFirst {
		t.Error("углы конечностей в полете фиксированы")
	}
}

// Приседание приземления - запись временного эффекта: активно в
// пределах длительности и разрешается в точный исходный масштаб
func TestLandingSquashResolvesToExactScale(t *testing.T) {
	a := makeTestAnimator(t)
	a.SetScaleFactor(1.5)

	// Кадр в прыжке, затем кадр на земле - срабатывает приземление
	a.Update(1.0, 1.0/60.0, Frame{IsJumping: true, JumpElapsed: 0.4})
	a.Update(1.02, 0.02, Frame{})

	wantSquashY := a.ResolvedScale() * (1 - 0.15*a.rig.Params().Blobbiness)
	if math32.Abs(a.rig.Root.Scale.Y()-wantSquashY) > 1e-4 {
		t.Errorf("во время приседания масштаб Y = %.4f, ожидали %.4f",
			a.rig.Root.Scale.Y(), wantSquashY)
	}

	// После истечения эффекта - ровно baseScale * scaleFactor
	a.Update(1.0+landingSquashDuration+0.1, 1.0/60.0, Frame{})
	want := a.ResolvedScale()
	for i := 0; i < 3; i++ {
		if math32.Abs(a.rig.Root.Scale[i]-want) > 1e-6 {
			t.Errorf("после приземления масштаб по оси %d = %.4f, ожидали %.4f",
				i, a.rig.Root.Scale[i], want)
		}
	}
}

// Доворот идет по кратчайшей дуге с заворотом на ±π, без скачка
func TestRotateTowardsShortestPath(t *testing.T) {
	a := makeTestAnimator(t)

	// Персонаж смотрит почти на -π, цель почти +π: короткий путь
	// через разрыв, yaw должен уменьшаться (уходить дальше в минус)
	a.rig.Root.Rotation[1] = -3.0
	a.Update(0, 1.0/60.0, Frame{MoveIntent: true, TargetYaw: 3.0})

	got := a.Yaw()
	if got > -3.0 && got < 3.0 {
		t.Errorf("поворот пошел длинной дугой: yaw=%.3f", got)
	}

	// Шаг ограничен turnSpeed*dt
	step := math32.Abs(math32.Abs(got) - 3.0)
	if step > turnSpeed/60.0+1e-4 {
		t.Errorf("шаг поворота %.4f превышает предел %.4f", step, turnSpeed/60.0)
	}
}

func TestBounceOnlyWhileRunning(t *testing.T) {
	a := makeTestAnimator(t)

	a.Update(0, 0.05, Frame{MoveIntent: true, TargetYaw: 0})
	if a.BounceOffset() <= 0 {
		t.Error("в беге офсет подпрыгивания должен быть положительным")
	}

	// Офсет не трогает сам скелет - его применяет владелец позиции
	if a.rig.Root.Position.Y() != 0 {
		t.Error("подпрыгивание не должно мутировать позицию корня")
	}

	a.Update(0.1, 0.05, Frame{})
	if a.BounceOffset() != 0 {
		t.Error("вне бега офсет подпрыгивания равен нулю")
	}
}

// Всплеск роста - временный эффект: в середине масштаб превышает
// разрешенный, по истечении возвращается к нему точно
func TestGrowthFlourishSelfTerminates(t *testing.T) {
	a := makeTestAnimator(t)

	a.SetScaleFactor(1.5)
	a.Update(1.0, 1.0/60.0, Frame{}) // кадр роста, всплеск запланирован

	a.Update(1.0+growthFlourishDuration/2, 1.0/60.0, Frame{})
	if a.rig.Root.Scale.Y() <= a.ResolvedScale() {
		t.Errorf("в середине всплеска масштаб выше разрешенного: %.4f <= %.4f",
			a.rig.Root.Scale.Y(), a.ResolvedScale())
	}

	a.Update(1.0+growthFlourishDuration+0.1, 1.0/60.0, Frame{})
	if math32.Abs(a.rig.Root.Scale.Y()-a.ResolvedScale()) > 1e-6 {
		t.Errorf("после всплеска масштаб = %.4f, ожидали %.4f",
			a.rig.Root.Scale.Y(), a.ResolvedScale())
	}
}

func TestStandIdleSwayIsTimeDriven(t *testing.T) {
	a := makeTestAnimator(t)

	a.Update(0.5, 1.0/60.0, Frame{})
	headA := a.rig.Head.Rotation.Y()

	a.Update(1.5, 1.0/60.0, Frame{})
	headB := a.rig.Head.Rotation.Y()

	if headA == headB {
		t.Error("покачивание головы должно зависеть от времени")
	}
}
