package player

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"x-runner/internal/physics"
)

func makeEmptyWorld(t *testing.T) *physics.World {
	t.Helper()
	return physics.NewWorld(mgl32.Vec3{0, -24, 0}, physics.NewContactTable())
}

// Вертикальная стена в плоскости xy на глубине z
func addWall(t *testing.T, w *physics.World, z float32) {
	t.Helper()

	positions := []float32{
		-10, -10, z,
		10, -10, z,
		10, 10, z,
		-10, 10, z,
	}
	mesh, err := physics.NewTrimesh(positions, []uint32{0, 1, 2, 0, 2, 3})
	if err != nil {
		t.Fatalf("не удалось построить стену: %v", err)
	}
	if err := w.AddBody(physics.NewMeshBody("wall", mgl32.Vec3{}, mesh, physics.MaterialFlat)); err != nil {
		t.Fatal(err)
	}
}

// Углы принимаются только в захваченном состоянии
func TestCameraLockStateMachine(t *testing.T) {
	cam := NewOrbitCamera(makeEmptyWorld(t), nil)

	if cam.LockState() != CameraUnlocked {
		t.Fatal("начальное состояние камеры - без захвата")
	}

	cam.SetAngles(1.0, 0.8)
	if cam.Yaw() != 0 {
		t.Error("вне захвата углы должны игнорироваться")
	}

	cam.Engage()
	cam.SetAngles(1.0, 0.8)
	if cam.Yaw() != 1.0 || cam.Pitch() != 0.8 {
		t.Errorf("в захвате углы принимаются, получили yaw=%.2f pitch=%.2f", cam.Yaw(), cam.Pitch())
	}

	cam.Release()
	cam.SetAngles(-2.0, 0.1)
	if cam.Yaw() != 1.0 {
		t.Error("после снятия захвата углы снова замораживаются")
	}
}

func TestCameraPitchClamped(t *testing.T) {
	cam := NewOrbitCamera(makeEmptyWorld(t), nil)
	cam.Engage()

	cam.SetAngles(0, 3.0)
	if cam.Pitch() != cameraMaxPitch {
		t.Errorf("pitch должен упираться в %.2f, получили %.2f", float32(cameraMaxPitch), cam.Pitch())
	}
	cam.SetAngles(0, -1.0)
	if cam.Pitch() != cameraMinPitch {
		t.Errorf("pitch должен упираться в %.2f, получили %.2f", float32(cameraMinPitch), cam.Pitch())
	}
}

// Дистанция растет с фактором роста персонажа
func TestCameraDistanceScalesWithGrowth(t *testing.T) {
	cam := NewOrbitCamera(makeEmptyWorld(t), nil)

	// Большой dt - сглаживание практически сходится к цели
	cam.Update(mgl32.Vec3{}, 1.0, 5.0)
	base := cam.Distance()
	if math32.Abs(base-cameraBaseDistance) > 0.1 {
		t.Errorf("без роста дистанция ~%.1f, получили %.2f", float32(cameraBaseDistance), base)
	}

	cam.Update(mgl32.Vec3{}, 4.0, 5.0)
	want := float32(cameraBaseDistance) * (1 + 3*0.6)
	if math32.Abs(cam.Distance()-want) > 0.1 {
		t.Errorf("при факторе 4 дистанция ~%.1f, получили %.2f", want, cam.Distance())
	}
}

// Заслон статической геометрией подтягивает камеру ближе стены с зазором
func TestCameraOcclusionPullsIn(t *testing.T) {
	w := makeEmptyWorld(t)
	addWall(t, w, -3)

	cam := NewOrbitCamera(w, nil)
	cam.Engage()
	cam.SetAngles(0, 0) // смотрим вдоль -z, стена позади камеры на z=-3

	cam.Update(mgl32.Vec3{0, 0, 0}, 1.0, 5.0)

	want := float32(3.0 - cameraClearance)
	if math32.Abs(cam.Distance()-want) > 0.1 {
		t.Errorf("заслоненная дистанция ~%.2f, получили %.2f", want, cam.Distance())
	}

	pos := cam.Position(mgl32.Vec3{}, 1.0)
	if pos.Z() < -3 {
		t.Errorf("камера не должна оказаться за стеной, z=%.2f", pos.Z())
	}
}

// Прозрачные для камеры и динамические тела луч заслона не останавливают
func TestCameraIgnoresTransparentBodies(t *testing.T) {
	w := makeEmptyWorld(t)
	addWall(t, w, -3)
	wall, _ := w.Body("wall")
	wall.CameraTransparent = true

	cam := NewOrbitCamera(w, nil)
	cam.Engage()
	cam.SetAngles(0, 0)

	cam.Update(mgl32.Vec3{}, 1.0, 5.0)
	if math32.Abs(cam.Distance()-cameraBaseDistance) > 0.1 {
		t.Errorf("прозрачная стена не заслоняет, дистанция %.2f", cam.Distance())
	}
}

// Сглаживание экспоненциальное: маленький шаг двигает дистанцию к цели,
// но не телепортирует
func TestCameraEasing(t *testing.T) {
	w := makeEmptyWorld(t)
	addWall(t, w, -3)

	cam := NewOrbitCamera(w, nil)
	cam.Engage()
	cam.SetAngles(0, 0)

	before := cam.Distance()
	cam.Update(mgl32.Vec3{}, 1.0, 1.0/60.0)
	after := cam.Distance()

	want := float32(3.0 - cameraClearance)
	if after >= before {
		t.Errorf("дистанция должна двигаться к заслоненной цели, %.2f -> %.2f", before, after)
	}
	if after <= want {
		t.Errorf("за один короткий кадр дистанция не должна дойти до цели %.2f, получили %.2f", want, after)
	}
}
