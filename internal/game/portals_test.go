package game

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// MockPortalBroadcaster накапливает события порталов
type MockPortalBroadcaster struct {
	activated   []string
	transitions []string
}

func (m *MockPortalBroadcaster) BroadcastPortalActivated(portalID string) {
	m.activated = append(m.activated, portalID)
}

func (m *MockPortalBroadcaster) BroadcastPortalTransition(url string) {
	m.transitions = append(m.transitions, url)
}

func flatSurface(x, z float32) (float32, bool) { return 0, true }

// Граница входа строгая: ровно на пороге игрок еще снаружи
func TestPortalInsideBoundaryStrict(t *testing.T) {
	p := &Portal{X: 0, Y: 0, Z: 0, Radius: 2.5}
	playerRadius := float32(1.0)
	threshold := p.Radius*0.7 + playerRadius // 2.75

	if p.Inside(mgl32.Vec3{threshold, 0, 0}, playerRadius) {
		t.Error("ровно на пороге игрок еще не внутри")
	}
	if !p.Inside(mgl32.Vec3{threshold - 0.01, 0, 0}, playerRadius) {
		t.Error("чуть внутри порога игрок уже в портале")
	}

	// Дистанция объемная: игрок высоко над центром еще снаружи
	if p.Inside(mgl32.Vec3{0, 15, 0}, playerRadius) {
		t.Error("вертикальная составляющая входит в дистанцию до центра")
	}
	if !p.Inside(mgl32.Vec3{0, 1, 0}, playerRadius) {
		t.Error("прямо над центром в пределах порога игрок внутри")
	}
}

func TestEntryPortalRequiresReturnURL(t *testing.T) {
	pc := makeGameController(t)

	p := NewPortals(DefaultPortalsConfig(), pc, flatSurface, "https://next.example", "", nil)
	if len(p.Portals()) != 1 {
		t.Fatalf("без URL возврата только выходной портал, получили %d", len(p.Portals()))
	}
	if p.Portals()[0].Kind != PortalExit {
		t.Errorf("единственный портал - выходной, получили %s", p.Portals()[0].Kind)
	}

	p = NewPortals(DefaultPortalsConfig(), pc, flatSurface, "https://next.example", "https://prev.example", nil)
	portals := p.Portals()
	if len(portals) != 2 {
		t.Fatalf("с URL возврата порталов два, получили %d", len(portals))
	}

	kinds := map[string]string{}
	for _, portal := range portals {
		kinds[portal.Kind] = portal.URL
	}
	if kinds[PortalEntry] != "https://prev.example" {
		t.Errorf("входной портал ведет по URL возврата, получили %q", kinds[PortalEntry])
	}
}

// Срабатывание одноразовое: повторные кадры внутри портала не дают
// новых событий, переход уходит ровно один раз после задержки
func TestPortalOneShotLatch(t *testing.T) {
	pc := makeGameController(t)

	cfg := DefaultPortalsConfig()
	cfg.TransitionDelay = 0
	p := NewPortals(cfg, pc, flatSurface, "https://next.example", "", nil)
	broadcaster := &MockPortalBroadcaster{}
	p.SetBroadcaster(broadcaster)

	// Ставим игрока в центр выходного портала
	pc.Body().Position = mgl32.Vec3{cfg.ExitX, 1, cfg.ExitZ}

	if err := p.Update(0, 1.0/60.0); err != nil {
		t.Fatal(err)
	}
	if !p.Activated() {
		t.Fatal("портал должен сработать")
	}
	if len(broadcaster.activated) != 1 {
		t.Fatalf("событие активации одно, получили %d", len(broadcaster.activated))
	}

	// Задержка нулевая - следующий кадр отправляет переход
	time.Sleep(time.Millisecond)
	if err := p.Update(1.0/60.0, 1.0/60.0); err != nil {
		t.Fatal(err)
	}
	if len(broadcaster.transitions) != 1 {
		t.Fatalf("переход уходит ровно один раз, получили %d", len(broadcaster.transitions))
	}

	// Дальнейшие кадры внутри портала ничего не добавляют
	for i := 0; i < 5; i++ {
		if err := p.Update(float64(i), 1.0/60.0); err != nil {
			t.Fatal(err)
		}
	}
	if len(broadcaster.activated) != 1 || len(broadcaster.transitions) != 1 {
		t.Errorf("защелка одноразовая: активаций %d, переходов %d",
			len(broadcaster.activated), len(broadcaster.transitions))
	}
}

func TestPortalIgnoresDeadPlayer(t *testing.T) {
	pc := makeGameController(t)

	cfg := DefaultPortalsConfig()
	p := NewPortals(cfg, pc, flatSurface, "https://next.example", "", nil)

	pc.Body().Position = mgl32.Vec3{cfg.ExitX, 1, cfg.ExitZ}
	pc.Die()

	if err := p.Update(0, 1.0/60.0); err != nil {
		t.Fatal(err)
	}
	if p.Activated() {
		t.Error("мертвый игрок не активирует порталы")
	}
}

// Центры порталов отдаются предметной системе как точки разрежения
func TestPortalAnchors(t *testing.T) {
	pc := makeGameController(t)

	cfg := DefaultPortalsConfig()
	p := NewPortals(cfg, pc, flatSurface, "https://next.example", "https://prev.example", nil)

	anchors := p.Anchors()
	if len(anchors) != 2 {
		t.Fatalf("якорей столько же, сколько порталов: %d", len(anchors))
	}
	if anchors[0].X() != cfg.ExitX || anchors[0].Z() != cfg.ExitZ {
		t.Errorf("первый якорь - выходной портал, получили %v", anchors[0])
	}
}
