package game

import (
	"net/url"
	"strings"
	"testing"

	"x-runner/internal/world"
)

func TestParseHandoffDefaults(t *testing.T) {
	h := ParseHandoff(url.Values{})

	if h.FromPortal {
		t.Error("без маркера портала - холодный старт")
	}
	if h.Color != defaultPlayerColor {
		t.Errorf("цвет по умолчанию %s, получили %s", defaultPlayerColor, h.Color)
	}
	if h.SpeedMultiplier != 1.0 {
		t.Errorf("множитель скорости по умолчанию 1, получили %.2f", h.SpeedMultiplier)
	}
	if h.SkipStartGate() {
		t.Error("холодный старт проходит стартовый экран")
	}
}

func TestParseHandoffFromPortal(t *testing.T) {
	q := url.Values{}
	q.Set("portal", "1")
	q.Set("name", "gobo")
	q.Set("color", "AB12ef")
	q.Set("speed", "1.5")
	q.Set("return", "https://prev.example/world")

	h := ParseHandoff(q)

	if !h.FromPortal || !h.SkipStartGate() {
		t.Error("пришедший через портал пропускает стартовый экран")
	}
	if h.Name != "gobo" {
		t.Errorf("имя = %q", h.Name)
	}
	// В URL цвет без решетки, внутри нормализуется
	if h.Color != "#AB12ef" {
		t.Errorf("цвет должен нормализоваться к #AB12ef, получили %q", h.Color)
	}
	if h.SpeedMultiplier != 1.5 {
		t.Errorf("множитель скорости = %.2f, ожидали 1.5", h.SpeedMultiplier)
	}
	if h.ReturnURL != "https://prev.example/world" {
		t.Errorf("URL возврата = %q", h.ReturnURL)
	}
}

// Невалидные значения заменяются умолчаниями, а не ошибкой
func TestParseHandoffRejectsGarbage(t *testing.T) {
	q := url.Values{}
	q.Set("color", "red")
	q.Set("speed", "-3")
	q.Set("return", "::не-адрес::")

	h := ParseHandoff(q)

	if h.Color != defaultPlayerColor {
		t.Errorf("мусорный цвет заменяется умолчанием, получили %q", h.Color)
	}
	if h.SpeedMultiplier != 1.0 {
		t.Errorf("мусорная скорость заменяется единицей, получили %.2f", h.SpeedMultiplier)
	}
	if h.ReturnURL != "" {
		t.Errorf("мусорный URL возврата отбрасывается, получили %q", h.ReturnURL)
	}
}

func TestValidHexColor(t *testing.T) {
	good := []string{"#000000", "#ffffff", "#4f9dff", "#AB12EF"}
	bad := []string{"", "#fff", "4f9dff", "#4f9dfg", "#4f9dff0"}

	for _, s := range good {
		if !validHexColor(s) {
			t.Errorf("%q должен быть валидным цветом", s)
		}
	}
	for _, s := range bad {
		if validHexColor(s) {
			t.Errorf("%q не должен быть валидным цветом", s)
		}
	}
}

func TestBuildHandoffURL(t *testing.T) {
	h := Handoff{
		FromPortal:      true,
		Name:            "gobo",
		Color:           "#4f9dff",
		SpeedMultiplier: 1.5,
	}

	built, err := BuildHandoffURL("https://next.example/world", h, "https://self.example")
	if err != nil {
		t.Fatalf("сборка URL: %v", err)
	}

	u, err := url.Parse(built)
	if err != nil {
		t.Fatalf("результат должен быть валидным URL: %v", err)
	}
	q := u.Query()

	if q.Get("portal") != "1" {
		t.Error("маркер портала обязателен")
	}
	if q.Get("name") != "gobo" || q.Get("color") != "4f9dff" {
		t.Errorf("имя и цвет (без решетки) должны передаваться: %v", q)
	}
	if !strings.HasPrefix(q.Get("speed"), "1.5") {
		t.Errorf("скорость должна передаваться, получили %q", q.Get("speed"))
	}
	if q.Get("return") != "https://self.example" {
		t.Errorf("адрес возврата = %q", q.Get("return"))
	}
}

// Передача туда и обратно сохраняет данные игрока
func TestHandoffRoundTrip(t *testing.T) {
	h := Handoff{FromPortal: true, Name: "gobo", Color: "#ff8b3d", SpeedMultiplier: 2.0}

	built, err := BuildHandoffURL("https://next.example", h, "https://self.example")
	if err != nil {
		t.Fatal(err)
	}
	u, _ := url.Parse(built)
	parsed := ParseHandoff(u.Query())

	if parsed.Name != h.Name || parsed.Color != h.Color || parsed.SpeedMultiplier != h.SpeedMultiplier {
		t.Errorf("данные потерялись при передаче: %+v != %+v", parsed, h)
	}
	if parsed.ReturnURL != "https://self.example" {
		t.Errorf("URL возврата = %q", parsed.ReturnURL)
	}
}

func TestBuildHandoffURLRejectsBadBase(t *testing.T) {
	if _, err := BuildHandoffURL("://нет-схемы", Handoff{}, ""); err == nil {
		t.Error("мусорный базовый URL должен быть ошибкой")
	}
}

func makeTestDataset(t *testing.T) *world.Dataset {
	t.Helper()

	doc := &world.Document{
		Vertices: []float32{
			-50, 0, -50,
			50, 0, -50,
			50, 0, 50,
			-50, 0, 50,
			-50, -5, 60,
			50, -5, 60,
			50, -5, 70,
		},
		Flat: []uint32{0, 1, 2, 0, 2, 3},
		Pit:  []uint32{4, 5, 6},
	}
	ds, err := world.Build(doc)
	if err != nil {
		t.Fatalf("сборка датасета: %v", err)
	}
	return ds
}

// Вход через портал: цвет из URL попадает в скелет, стартовый экран
// пропускается, множитель скорости применяется
func TestSessionAdoptsHandoff(t *testing.T) {
	q := url.Values{}
	q.Set("portal", "1")
	q.Set("name", "gobo")
	q.Set("color", "ff8b3d")
	q.Set("speed", "1.5")
	h := ParseHandoff(q)

	s, err := NewSession(makeTestDataset(t), h, SessionOptions{
		NextWorldURL: "https://next.example",
		TargetTPS:    60,
	}, nil, nil)
	if err != nil {
		t.Fatalf("сборка сессии: %v", err)
	}
	defer s.Stop()

	if s.Rig.PrimaryColor() != "#ff8b3d" {
		t.Errorf("основной цвет скелета = %q, ожидали #ff8b3d", s.Rig.PrimaryColor())
	}
	if !s.Controller.InputEnabled() {
		t.Error("вход через портал включает ввод сразу")
	}
	if s.Controller.SpeedMultiplier() != 1.5 {
		t.Errorf("множитель скорости = %.2f, ожидали 1.5", s.Controller.SpeedMultiplier())
	}
}

// Холодный старт: ввод выключен до явного сигнала старта
func TestSessionColdStartGated(t *testing.T) {
	s, err := NewSession(makeTestDataset(t), ParseHandoff(url.Values{}), SessionOptions{
		NextWorldURL: "https://next.example",
		TargetTPS:    60,
	}, nil, nil)
	if err != nil {
		t.Fatalf("сборка сессии: %v", err)
	}
	defer s.Stop()

	if s.Controller.InputEnabled() {
		t.Error("до стартового сигнала ввод выключен")
	}
	if s.Terrain.BodyCount() != 2 {
		t.Errorf("flat+pit без горы - два статичных тела, получили %d", s.Terrain.BodyCount())
	}
	if got := s.Controller.Body().LinearDamping; got != world.GetConfig().World.LinearDamping {
		t.Errorf("затухание тела игрока берется из конфигурации мира, получили %.2f", got)
	}
}
