package game

import (
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"x-runner/internal/debug"
	"x-runner/internal/player"
	"x-runner/internal/rig"
	"x-runner/internal/world"
)

// Имена параметров передачи игрока между мирами
const (
	paramPortal = "portal"
	paramName   = "name"
	paramColor  = "color"
	paramSpeed  = "speed"
	paramReturn = "return"
)

const defaultPlayerColor = "#4f9dff"

// Handoff - данные игрока, переданные через URL при входе из другого
// мира. Нулевое значение - обычный холодный старт.
type Handoff struct {
	FromPortal      bool
	Name            string
	Color           string
	SpeedMultiplier float32
	ReturnURL       string
}

// SkipStartGate: пришедший через портал игрок не проходит стартовый
// экран заново - ввод включается сразу
func (h Handoff) SkipStartGate() bool {
	return h.FromPortal
}

// ParseHandoff разбирает параметры передачи из query-строки апгрейда.
// Невалидные значения заменяются умолчаниями с записью в лог, а не
// ошибкой: чужой мир мог собрать URL небрежно.
func ParseHandoff(q url.Values) Handoff {
	h := Handoff{
		FromPortal:      q.Get(paramPortal) == "1",
		Name:            q.Get(paramName),
		Color:           q.Get(paramColor),
		SpeedMultiplier: 1.0,
		ReturnURL:       q.Get(paramReturn),
	}

	// В URL цвет ходит без решетки; внутри - всегда с ней
	if h.Color != "" && h.Color[0] != '#' {
		h.Color = "#" + h.Color
	}
	if h.Color != "" && !validHexColor(h.Color) {
		log.Printf("[Session] Невалидный цвет %q, используется %s", h.Color, defaultPlayerColor)
		h.Color = ""
	}
	if h.Color == "" {
		h.Color = defaultPlayerColor
	}

	if raw := q.Get(paramSpeed); raw != "" {
		speed, err := strconv.ParseFloat(raw, 32)
		if err != nil || speed <= 0 || speed > 10 {
			log.Printf("[Session] Невалидный множитель скорости %q, используется 1", raw)
		} else {
			h.SpeedMultiplier = float32(speed)
		}
	}

	if h.ReturnURL != "" {
		if _, err := url.ParseRequestURI(h.ReturnURL); err != nil {
			log.Printf("[Session] Невалидный URL возврата %q, входной портал не будет размещен", h.ReturnURL)
			h.ReturnURL = ""
		}
	}

	return h
}

func validHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// BuildHandoffURL собирает URL следующего мира с параметрами передачи.
// selfURL уходит параметром возврата: следующий мир разместит входной
// портал обратно сюда.
func BuildHandoffURL(base string, h Handoff, selfURL string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", errors.Wrapf(err, "URL следующего мира %q", base)
	}

	q := u.Query()
	q.Set(paramPortal, "1")
	if h.Name != "" {
		q.Set(paramName, h.Name)
	}
	q.Set(paramColor, strings.TrimPrefix(h.Color, "#"))
	if h.SpeedMultiplier != 1.0 {
		q.Set(paramSpeed, strconv.FormatFloat(float64(h.SpeedMultiplier), 'f', 2, 32))
	}
	if selfURL != "" {
		q.Set(paramReturn, selfURL)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// SessionOptions - внешние адреса сессии
type SessionOptions struct {
	// Базовый URL следующего мира для выходного портала
	NextWorldURL string
	// Собственный адрес этого мира; уходит в параметр возврата
	SelfURL string
	// Частота тиков
	TargetTPS int

	Debug debug.Context
}

// Session - одна игровая сессия: собственный физический мир,
// персонаж, системы и кадровый цикл. Сессии не делят изменяемое
// состояние - общий у них только неизменяемый датасет террейна.
type Session struct {
	Handoff Handoff

	Terrain      *world.Terrain
	Rig          *rig.Rig
	Animator     *rig.Animator
	Controller   *player.Controller
	Collectibles *Collectibles
	Portals      *Portals
	Engine       *Engine
}

// NewSession собирает сессию из неизменяемого датасета
func NewSession(ds *world.Dataset, h Handoff, opts SessionOptions, events player.Events, logger *log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.Default()
	}
	dbg := opts.Debug
	if dbg == nil {
		dbg = debug.Nop()
	}

	terrain, err := world.Assemble(ds)
	if err != nil {
		return nil, errors.Wrap(err, "сборка террейна")
	}

	r, err := rig.New(rig.DefaultParams(), rig.Colors{Head: h.Color, Torso: h.Color})
	if err != nil {
		return nil, errors.Wrap(err, "скелет персонажа")
	}
	animator := rig.NewAnimator(r)

	pcfg := player.DefaultConfig()
	pcfg.LinearDamping = world.GetConfig().World.LinearDamping
	pc, err := player.NewController(pcfg, terrain.World(), animator, events, dbg)
	if err != nil {
		return nil, errors.Wrap(err, "контроллер игрока")
	}
	pc.SetSpeedMultiplier(h.SpeedMultiplier)
	if h.SkipStartGate() {
		pc.EnableInput()
		logger.Printf("[Session] Игрок пришел через портал - стартовый экран пропущен")
	}

	exitURL, err := BuildHandoffURL(opts.NextWorldURL, h, opts.SelfURL)
	if err != nil {
		return nil, err
	}

	portals := NewPortals(DefaultPortalsConfig(), pc, terrain.SurfaceAt, exitURL, h.ReturnURL, logger)
	collectibles := NewCollectibles(
		DefaultCollectiblesConfig(terrain.HalfExtent()*0.8),
		pc, terrain.SurfaceAt, portals, logger)

	engine := NewEngine(opts.TargetTPS, logger)
	engine.RegisterSystem(&physicsSystem{terrain: terrain})
	engine.RegisterSystem(&controllerSystem{pc: pc})
	engine.RegisterSystem(&rigSystem{pc: pc, animator: animator})
	engine.RegisterSystem(collectibles)
	engine.RegisterSystem(portals)

	return &Session{
		Handoff:      h,
		Terrain:      terrain,
		Rig:          r,
		Animator:     animator,
		Controller:   pc,
		Collectibles: collectibles,
		Portals:      portals,
		Engine:       engine,
	}, nil
}

// Start запускает кадровый цикл сессии
func (s *Session) Start() {
	s.Engine.Start()
}

// Stop останавливает кадровый цикл сессии
func (s *Session) Stop() {
	s.Engine.Stop()
}
