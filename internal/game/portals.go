package game

import (
	"log"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"x-runner/internal/player"
)

// Виды порталов
const (
	PortalExit  = "exit"  // вперед, в следующий мир
	PortalEntry = "entry" // назад, в мир из URL возврата
)

// Portal - телепорт на поверхности террейна. URL уже содержит все
// параметры передачи игрока.
type Portal struct {
	ID     string  `json:"id"`
	Kind   string  `json:"kind"`
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Z      float32 `json:"z"`
	Radius float32 `json:"radius"`
	URL    string  `json:"-"`
}

// Inside - каноническая проверка входа в портал: строгое сравнение
// дистанции между центрами с суженным ядром портала плюс радиус игрока
func (p *Portal) Inside(pos mgl32.Vec3, playerRadius float32) bool {
	d := pos.Sub(mgl32.Vec3{p.X, p.Y, p.Z}).Len()
	return d < p.Radius*0.7+playerRadius
}

// PortalEventBroadcaster - интерфейс для отправки событий порталов
type PortalEventBroadcaster interface {
	BroadcastPortalActivated(portalID string)
	BroadcastPortalTransition(url string)
}

// PortalsConfig - настройки системы порталов
type PortalsConfig struct {
	Radius          float32
	TransitionDelay time.Duration

	// Позиции порталов по горизонтали; высота берется с поверхности
	ExitX, ExitZ   float32
	EntryX, EntryZ float32
}

// DefaultPortalsConfig возвращает настройки порталов по умолчанию
func DefaultPortalsConfig() PortalsConfig {
	return PortalsConfig{
		Radius:          2.5,
		TransitionDelay: 800 * time.Millisecond,
		ExitX:           0,
		ExitZ:           -30,
		EntryX:          0,
		EntryZ:          30,
	}
}

// Portals - система порталов: выходной портал есть всегда, входной -
// только при наличии URL возврата. Срабатывание одноразовое: после
// входа в любой портал сессия уходит в переход.
type Portals struct {
	cfg     PortalsConfig
	pc      *player.Controller
	portals []*Portal

	mu        sync.Mutex
	activated bool
	pendingAt time.Time
	pendingTo string

	broadcaster PortalEventBroadcaster
	logger      *log.Logger
}

// NewPortals создает систему порталов. returnURL пустой - входной
// портал не размещается.
func NewPortals(cfg PortalsConfig, pc *player.Controller, surface SurfaceFunc, exitURL, returnURL string, logger *log.Logger) *Portals {
	if logger == nil {
		logger = log.Default()
	}

	p := &Portals{
		cfg:    cfg,
		pc:     pc,
		logger: logger,
	}

	p.place("portal_exit", PortalExit, cfg.ExitX, cfg.ExitZ, exitURL, surface)
	if returnURL != "" {
		p.place("portal_entry", PortalEntry, cfg.EntryX, cfg.EntryZ, returnURL, surface)
	} else {
		logger.Printf("[Portals] URL возврата нет - входной портал не размещен")
	}

	return p
}

func (p *Portals) place(id, kind string, x, z float32, url string, surface SurfaceFunc) {
	y, ok := surface(x, z)
	if !ok {
		// Точка вне поверхности - ставим портал на нулевую высоту,
		// мир без террейна под порталом все равно играбелен
		y = 0
		p.logger.Printf("[Portals] Под порталом %s нет поверхности, высота 0", id)
	}

	p.portals = append(p.portals, &Portal{
		ID:     id,
		Kind:   kind,
		X:      x,
		Y:      y,
		Z:      z,
		Radius: p.cfg.Radius,
		URL:    url,
	})
	p.logger.Printf("[Portals] Портал %s (%s) размещен в (%.1f, %.1f, %.1f)", id, kind, x, y, z)
}

func (p *Portals) Name() string  { return "Portals" }
func (p *Portals) Priority() int { return PriorityPortals }

// SetBroadcaster устанавливает интерфейс для отправки событий
func (p *Portals) SetBroadcaster(b PortalEventBroadcaster) {
	p.broadcaster = b
}

// Portals возвращает копию списка порталов
func (p *Portals) Portals() []*Portal {
	result := make([]*Portal, 0, len(p.portals))
	for _, portal := range p.portals {
		cp := *portal
		result = append(result, &cp)
	}
	return result
}

// Anchors отдает центры порталов как точки разрежения для предметов
func (p *Portals) Anchors() []mgl32.Vec3 {
	anchors := make([]mgl32.Vec3, 0, len(p.portals))
	for _, portal := range p.portals {
		anchors = append(anchors, mgl32.Vec3{portal.X, portal.Y, portal.Z})
	}
	return anchors
}

// Activated сообщает, сработал ли уже какой-либо портал
func (p *Portals) Activated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activated
}

// Update проверяет вход игрока в порталы и отложенный переход
func (p *Portals) Update(now, dt float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.activated {
		if !p.pendingAt.IsZero() && time.Now().After(p.pendingAt) {
			p.pendingAt = time.Time{}
			p.logger.Printf("[Portals] Переход: %s", p.pendingTo)
			if p.broadcaster != nil {
				p.broadcaster.BroadcastPortalTransition(p.pendingTo)
			}
		}
		return nil
	}

	if p.pc.IsDead() {
		return nil
	}

	pos := p.pc.Position()
	radius := p.pc.Radius()
	for _, portal := range p.portals {
		if !portal.Inside(pos, radius) {
			continue
		}

		p.activated = true
		p.pendingAt = time.Now().Add(p.cfg.TransitionDelay)
		p.pendingTo = portal.URL

		p.logger.Printf("[Portals] Игрок вошел в портал %s, переход через %v", portal.ID, p.cfg.TransitionDelay)
		if p.broadcaster != nil {
			p.broadcaster.BroadcastPortalActivated(portal.ID)
		}
		break
	}
	return nil
}
