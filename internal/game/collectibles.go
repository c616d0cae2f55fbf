package game

import (
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"x-runner/internal/player"
)

// SurfaceFunc возвращает высоту поверхности террейна в точке (x, z)
// или false, если под точкой поверхности нет
type SurfaceFunc func(x, z float32) (float32, bool)

// AnchorProvider отдает точки, рядом с которыми предметы не
// размещаются (порталы)
type AnchorProvider interface {
	Anchors() []mgl32.Vec3
}

// Collectible - съедобный предмет на поверхности террейна
type Collectible struct {
	ID        string    `json:"id"`
	X         float32   `json:"x"`
	Y         float32   `json:"y"`
	Z         float32   `json:"z"`
	Radius    float32   `json:"radius"`
	Color     string    `json:"color"`
	SpawnTime time.Time `json:"-"`
}

// CollectibleEventBroadcaster - интерфейс для отправки событий
// предметов клиенту
type CollectibleEventBroadcaster interface {
	BroadcastCollectibleSpawned(item *Collectible)
	BroadcastCollectibleConsumed(playerID, itemID string, factor float32)
}

// CollectiblesConfig - настройки системы предметов
type CollectiblesConfig struct {
	MaxItems      int
	SpawnInterval time.Duration
	MinSpacing    float32 // минимальная дистанция до других предметов и порталов
	ItemRadius    float32
	FieldRadius   float32 // радиус зоны размещения вокруг центра мира
	MaxAttempts   int     // попыток подбора точки за один спавн
}

// DefaultCollectiblesConfig возвращает настройки предметов по умолчанию
func DefaultCollectiblesConfig(fieldRadius float32) CollectiblesConfig {
	return CollectiblesConfig{
		MaxItems:      24,
		SpawnInterval: 1500 * time.Millisecond,
		MinSpacing:    6.0,
		ItemRadius:    0.5,
		FieldRadius:   fieldRadius,
		MaxAttempts:   10,
	}
}

var collectiblePalette = []string{"#ffd93d", "#ff8b3d", "#6bffb8", "#5db2ff", "#ff6bd6"}

// Collectibles - система предметов: периодический спавн на поверхности
// с интервалами и разрежением, поедание по близости с ростом игрока
type Collectibles struct {
	cfg     CollectiblesConfig
	pc      *player.Controller
	surface SurfaceFunc
	anchors AnchorProvider

	items     map[string]*Collectible
	itemsMu   sync.RWMutex
	lastSpawn time.Time

	rng         *rand.Rand
	broadcaster CollectibleEventBroadcaster
	logger      *log.Logger
}

// NewCollectibles создает систему предметов. anchors может быть nil.
func NewCollectibles(cfg CollectiblesConfig, pc *player.Controller, surface SurfaceFunc, anchors AnchorProvider, logger *log.Logger) *Collectibles {
	if logger == nil {
		logger = log.Default()
	}
	return &Collectibles{
		cfg:     cfg,
		pc:      pc,
		surface: surface,
		anchors: anchors,
		items:   make(map[string]*Collectible),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:  logger,
	}
}

func (c *Collectibles) Name() string  { return "Collectibles" }
func (c *Collectibles) Priority() int { return PriorityCollectibles }

// SetBroadcaster устанавливает интерфейс для отправки событий
func (c *Collectibles) SetBroadcaster(b CollectibleEventBroadcaster) {
	c.broadcaster = b
}

// Update - один тик системы: спавн по интервалу, затем поедание
func (c *Collectibles) Update(now, dt float64) error {
	c.trySpawn()
	c.checkConsume()
	return nil
}

// Count возвращает текущее число предметов
func (c *Collectibles) Count() int {
	c.itemsMu.RLock()
	defer c.itemsMu.RUnlock()
	return len(c.items)
}

// Items возвращает копию всех предметов для синхронизации клиента
func (c *Collectibles) Items() []*Collectible {
	c.itemsMu.RLock()
	defer c.itemsMu.RUnlock()

	result := make([]*Collectible, 0, len(c.items))
	for _, item := range c.items {
		cp := *item
		result = append(result, &cp)
	}
	return result
}

// trySpawn размещает один предмет, если пришло время и есть место.
// Проверка лимита идет до любых обращений к поверхности: на полном
// поле тик спавна не стоит ни одного луча.
func (c *Collectibles) trySpawn() {
	now := time.Now()
	if now.Sub(c.lastSpawn) < c.cfg.SpawnInterval {
		return
	}

	c.itemsMu.Lock()
	defer c.itemsMu.Unlock()

	if len(c.items) >= c.cfg.MaxItems {
		return
	}
	c.lastSpawn = now

	item, ok := c.placeItem()
	if !ok {
		// Все попытки уперлись в разрежение или край поверхности -
		// пропускаем интервал целиком
		return
	}

	c.items[item.ID] = item
	c.evictOldestLocked()

	c.logger.Printf("[Collectibles] Предмет %s размещен в (%.1f, %.1f, %.1f)",
		item.ID, item.X, item.Y, item.Z)
	if c.broadcaster != nil {
		c.broadcaster.BroadcastCollectibleSpawned(item)
	}
}

// placeItem подбирает точку с ограниченным числом попыток
func (c *Collectibles) placeItem() (*Collectible, bool) {
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		angle := float32(c.rng.Float64() * 2 * math.Pi)
		distance := float32(c.rng.Float64()) * c.cfg.FieldRadius

		x := math32.Cos(angle) * distance
		z := math32.Sin(angle) * distance

		if c.tooCloseLocked(x, z) {
			continue
		}

		y, ok := c.surface(x, z)
		if !ok {
			continue
		}

		return &Collectible{
			ID:        "item_" + uuid.New().String(),
			X:         x,
			Y:         y + c.cfg.ItemRadius,
			Z:         z,
			Radius:    c.cfg.ItemRadius,
			Color:     collectiblePalette[c.rng.Intn(len(collectiblePalette))],
			SpawnTime: time.Now(),
		}, true
	}
	return nil, false
}

// tooCloseLocked проверяет разрежение по горизонтали против всех
// предметов и точек-якорей
func (c *Collectibles) tooCloseLocked(x, z float32) bool {
	for _, item := range c.items {
		dx, dz := item.X-x, item.Z-z
		if math32.Sqrt(dx*dx+dz*dz) < c.cfg.MinSpacing {
			return true
		}
	}
	if c.anchors != nil {
		for _, a := range c.anchors.Anchors() {
			dx, dz := a.X()-x, a.Z()-z
			if math32.Sqrt(dx*dx+dz*dz) < c.cfg.MinSpacing {
				return true
			}
		}
	}
	return false
}

// evictOldestLocked убирает старейшие предметы сверх лимита
func (c *Collectibles) evictOldestLocked() {
	for len(c.items) > c.cfg.MaxItems {
		oldestID := ""
		var oldest time.Time
		for id, item := range c.items {
			if oldestID == "" || item.SpawnTime.Before(oldest) {
				oldestID = id
				oldest = item.SpawnTime
			}
		}
		delete(c.items, oldestID)
	}
}

// checkConsume поедает предметы в радиусе контакта игрока
func (c *Collectibles) checkConsume() {
	if c.pc.IsDead() {
		return
	}

	pos := c.pc.Position()
	playerRadius := c.pc.Radius()

	c.itemsMu.Lock()
	defer c.itemsMu.Unlock()

	for id, item := range c.items {
		d := pos.Sub(mgl32.Vec3{item.X, item.Y, item.Z}).Len()
		if d >= playerRadius+item.Radius {
			continue
		}

		delete(c.items, id)
		factor := c.pc.Grow()

		c.logger.Printf("[Collectibles] Игрок съел предмет %s (дистанция %.2f), фактор роста %.2f",
			id, d, factor)
		if c.broadcaster != nil {
			c.broadcaster.BroadcastCollectibleConsumed(c.pc.Body().ID, id, factor)
		}
	}
}
