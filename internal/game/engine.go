package game

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"
)

// System - игровая система, выполняемая каждый тик. now - время с
// запуска движка в секундах, dt - время с прошлого тика.
type System interface {
	Update(now, dt float64) error
	Name() string
	Priority() int // меньше = раньше
}

// Приоритеты штатных систем сессии
const (
	PriorityPhysics      = 10
	PriorityController   = 20
	PriorityRig          = 30
	PriorityCollectibles = 40
	PriorityPortals      = 50
	PriorityBroadcast    = 60
)

// Engine - кадровый цикл одной игровой сессии. Все системы сессии
// выполняются последовательно в одной горутине: внутри тика никаких
// гонок между физикой, контроллером и рассылкой нет.
type Engine struct {
	targetTPS    int
	tickDuration time.Duration

	systems      []System
	systemsMutex sync.RWMutex

	isRunning bool
	runMutex  sync.Mutex

	// Телеметрия цикла; пишется тиком, читается горутиной транспорта
	statsMu         sync.Mutex
	tickCount       uint64
	startTime       time.Time
	lastTick        time.Time
	maxObservedTick time.Duration
	slowTicks       uint64

	ctx    context.Context
	cancel context.CancelFunc
	logger *log.Logger
}

// NewEngine создает движок сессии с заданной частотой тиков
func NewEngine(targetTPS int, logger *log.Logger) *Engine {
	if targetTPS <= 0 {
		targetTPS = 60
	}
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		targetTPS:    targetTPS,
		tickDuration: time.Second / time.Duration(targetTPS),
		systems:      make([]System, 0),
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger,
	}
}

// RegisterSystem добавляет систему и держит список отсортированным
// по приоритету
func (e *Engine) RegisterSystem(s System) {
	e.systemsMutex.Lock()
	defer e.systemsMutex.Unlock()

	e.systems = append(e.systems, s)
	sort.SliceStable(e.systems, func(i, j int) bool {
		return e.systems[i].Priority() < e.systems[j].Priority()
	})

	e.logger.Printf("[Engine] Зарегистрирована система: %s (приоритет: %d)", s.Name(), s.Priority())
}

// Start запускает кадровый цикл в отдельной горутине
func (e *Engine) Start() {
	e.runMutex.Lock()
	defer e.runMutex.Unlock()
	if e.isRunning {
		return
	}

	e.isRunning = true
	e.statsMu.Lock()
	e.startTime = time.Now()
	e.lastTick = e.startTime
	e.statsMu.Unlock()

	e.logger.Printf("[Engine] Запуск цикла сессии: %d TPS (тик каждые %v)", e.targetTPS, e.tickDuration)
	go e.loop()
}

// Stop останавливает цикл
func (e *Engine) Stop() {
	e.runMutex.Lock()
	defer e.runMutex.Unlock()
	if !e.isRunning {
		return
	}

	e.logger.Printf("[Engine] Остановка цикла сессии (выполнено тиков: %d)", e.TickCount())
	e.cancel()
	e.isRunning = false
}

// TickCount возвращает число выполненных тиков
func (e *Engine) TickCount() uint64 {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.tickCount
}

// Stats возвращает телеметрию кадрового цикла
func (e *Engine) Stats() map[string]interface{} {
	e.statsMu.Lock()
	tickCount := e.tickCount
	startTime := e.startTime
	maxObserved := e.maxObservedTick
	slowTicks := e.slowTicks
	e.statsMu.Unlock()

	uptime := time.Duration(0)
	if !startTime.IsZero() {
		uptime = time.Since(startTime)
	}
	actualTPS := 0.0
	if uptime > 0 {
		actualTPS = float64(tickCount) / uptime.Seconds()
	}

	e.systemsMutex.RLock()
	systemsCount := len(e.systems)
	e.systemsMutex.RUnlock()

	return map[string]interface{}{
		"target_tps":        e.targetTPS,
		"actual_tps":        actualTPS,
		"tick_count":        tickCount,
		"uptime_seconds":    uptime.Seconds(),
		"max_observed_tick": maxObserved.Seconds(),
		"slow_ticks":        slowTicks,
		"systems_count":     systemsCount,
	}
}

func (e *Engine) loop() {
	ticker := time.NewTicker(e.tickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case tickTime := <-ticker.C:
			e.executeTick(tickTime)
		}
	}
}

func (e *Engine) executeTick(tickTime time.Time) {
	tickStart := time.Now()

	e.statsMu.Lock()
	dt := tickTime.Sub(e.lastTick).Seconds()
	now := tickTime.Sub(e.startTime).Seconds()
	e.lastTick = tickTime
	e.tickCount++
	e.statsMu.Unlock()

	e.systemsMutex.RLock()
	systems := make([]System, len(e.systems))
	copy(systems, e.systems)
	e.systemsMutex.RUnlock()

	for _, s := range systems {
		e.executeSystem(s, now, dt)
	}

	elapsed := time.Since(tickStart)
	e.statsMu.Lock()
	if elapsed > e.maxObservedTick {
		e.maxObservedTick = elapsed
	}
	slow := elapsed > e.tickDuration
	if slow {
		e.slowTicks++
	}
	e.statsMu.Unlock()

	if slow {
		e.logger.Printf("[Engine] ПРЕДУПРЕЖДЕНИЕ: Медленный тик: %v (цель: %v)", elapsed, e.tickDuration)
	}
}

// executeSystem выполняет одну систему; паника внутри системы не
// роняет цикл сессии
func (e *Engine) executeSystem(s System, now, dt float64) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Printf("[Engine] КРИТИЧЕСКАЯ ОШИБКА в системе %s: %v", s.Name(), r)
		}
	}()

	if err := s.Update(now, dt); err != nil {
		e.logger.Printf("[Engine] Ошибка в системе %s: %v", s.Name(), err)
	}
}
