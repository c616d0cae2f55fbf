package world

import (
	"sync"

	"x-runner/internal/physics"
)

// WorldConfig - глобальные настройки физики мира
type WorldConfig struct {
	// Гравитация
	GravityY float32

	// Единый вертикальный сдвиг всех партиций террейна:
	// партиции остаются копланарными друг другу
	VerticalOffset float32

	// Затухание динамических тел
	LinearDamping float32
}

// ContactConfig - параметры контакта динамического материала
// с каждой партицией террейна и партиций с самими собой
type ContactConfig struct {
	Flat     physics.ContactParams
	Pit      physics.ContactParams
	Mountain physics.ContactParams

	// Контакт партиции с самой собой (статика со статикой не
	// сталкивается, но таблица обязана быть полной)
	TerrainSelf physics.ContactParams
}

type Config struct {
	World   WorldConfig
	Contact ContactConfig
}

var (
	config   Config
	configMu sync.RWMutex
)

// Конфигурация по умолчанию
func init() {
	config = Config{
		World: WorldConfig{
			GravityY:       -24.0, // платформер: гравитация сильнее реальной для упругого прыжка
			VerticalOffset: 0.0,
			LinearDamping:  0.3,
		},
		Contact: ContactConfig{
			Flat:        physics.ContactParams{Friction: 0.55, Restitution: 0.0},
			Pit:         physics.ContactParams{Friction: 0.35, Restitution: 0.05},
			Mountain:    physics.ContactParams{Friction: 0.75, Restitution: 0.0},
			TerrainSelf: physics.ContactParams{Friction: 1.0, Restitution: 0.0},
		},
	}
}

// GetConfig возвращает текущую конфигурацию мира
func GetConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return config
}

// SetConfig устанавливает новую конфигурацию мира
func SetConfig(c Config) {
	configMu.Lock()
	defer configMu.Unlock()
	config = c
}

// contactFor возвращает параметры контакта динамического тела
// с партицией по ее имени
func (c ContactConfig) contactFor(name string) physics.ContactParams {
	switch name {
	case physics.MaterialPit:
		return c.Pit
	case physics.MaterialMountain:
		return c.Mountain
	default:
		return c.Flat
	}
}
