package physics

import "sync"

// Имена материалов, известные всему движку. Игрок всегда использует
// MaterialDynamic, партиции террейна — свои именованные материалы.
const (
	MaterialDynamic  = "physics"
	MaterialFlat     = "flat"
	MaterialPit      = "pit"
	MaterialMountain = "mountain"
)

// ContactParams - параметры контакта для упорядоченной пары материалов
type ContactParams struct {
	Friction    float32
	Restitution float32
}

// ContactTable хранит параметры контакта для каждой пары материалов,
// которые могут соприкасаться. Определение симметрично: Define(a, b)
// регистрирует обе упорядоченные пары.
type ContactTable struct {
	pairs map[[2]string]ContactParams
	mu    sync.RWMutex
}

func NewContactTable() *ContactTable {
	return &ContactTable{
		pairs: make(map[[2]string]ContactParams),
	}
}

// Define регистрирует параметры контакта для пары материалов (симметрично)
func (t *ContactTable) Define(a, b string, params ContactParams) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pairs[[2]string{a, b}] = params
	t.pairs[[2]string{b, a}] = params
}

// Lookup возвращает параметры контакта для пары материалов
func (t *ContactTable) Lookup(a, b string) (ContactParams, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	params, ok := t.pairs[[2]string{a, b}]
	return params, ok
}

// HasPair сообщает, определена ли пара материалов
func (t *ContactTable) HasPair(a, b string) bool {
	_, ok := t.Lookup(a, b)
	return ok
}
