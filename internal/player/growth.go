package player

// GrowthState - единственный владелец текущего фактора роста.
// Контроллер проталкивает значение в скелет и камеру при каждом
// изменении; независимых зеркал состояния нет.
type GrowthState struct {
	factor float32
}

// Factor возвращает текущий фактор роста (>= 1)
func (g *GrowthState) Factor() float32 {
	if g.factor < 1 {
		return 1
	}
	return g.factor
}

// grow монотонно увеличивает фактор с ограничением сверху
func (g *GrowthState) grow(multiplier, max float32) float32 {
	f := g.Factor() * multiplier
	if f > max {
		f = max
	}
	g.factor = f
	return f
}

func (g *GrowthState) reset() {
	g.factor = 1
}
