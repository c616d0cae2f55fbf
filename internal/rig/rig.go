package rig

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Params - параметры процедурного скелета. Все поля обязательны и
// проверяются один раз при построении.
type Params struct {
	Height     float32 // высота торса
	ArmLength  float32
	LegLength  float32
	Thickness  float32 // толщина конечностей
	TorsoWidth float32
	Blobbiness float32 // 0..1, влияет на squash/stretch и подпрыгивание
}

func (p Params) validate() error {
	if p.Height <= 0 || p.ArmLength <= 0 || p.LegLength <= 0 ||
		p.Thickness <= 0 || p.TorsoWidth <= 0 {
		return errors.Errorf("все размеры скелета должны быть положительными: %+v", p)
	}
	if p.Blobbiness < 0 || p.Blobbiness > 1 {
		return errors.Errorf("blobbiness должен быть в [0, 1], получили %.2f", p.Blobbiness)
	}
	return nil
}

// DefaultParams возвращает параметры скелета по умолчанию
func DefaultParams() Params {
	return Params{
		Height:     1.2,
		ArmLength:  0.9,
		LegLength:  0.8,
		Thickness:  0.22,
		TorsoWidth: 0.7,
		Blobbiness: 0.6,
	}
}

// Colors - цвета персонажа в hex-нотации. Head считается основным
// цветом и уходит в параметры портального перехода.
type Colors struct {
	Head  string
	Torso string
	Limbs string
}

// DefaultColors возвращает цвета по умолчанию
func DefaultColors() Colors {
	return Colors{
		Head:  "#FFB347",
		Torso: "#FF8C42",
		Limbs: "#E07B39",
	}
}

// Node - узел скелета: локальная позиция, эйлеровы углы и масштаб
type Node struct {
	Name     string
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
}

func newNode(name string, pos mgl32.Vec3) *Node {
	return &Node{
		Name:     name,
		Position: pos,
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Rig - процедурный скелет персонажа: торс, голова, руки и ноги,
// подвешенные к корневому узлу. Корень несет мировой yaw и общий масштаб.
type Rig struct {
	Root  *Node
	Torso *Node
	Head  *Node
	ArmL  *Node
	ArmR  *Node
	LegL  *Node
	LegR  *Node

	params Params
	colors Colors

	// Исходный масштаб персонажа. Все масштабные эффекты выражаются
	// относительно него, никогда абсолютной записью.
	baseScale float32
}

// New строит скелет по параметрам. Ошибка построения фатальна
// для старта игры.
func New(params Params, colors Colors) (*Rig, error) {
	if err := params.validate(); err != nil {
		return nil, errors.Wrap(err, "построение скелета")
	}
	// Незаданные цвета добираются по отдельности: частичная
	// кастомизация (только основной цвет) не теряется
	def := DefaultColors()
	if colors.Head == "" {
		colors.Head = def.Head
	}
	if colors.Torso == "" {
		colors.Torso = def.Torso
	}
	if colors.Limbs == "" {
		colors.Limbs = def.Limbs
	}

	hipY := params.LegLength
	shoulderY := hipY + params.Height*0.85
	halfW := params.TorsoWidth / 2

	r := &Rig{
		Root:      newNode("root", mgl32.Vec3{}),
		Torso:     newNode("torso", mgl32.Vec3{0, hipY + params.Height/2, 0}),
		Head:      newNode("head", mgl32.Vec3{0, hipY + params.Height + params.Thickness, 0}),
		ArmL:      newNode("arm_l", mgl32.Vec3{-halfW - params.Thickness/2, shoulderY, 0}),
		ArmR:      newNode("arm_r", mgl32.Vec3{halfW + params.Thickness/2, shoulderY, 0}),
		LegL:      newNode("leg_l", mgl32.Vec3{-halfW / 2, hipY, 0}),
		LegR:      newNode("leg_r", mgl32.Vec3{halfW / 2, hipY, 0}),
		params:    params,
		colors:    colors,
		baseScale: 1.0,
	}
	return r, nil
}

// Params возвращает параметры скелета
func (r *Rig) Params() Params {
	return r.params
}

// Colors возвращает текущие цвета персонажа
func (r *Rig) Colors() Colors {
	return r.colors
}

// SetPrimaryColor перекрашивает голову и торс (кастомизация из
// параметров сессии)
func (r *Rig) SetPrimaryColor(hex string) {
	r.colors.Head = hex
	r.colors.Torso = hex
}

// PrimaryColor возвращает основной цвет персонажа
func (r *Rig) PrimaryColor() string {
	return r.colors.Head
}

// BaseScale возвращает исходный масштаб персонажа
func (r *Rig) BaseScale() float32 {
	return r.baseScale
}
