package ws

import (
	"encoding/json"

	"github.com/pkg/errors"

	"x-runner/internal/game"
)

// Типы входящих сообщений
const (
	MessageTypeInput      = "input"
	MessageTypeStart      = "start"
	MessageTypeCamera     = "camera"
	MessageTypeCameraLock = "camera_lock"
	MessageTypeRespawn    = "respawn"
	MessageTypePing       = "ping"
	MessageTypeStats      = "stats"
)

// Типы исходящих сообщений
const (
	MessageTypeInit             = "init"
	MessageTypeState            = "state"
	MessageTypePong             = "pong"
	MessageTypeStatsReport      = "stats_report"
	MessageTypePlayerSize       = "player_size"
	MessageTypePlayerDied       = "player_died"
	MessageTypePlayerRespawned  = "player_respawned"
	MessageTypeItemSpawned      = "item_spawned"
	MessageTypeItemConsumed     = "item_consumed"
	MessageTypePortalActivated  = "portal_activated"
	MessageTypePortalTransition = "portal_transition"
)

// InputMessage - удерживаемый ввод движения
type InputMessage struct {
	Type     string `json:"type"`
	Forward  bool   `json:"forward"`
	Backward bool   `json:"backward"`
	Left     bool   `json:"left"`
	Right    bool   `json:"right"`
	Jump     bool   `json:"jump"`
}

// CameraMessage - углы орбиты камеры
type CameraMessage struct {
	Type  string  `json:"type"`
	Yaw   float32 `json:"yaw"`
	Pitch float32 `json:"pitch"`
}

// CameraLockMessage - захват/освобождение указателя на клиенте
type CameraLockMessage struct {
	Type   string `json:"type"`
	Locked bool   `json:"locked"`
}

// PingMessage - запрос задержки
type PingMessage struct {
	Type       string  `json:"type"`
	ClientTime float64 `json:"client_time"`
}

// PongMessage - ответ на ping
type PongMessage struct {
	Type       string  `json:"type"`
	ClientTime float64 `json:"client_time"`
	ServerTime float64 `json:"server_time"`
}

// InitMessage - снимок мира при подключении
type InitMessage struct {
	Type          string              `json:"type"`
	PlayerID      string              `json:"player_id"`
	Name          string              `json:"name"`
	Color         string              `json:"color"`
	ScaleFactor   float32             `json:"scale_factor"`
	SkipStartGate bool                `json:"skip_start_gate"`
	Spawn         [3]float32          `json:"spawn"`
	HalfExtent    float32             `json:"half_extent"`
	Portals       []*game.Portal      `json:"portals"`
	Items         []*game.Collectible `json:"items"`
}

// PlayerState - состояние персонажа в кадровом обновлении
type PlayerState struct {
	X           float32 `json:"x"`
	Y           float32 `json:"y"`
	Z           float32 `json:"z"`
	Yaw         float32 `json:"yaw"`
	State       string  `json:"state"`
	ScaleFactor float32 `json:"scale_factor"`
	Bounce      float32 `json:"bounce"`
	Grounded    bool    `json:"grounded"`
	Dead        bool    `json:"dead"`
}

// StateMessage - периодическое обновление состояния сессии
type StateMessage struct {
	Type           string      `json:"type"`
	ServerTime     float64     `json:"server_time"`
	Player         PlayerState `json:"player"`
	CameraDistance float32     `json:"camera_distance"`
}

// PlayerSizeMessage - изменение фактора роста
type PlayerSizeMessage struct {
	Type   string  `json:"type"`
	Factor float32 `json:"factor"`
	Radius float32 `json:"radius"`
}

// ItemSpawnedMessage - появление предмета
type ItemSpawnedMessage struct {
	Type string            `json:"type"`
	Item *game.Collectible `json:"item"`
}

// ItemConsumedMessage - поедание предмета
type ItemConsumedMessage struct {
	Type   string  `json:"type"`
	ItemID string  `json:"item_id"`
	Factor float32 `json:"factor"`
}

// PortalActivatedMessage - игрок вошел в портал
type PortalActivatedMessage struct {
	Type     string `json:"type"`
	PortalID string `json:"portal_id"`
}

// PortalTransitionMessage - команда клиенту перейти по URL
type PortalTransitionMessage struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// EventMessage - событие без полезной нагрузки (смерть, возрождение)
type EventMessage struct {
	Type string `json:"type"`
}

// MessageType возвращает тип сообщения из сырых данных
func MessageType(data []byte) (string, error) {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return "", errors.Wrap(err, "разбор типа сообщения")
	}
	if base.Type == "" {
		return "", errors.New("сообщение без типа")
	}
	return base.Type, nil
}
