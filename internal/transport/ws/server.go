package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"x-runner/internal/game"
	"x-runner/internal/player"
	"x-runner/internal/world"
)

// Интервал отправки кадровых обновлений клиенту
const DefaultUpdateInterval = 50 * time.Millisecond

// Server - WebSocket сервер. На каждое соединение поднимается
// собственная игровая сессия со своим физическим миром и кадровым
// циклом; общий между сессиями только неизменяемый датасет террейна.
type Server struct {
	upgrader websocket.Upgrader
	dataset  *world.Dataset
	opts     game.SessionOptions
	logger   *log.Logger
}

// NewServer создает сервер поверх загруженного датасета
func NewServer(dataset *world.Dataset, opts game.SessionOptions, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		dataset: dataset,
		opts:    opts,
		logger:  logger,
	}
}

// clientConn - одно соединение с клиентом: писатель, сессия и
// обработчики. Реализует интерфейсы событий игрока, предметов и
// порталов.
type clientConn struct {
	writer  *SafeWriter
	session *game.Session
	logger  *log.Logger
}

// HandleWS обрабатывает апгрейд и жизненный цикл соединения.
// Параметры передачи игрока читаются из query-строки апгрейда.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("[WSServer] Ошибка апгрейда соединения: %v", err)
		return
	}

	client := &clientConn{
		writer: NewSafeWriter(conn),
		logger: s.logger,
	}

	handoff := game.ParseHandoff(r.URL.Query())
	session, err := game.NewSession(s.dataset, handoff, s.opts, client, s.logger)
	if err != nil {
		s.logger.Printf("[WSServer] Ошибка сборки сессии: %v", err)
		client.writer.Close()
		return
	}
	client.session = session

	session.Collectibles.SetBroadcaster(client)
	session.Portals.SetBroadcaster(client)
	session.Engine.RegisterSystem(&broadcastSystem{client: client})

	s.logger.Printf("[WSServer] Новая сессия: имя=%q, портал=%v", handoff.Name, handoff.FromPortal)

	if err := client.sendInit(); err != nil {
		s.logger.Printf("[WSServer] Ошибка отправки init: %v", err)
		client.writer.Close()
		return
	}

	session.Start()
	defer func() {
		session.Stop()
		client.writer.Close()
		s.logger.Printf("[WSServer] Сессия закрыта")
	}()

	client.readLoop()
}

// sendInit отправляет клиенту снимок мира при подключении
func (c *clientConn) sendInit() error {
	h := c.session.Handoff
	spawn := player.DefaultConfig().SpawnPoint

	return c.writer.WriteJSON(&InitMessage{
		Type:          MessageTypeInit,
		PlayerID:      c.session.Controller.Body().ID,
		Name:          h.Name,
		Color:         c.session.Rig.PrimaryColor(),
		ScaleFactor:   c.session.Controller.ScaleFactor(),
		SkipStartGate: h.SkipStartGate(),
		Spawn:         [3]float32{spawn.X(), spawn.Y(), spawn.Z()},
		HalfExtent:    c.session.Terrain.HalfExtent(),
		Portals:       c.session.Portals.Portals(),
		Items:         c.session.Collectibles.Items(),
	})
}

// readLoop читает и диспетчеризует входящие сообщения до закрытия
// соединения
func (c *clientConn) readLoop() {
	for {
		_, data, err := c.writer.ReadMessage()
		if err != nil {
			c.logger.Printf("[WSServer] Чтение завершено: %v", err)
			return
		}

		msgType, err := MessageType(data)
		if err != nil {
			c.logger.Printf("[WSServer] %v", err)
			continue
		}

		if err := c.dispatch(msgType, data); err != nil {
			c.logger.Printf("[WSServer] Ошибка обработки сообщения %s: %v", msgType, err)
		}
	}
}

func (c *clientConn) dispatch(msgType string, data []byte) error {
	switch msgType {
	case MessageTypeInput:
		return c.handleInput(data)
	case MessageTypeStart:
		return c.handleStart()
	case MessageTypeCamera:
		return c.handleCamera(data)
	case MessageTypeCameraLock:
		return c.handleCameraLock(data)
	case MessageTypeRespawn:
		return c.handleRespawn()
	case MessageTypePing:
		return c.handlePing(data)
	case MessageTypeStats:
		return c.handleStats()
	default:
		c.logger.Printf("[WSServer] Нет обработчика для типа сообщения: %s", msgType)
		return nil
	}
}

func (c *clientConn) handleInput(data []byte) error {
	var msg InputMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}

	c.session.Controller.SetInput(player.InputState{
		Forward:  msg.Forward,
		Backward: msg.Backward,
		Left:     msg.Left,
		Right:    msg.Right,
		JumpHeld: msg.Jump,
	})
	return nil
}

// handleStart - стартовый экран пройден, ввод включается
func (c *clientConn) handleStart() error {
	c.session.Controller.EnableInput()
	c.logger.Printf("[WSServer] Старт сессии подтвержден клиентом")
	return nil
}

func (c *clientConn) handleCamera(data []byte) error {
	var msg CameraMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	c.session.Controller.Camera().SetAngles(msg.Yaw, msg.Pitch)
	return nil
}

func (c *clientConn) handleCameraLock(data []byte) error {
	var msg CameraLockMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}

	if msg.Locked {
		c.session.Controller.Camera().Engage()
	} else {
		c.session.Controller.Camera().Release()
	}
	return nil
}

// handleRespawn только ставит заявку: само возрождение выполняет
// кадровый цикл, живого игрока заявка не трогает
func (c *clientConn) handleRespawn() error {
	c.session.Controller.RequestRespawn()
	return nil
}

func (c *clientConn) handlePing(data []byte) error {
	var msg PingMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}

	return c.writer.WriteJSON(&PongMessage{
		Type:       MessageTypePong,
		ClientTime: msg.ClientTime,
		ServerTime: float64(time.Now().UnixNano()) / 1e9,
	})
}

func (c *clientConn) handleStats() error {
	return c.writer.WriteJSON(map[string]interface{}{
		"type":   MessageTypeStatsReport,
		"engine": c.session.Engine.Stats(),
	})
}

// --- События игрока ---

func (c *clientConn) PlayerDied() {
	if err := c.writer.WriteJSON(&EventMessage{Type: MessageTypePlayerDied}); err != nil {
		c.logger.Printf("[WSServer] Ошибка отправки события смерти: %v", err)
	}
}

func (c *clientConn) PlayerRespawned() {
	if err := c.writer.WriteJSON(&EventMessage{Type: MessageTypePlayerRespawned}); err != nil {
		c.logger.Printf("[WSServer] Ошибка отправки события возрождения: %v", err)
	}
}

func (c *clientConn) GrowthChanged(factor float32) {
	msg := &PlayerSizeMessage{
		Type:   MessageTypePlayerSize,
		Factor: factor,
		Radius: c.session.Controller.Radius(),
	}
	if err := c.writer.WriteJSON(msg); err != nil {
		c.logger.Printf("[WSServer] Ошибка отправки размера игрока: %v", err)
	}
}

// --- События предметов ---

func (c *clientConn) BroadcastCollectibleSpawned(item *game.Collectible) {
	if err := c.writer.WriteJSON(&ItemSpawnedMessage{Type: MessageTypeItemSpawned, Item: item}); err != nil {
		c.logger.Printf("[WSServer] Ошибка отправки спавна предмета: %v", err)
	}
}

func (c *clientConn) BroadcastCollectibleConsumed(playerID, itemID string, factor float32) {
	msg := &ItemConsumedMessage{
		Type:   MessageTypeItemConsumed,
		ItemID: itemID,
		Factor: factor,
	}
	if err := c.writer.WriteJSON(msg); err != nil {
		c.logger.Printf("[WSServer] Ошибка отправки поедания предмета: %v", err)
	}
}

// --- События порталов ---

func (c *clientConn) BroadcastPortalActivated(portalID string) {
	if err := c.writer.WriteJSON(&PortalActivatedMessage{Type: MessageTypePortalActivated, PortalID: portalID}); err != nil {
		c.logger.Printf("[WSServer] Ошибка отправки активации портала: %v", err)
	}
}

func (c *clientConn) BroadcastPortalTransition(url string) {
	if err := c.writer.WriteJSON(&PortalTransitionMessage{Type: MessageTypePortalTransition, URL: url}); err != nil {
		c.logger.Printf("[WSServer] Ошибка отправки перехода: %v", err)
	}
}

// broadcastSystem отправляет кадровые обновления состояния с частотой
// DefaultUpdateInterval, выполняясь последней в тике
type broadcastSystem struct {
	client   *clientConn
	lastSent time.Time
}

func (b *broadcastSystem) Name() string  { return "Broadcast" }
func (b *broadcastSystem) Priority() int { return game.PriorityBroadcast }

func (b *broadcastSystem) Update(now, dt float64) error {
	if time.Since(b.lastSent) < DefaultUpdateInterval {
		return nil
	}
	b.lastSent = time.Now()

	s := b.client.session
	pos := s.Controller.Position()

	return b.client.writer.WriteJSON(&StateMessage{
		Type:       MessageTypeState,
		ServerTime: float64(time.Now().UnixNano()) / 1e9,
		Player: PlayerState{
			X:           pos.X(),
			Y:           pos.Y() + s.Animator.BounceOffset(),
			Z:           pos.Z(),
			Yaw:         s.Animator.Yaw(),
			State:       s.Animator.State().String(),
			ScaleFactor: s.Controller.ScaleFactor(),
			Bounce:      s.Animator.BounceOffset(),
			Grounded:    s.Controller.IsGrounded(),
			Dead:        s.Controller.IsDead(),
		},
		CameraDistance: s.Controller.Camera().Distance(),
	})
}
