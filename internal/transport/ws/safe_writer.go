package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// SafeWriter обеспечивает потокобезопасную запись в WebSocket
// соединение: в нее пишут и кадровый цикл сессии, и обработчики
// входящих сообщений
type SafeWriter struct {
	conn  *websocket.Conn
	mutex sync.Mutex
}

// NewSafeWriter создает новый экземпляр SafeWriter
func NewSafeWriter(conn *websocket.Conn) *SafeWriter {
	return &SafeWriter{conn: conn}
}

// WriteJSON потокобезопасно записывает JSON данные в соединение
func (w *SafeWriter) WriteJSON(v interface{}) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.WriteJSON(v)
}

// Close закрывает соединение
func (w *SafeWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.Close()
}

// ReadMessage читает сообщение из соединения. Не потокобезопасно:
// читает только горутина соединения.
func (w *SafeWriter) ReadMessage() (int, []byte, error) {
	return w.conn.ReadMessage()
}
