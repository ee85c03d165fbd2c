// Пакет notify — всплывающие уведомления рабочего пространства.
// За окно подавления показывается не более одной ошибки (любой), а
// одинаковые уведомления других типов показываются один раз: двойной клик
// по кнопке входа даёт одно сообщение об ошибке.
package notify

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultWindow — окно подавления повторов по умолчанию.
const DefaultWindow = 1600 * time.Millisecond

// maxQueued — максимальная длина очереди непоказанных уведомлений.
const maxQueued = 20

// Level — тип уведомления.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification — уведомление для показа пользователю.
// Key — ключ сообщения в каталоге переводов.
type Notification struct {
	Level Level
	Key   string
}

// Notifier — очередь уведомлений с подавлением повторов.
type Notifier struct {
	mu     sync.Mutex
	clock  clockwork.Clock
	window time.Duration
	last   map[string]time.Time
	// lastError — время последней показанной ошибки
	lastError time.Time
	queue  []Notification
}

// New создаёт Notifier.
func New(clock clockwork.Clock, window time.Duration) *Notifier {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Notifier{
		clock:  clock,
		window: window,
		last:   make(map[string]time.Time),
	}
}

// Push ставит уведомление в очередь. Возвращает false, если уведомление
// подавлено: в пределах окна уже показывалась ошибка (для LevelError)
// либо такое же уведомление (для остальных типов).
func (n *Notifier) Push(level Level, key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.clock.Now()
	if level == LevelError {
		if !n.lastError.IsZero() && now.Sub(n.lastError) < n.window {
			return false
		}
		n.lastError = now
	} else {
		id := string(level) + ":" + key
		if at, ok := n.last[id]; ok && now.Sub(at) < n.window {
			return false
		}
		n.last[id] = now
	}

	n.queue = append(n.queue, Notification{Level: level, Key: key})
	if len(n.queue) > maxQueued {
		n.queue = n.queue[len(n.queue)-maxQueued:]
	}
	n.pruneLocked(now)
	return true
}

// Drain возвращает накопленные уведомления и очищает очередь.
func (n *Notifier) Drain() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := n.queue
	n.queue = nil
	return out
}

// pruneLocked удаляет отметки времени старше окна подавления.
func (n *Notifier) pruneLocked(now time.Time) {
	for id, at := range n.last {
		if now.Sub(at) >= n.window {
			delete(n.last, id)
		}
	}
}
