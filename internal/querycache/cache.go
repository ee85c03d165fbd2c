// Пакет querycache — кэш результатов запросов к REST API.
//
// Гарантии:
//   - для каждого ключа одновременно выполняется не более одного запроса,
//     параллельные вызовы присоединяются к нему;
//   - Invalidate удаляет готовые записи по префиксу ключа и помечает
//     выполняющиеся запросы устаревшими (их результат не сохраняется);
//   - ресурсы из Options.Pinned не вытесняются LRU;
//   - запись старше Options.TTL считается промахом.
//
// Срок жизни записи проверяется при чтении по часам Options.Clock;
// горутин очистки у кэша нет.
package querycache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ra_cache_hits_total",
		Help: "Общее количество попаданий в кэш запросов.",
	}, []string{"resource"})
	cacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ra_cache_misses_total",
		Help: "Общее количество промахов кэша запросов (запущен запрос к API).",
	}, []string{"resource"})
	cacheCoalescedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ra_cache_coalesced_total",
		Help: "Количество вызовов, присоединившихся к уже выполняющемуся запросу.",
	}, []string{"resource"})
	cacheInvalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ra_cache_invalidated_entries_total",
		Help: "Количество записей, удалённых инвалидацией.",
	})
)

// FetchFunc загружает значение для ключа.
type FetchFunc func(ctx context.Context) (any, error)

// Options — параметры кэша.
type Options struct {
	// Size — максимальное количество вытесняемых записей
	Size int
	// TTL — время жизни записи (0 — без ограничения)
	TTL time.Duration
	// Pinned — ресурсы (первый компонент ключа), записи которых не вытесняются
	Pinned []string
	// Clock — часы для проверки TTL (по умолчанию реальные)
	Clock  clockwork.Clock
	Logger *slog.Logger
}

type entry struct {
	key   Key
	value any
	// expiresAt — нулевое значение для записей без TTL
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// call — выполняющийся запрос.
type call struct {
	key    Key
	done   chan struct{}
	val    any
	err    error
	cancel context.CancelFunc

	// waiters — количество ожидающих вызовов; при 0 запрос отменяется
	waiters int
	// stale — запрос инвалидирован либо брошен всеми ожидающими
	stale bool
}

// Cache — кэш запросов одного рабочего пространства.
type Cache struct {
	mu        sync.Mutex
	lru       *lru.Cache[string, entry]
	ttl       time.Duration
	clock     clockwork.Clock
	pinned    map[string]entry
	pinnedRes map[string]bool
	inflight  map[string]*call
	logger    *slog.Logger
}

// New создаёт кэш.
func New(opts Options) *Cache {
	size := opts.Size
	if size <= 0 {
		size = 256
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	// Ошибка возможна только при size <= 0
	entries, _ := lru.New[string, entry](size)

	pinnedRes := make(map[string]bool, len(opts.Pinned))
	for _, r := range opts.Pinned {
		pinnedRes[r] = true
	}

	return &Cache{
		lru:       entries,
		ttl:       opts.TTL,
		clock:     clock,
		pinned:    make(map[string]entry),
		pinnedRes: pinnedRes,
		inflight:  make(map[string]*call),
		logger:    logger.With(slog.String("component", "querycache")),
	}
}

// Peek возвращает готовое значение без запуска запроса.
func (c *Cache) Peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookupLocked(key)
}

// Fetch возвращает значение для ключа: из кэша, присоединившись к
// выполняющемуся запросу либо запустив fn.
//
// fn выполняется на контексте, не зависящем от ctx конкретного вызова.
// Если все ожидающие вызовы отменены, контекст fn отменяется.
func (c *Cache) Fetch(ctx context.Context, key Key, fn FetchFunc) (any, error) {
	id := key.id()
	resource := key.Resource()

	c.mu.Lock()
	if v, ok := c.lookupLocked(key); ok {
		c.mu.Unlock()
		cacheHitsTotal.WithLabelValues(resource).Inc()
		return v, nil
	}

	cl, ok := c.inflight[id]
	if ok && !cl.stale {
		cl.waiters++
		c.mu.Unlock()
		cacheCoalescedTotal.WithLabelValues(resource).Inc()
	} else {
		fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		cl = &call{
			key:     key,
			done:    make(chan struct{}),
			cancel:  cancel,
			waiters: 1,
		}
		c.inflight[id] = cl
		c.mu.Unlock()
		cacheMissesTotal.WithLabelValues(resource).Inc()

		go c.run(fetchCtx, id, cl, fn)
	}

	select {
	case <-cl.done:
		return cl.val, cl.err
	case <-ctx.Done():
		c.leave(id, cl)
		return nil, ctx.Err()
	}
}

// run выполняет запрос и сохраняет результат, если вызов не устарел.
func (c *Cache) run(ctx context.Context, id string, cl *call, fn FetchFunc) {
	val, err := fn(ctx)

	c.mu.Lock()
	if c.inflight[id] == cl {
		delete(c.inflight, id)
	}
	if err == nil && !cl.stale {
		c.storeLocked(cl.key, val)
	}
	cl.val, cl.err = val, err
	stale := cl.stale
	c.mu.Unlock()

	close(cl.done)
	cl.cancel()

	if stale {
		c.logger.Debug("Результат устаревшего запроса не сохранён",
			slog.String("key", cl.key.String()))
	}
}

// leave снимает ожидающий вызов; последний ушедший отменяет запрос.
func (c *Cache) leave(id string, cl *call) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cl.waiters--
	if cl.waiters > 0 {
		return
	}
	select {
	case <-cl.done:
		return
	default:
	}
	cl.stale = true
	if c.inflight[id] == cl {
		delete(c.inflight, id)
	}
	cl.cancel()
}

// Invalidate удаляет записи, ключ которых начинается с prefix,
// и помечает соответствующие выполняющиеся запросы устаревшими.
func (c *Cache) Invalidate(prefix Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, id := range c.lru.Keys() {
		e, ok := c.lru.Peek(id)
		if ok && e.key.HasPrefix(prefix) {
			c.lru.Remove(id)
			removed++
		}
	}
	for id, e := range c.pinned {
		if e.key.HasPrefix(prefix) {
			delete(c.pinned, id)
			removed++
		}
	}
	for id, cl := range c.inflight {
		if cl.key.HasPrefix(prefix) {
			cl.stale = true
			delete(c.inflight, id)
		}
	}

	cacheInvalidationsTotal.Add(float64(removed))
	c.logger.Debug("Инвалидация кэша",
		slog.String("prefix", prefix.String()),
		slog.Int("removed", removed),
	)
}

// Clear удаляет все записи (выход пользователя).
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := c.lru.Len() + len(c.pinned)
	c.lru.Purge()
	c.pinned = make(map[string]entry)
	for id, cl := range c.inflight {
		cl.stale = true
		delete(c.inflight, id)
	}
	cacheInvalidationsTotal.Add(float64(removed))
}

// Len возвращает количество готовых записей.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len() + len(c.pinned)
}

func (c *Cache) lookupLocked(key Key) (any, bool) {
	id := key.id()
	if c.pinnedRes[key.Resource()] {
		e, ok := c.pinned[id]
		return e.value, ok
	}
	e, ok := c.lru.Get(id)
	if !ok {
		return nil, false
	}
	if e.expired(c.clock.Now()) {
		c.lru.Remove(id)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) storeLocked(key Key, val any) {
	e := entry{key: key, value: val}
	if c.ttl > 0 && !c.pinnedRes[key.Resource()] {
		e.expiresAt = c.clock.Now().Add(c.ttl)
	}
	if c.pinnedRes[key.Resource()] {
		c.pinned[key.id()] = e
		return
	}
	c.lru.Add(key.id(), e)
}
