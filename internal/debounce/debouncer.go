package debounce

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultQuietPeriod — период тишины по умолчанию.
const DefaultQuietPeriod = 500 * time.Millisecond

// Debouncer хранит вводимое значение поиска и применяет его после
// периода тишины.
type Debouncer struct {
	mu        sync.Mutex
	clock     clockwork.Clock
	quiet     time.Duration
	sanitizer *Sanitizer

	timer   clockwork.Timer
	seq     uint64 // номер последнего изменения
	pending string // очищенное значение последнего изменения

	value      string // применённое значение
	settledSeq uint64 // номер изменения, давшего value

	// signal закрывается и заменяется при каждом изменении или применении
	signal chan struct{}
}

// New создаёт Debouncer. clock — источник времени (clockwork.NewRealClock в работе,
// clockwork.NewFakeClock в тестах).
func New(clock clockwork.Clock, quiet time.Duration, sanitizer *Sanitizer) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Debouncer{
		clock:     clock,
		quiet:     quiet,
		sanitizer: sanitizer,
		signal:    make(chan struct{}),
	}
}

// Update принимает новое сырое значение. Возвращает очищенное значение и
// номер изменения для Await. Таймер перезапускается даже если очищенное
// значение не изменилось.
func (d *Debouncer) Update(raw string) (string, uint64) {
	sanitized := d.sanitizer.Sanitize(raw)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	seq := d.seq
	d.pending = sanitized

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.quiet, func() { d.settle(seq) })

	d.broadcastLocked()
	return sanitized, seq
}

// settle применяет значение, если изменение seq всё ещё последнее.
func (d *Debouncer) settle(seq uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if seq != d.seq {
		return
	}
	d.value = d.pending
	d.settledSeq = seq
	d.timer = nil
	d.broadcastLocked()
}

// Value возвращает применённое значение.
func (d *Debouncer) Value() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

// Pending возвращает очищенное значение, ожидающее применения.
func (d *Debouncer) Pending() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Await ждёт применения изменения seq.
// Возвращает (значение, true), если оно применено, и ("", false), если его
// вытеснило более новое изменение или отменён ctx.
func (d *Debouncer) Await(ctx context.Context, seq uint64) (string, bool) {
	for {
		d.mu.Lock()
		if d.seq != seq {
			d.mu.Unlock()
			return "", false
		}
		if d.settledSeq == seq {
			v := d.value
			d.mu.Unlock()
			return v, true
		}
		ch := d.signal
		d.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return "", false
		}
	}
}

// Reset немедленно применяет пустое значение (например, при выходе).
func (d *Debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.pending, d.value = "", ""
	d.settledSeq = d.seq
	d.broadcastLocked()
}

func (d *Debouncer) broadcastLocked() {
	close(d.signal)
	d.signal = make(chan struct{})
}
