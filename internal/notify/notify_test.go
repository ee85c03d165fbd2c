package notify

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestPush_SuppressesBurst(t *testing.T) {
	clock := clockwork.NewFakeClock()
	n := New(clock, 1600*time.Millisecond)

	if !n.Push(LevelError, "login.wrong_credentials") {
		t.Fatal("Первое уведомление должно быть показано")
	}
	clock.Advance(200 * time.Millisecond)
	if n.Push(LevelError, "login.wrong_credentials") {
		t.Error("Повтор в пределах окна должен быть подавлен")
	}

	got := n.Drain()
	if len(got) != 1 {
		t.Fatalf("Drain() вернул %d уведомлений, ожидается 1", len(got))
	}
	if got[0].Level != LevelError || got[0].Key != "login.wrong_credentials" {
		t.Errorf("Уведомление = %+v", got[0])
	}
	if len(n.Drain()) != 0 {
		t.Error("Повторный Drain() должен вернуть пустую очередь")
	}
}

func TestPush_AfterWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	n := New(clock, 1600*time.Millisecond)

	n.Push(LevelError, "server.unavailable")
	clock.Advance(1600 * time.Millisecond)
	if !n.Push(LevelError, "server.unavailable") {
		t.Error("После окна подавления уведомление должно быть показано снова")
	}
	if len(n.Drain()) != 2 {
		t.Error("Ожидается 2 уведомления")
	}
}

func TestPush_OneErrorPerBurst(t *testing.T) {
	clock := clockwork.NewFakeClock()
	n := New(clock, 1600*time.Millisecond)

	for i, key := range []string{"server.unavailable", "login.wrong_credentials", "login.missing_credentials"} {
		got := n.Push(LevelError, key)
		if want := i == 0; got != want {
			t.Errorf("Push(error, %s) = %v, ожидается %v", key, got, want)
		}
		clock.Advance(100 * time.Millisecond)
	}

	got := n.Drain()
	if len(got) != 1 || got[0].Key != "server.unavailable" {
		t.Errorf("Drain() = %+v, ожидается одна ошибка server.unavailable", got)
	}

	clock.Advance(1600 * time.Millisecond)
	if !n.Push(LevelError, "login.wrong_credentials") {
		t.Error("Ошибка после окна подавления должна быть показана")
	}
}

func TestPush_NonErrorKeysIndependent(t *testing.T) {
	n := New(clockwork.NewFakeClock(), 0)

	tests := []struct {
		level Level
		key   string
		want  bool
	}{
		{LevelSuccess, "a", true},
		{LevelSuccess, "b", true},
		{LevelInfo, "a", true},
		{LevelError, "a", true},
		{LevelSuccess, "a", false},
		{LevelError, "b", false},
	}
	for _, tt := range tests {
		if got := n.Push(tt.level, tt.key); got != tt.want {
			t.Errorf("Push(%s, %s) = %v, ожидается %v", tt.level, tt.key, got, tt.want)
		}
	}
}

func TestQueueBounded(t *testing.T) {
	clock := clockwork.NewFakeClock()
	n := New(clock, time.Millisecond)

	for i := range maxQueued + 5 {
		n.Push(LevelInfo, string(rune('a'+i)))
	}
	if got := len(n.Drain()); got != maxQueued {
		t.Errorf("Очередь = %d, ожидается %d", got, maxQueued)
	}
}
