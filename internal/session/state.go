// Пакет session — жизненный цикл сессии пользователя.
//
// Состояния:
//   - unverified — токен восстановлен из cookie, но ещё не проверен
//   - verifying — идёт проверка токена (POST /auth/verify)
//   - authenticated — токен подтверждён либо получен при входе
//   - unauthenticated — токена нет или он отклонён
//
// Проверка сохранённого токена выполняется один раз на рабочее пространство.
package session

import "fmt"

// State — состояние сессии.
type State string

const (
	StateUnverified      State = "unverified"
	StateVerifying       State = "verifying"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

// validTransitions — матрица допустимых переходов.
// Ключ — текущее состояние, значение — набор допустимых целевых состояний.
var validTransitions = map[State]map[State]bool{
	StateUnverified: {
		StateVerifying:       true,
		StateAuthenticated:   true,
		StateUnauthenticated: true,
	},
	StateVerifying: {
		StateAuthenticated:   true,
		StateUnauthenticated: true,
	},
	StateAuthenticated: {
		StateAuthenticated:   true, // повторный вход
		StateUnauthenticated: true,
	},
	StateUnauthenticated: {
		StateAuthenticated:   true,
		StateUnauthenticated: true, // повторный выход
	},
}

// CanTransition проверяет допустимость перехода from → to.
func CanTransition(from, to State) bool {
	return validTransitions[from][to]
}

// settled — состояние, в котором проверка сессии завершена.
func (s State) settled() bool {
	return s == StateAuthenticated || s == StateUnauthenticated
}

// TransitionError — ошибка перехода между состояниями сессии.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("INVALID_TRANSITION: переход %s → %s недопустим", e.From, e.To)
}
