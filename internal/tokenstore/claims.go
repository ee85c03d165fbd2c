package tokenstore

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims — данные из payload JWT, нужные интерфейсу.
type Claims struct {
	Subject string
	Name    string
}

// ParseClaims разбирает payload JWT без проверки подписи.
// Подлинность токена подтверждает только backend (POST /auth/verify);
// здесь извлекается лишь отображаемое имя.
func ParseClaims(token string) (Claims, error) {
	parser := jwt.NewParser()
	mc := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("ошибка разбора JWT: %w", err)
	}

	var c Claims
	c.Subject, _ = mc.GetSubject()
	for _, field := range []string{"name", "preferred_username"} {
		if v, ok := mc[field].(string); ok && v != "" {
			c.Name = v
			break
		}
	}
	if c.Name == "" {
		c.Name = c.Subject
	}
	return c, nil
}
