// Пакет tokenstore — хранение учётных данных браузерной сессии.
// Bearer-токен переживает перезагрузку страницы: он лежит в браузере
// в cookie, зашифрованном AES-256-GCM. Повреждённые данные трактуются
// как отсутствие токена.
package tokenstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// CookieName — имя cookie с зашифрованным payload сессии.
const CookieName = "roster_session"

// CookieMaxAge — время жизни cookie (24 часа).
const CookieMaxAge = 24 * 60 * 60

// Payload — содержимое cookie сессии.
// WorkspaceID связывает браузер с рабочим пространством в памяти процесса,
// Token и Name — сохранённые учётные данные (пустой Token = не выполнен вход).
type Payload struct {
	WorkspaceID string `json:"wid"`
	Token       string `json:"token,omitempty"`
	Name        string `json:"name,omitempty"`
}

// cookieVersion — первый байт значения cookie; меняется при смене формата.
const cookieVersion byte = 1

// errMalformed — значение cookie не является сессией этого сервиса.
var errMalformed = errors.New("неверный формат cookie сессии")

// validate проверяет payload перед шифрованием и после дешифрования.
func (p Payload) validate() error {
	if p.WorkspaceID == "" {
		return errors.New("в сессии отсутствует идентификатор пространства")
	}
	return nil
}

// Codec запечатывает Payload в значение cookie:
// base64url(version | nonce | AES-256-GCM(json)).
// Имя cookie и версия формата входят в associated data, поэтому значение
// нельзя перенести в другой cookie или прочитать кодеком другой версии.
type Codec struct {
	aead   cipher.AEAD
	ad     []byte
	secure bool
}

// NewCodec создаёт кодек cookie.
// secret — base64 от 32 байт либо произвольная строка (хешируется SHA-256).
// Пустой secret — случайный ключ: cookie не переживут рестарт процесса.
func NewCodec(secret string, secure bool) (*Codec, error) {
	key, err := deriveKey(secret)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("AES: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("GCM: %w", err)
	}
	return &Codec{
		aead:   aead,
		ad:     append([]byte{cookieVersion}, CookieName...),
		secure: secure,
	}, nil
}

func deriveKey(secret string) ([]byte, error) {
	if secret == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("генерация ключа сессии: %w", err)
		}
		return key, nil
	}
	if raw, err := base64.StdEncoding.DecodeString(secret); err == nil && len(raw) == 32 {
		return raw, nil
	}
	sum := sha256.Sum256([]byte(secret))
	return sum[:], nil
}

// Seal сериализует payload и возвращает значение cookie.
func (c *Codec) Seal(p Payload) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}
	plain, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("сериализация сессии: %w", err)
	}

	ns := c.aead.NonceSize()
	buf := make([]byte, 1+ns, 1+ns+len(plain)+c.aead.Overhead())
	buf[0] = cookieVersion
	if _, err := rand.Read(buf[1:]); err != nil {
		return "", fmt.Errorf("генерация nonce: %w", err)
	}
	buf = c.aead.Seal(buf, buf[1:], plain, c.ad)
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Open восстанавливает payload из значения cookie.
func (c *Codec) Open(value string) (Payload, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return Payload{}, errMalformed
	}
	ns := c.aead.NonceSize()
	if len(raw) < 1+ns+c.aead.Overhead() || raw[0] != cookieVersion {
		return Payload{}, errMalformed
	}

	plain, err := c.aead.Open(nil, raw[1:1+ns], raw[1+ns:], c.ad)
	if err != nil {
		return Payload{}, fmt.Errorf("cookie сессии не прошёл проверку: %w", err)
	}

	var p Payload
	if err := json.Unmarshal(plain, &p); err != nil {
		return Payload{}, fmt.Errorf("десериализация сессии: %w", err)
	}
	if err := p.validate(); err != nil {
		return Payload{}, err
	}
	return p, nil
}

// Read извлекает payload из cookie запроса.
// Отсутствующий или повреждённый cookie — (Payload{}, false), без ошибки.
func (c *Codec) Read(r *http.Request) (Payload, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return Payload{}, false
	}
	p, err := c.Open(cookie.Value)
	if err != nil {
		return Payload{}, false
	}
	return p, true
}

// write устанавливает cookie с зашифрованным payload.
func (c *Codec) write(w http.ResponseWriter, p Payload) error {
	value, err := c.Seal(p)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
