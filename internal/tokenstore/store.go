package tokenstore

import (
	"errors"
	"net/http"
	"sync"
)

// ErrEmptyToken — попытка сохранить учётные данные без токена.
var ErrEmptyToken = errors.New("пустой токен")

// Credential — bearer-токен и производные от него данные.
// Срок действия токена клиент не проверяет: это решает backend.
type Credential struct {
	// Token — bearer-токен
	Token string
	// Name — отображаемое имя пользователя
	Name string
	// Subject — sub из JWT (если удалось разобрать)
	Subject string
}

// Store — хранилище текущих учётных данных.
type Store interface {
	// Get возвращает учётные данные или (Credential{}, false), если их нет.
	Get() (Credential, bool)
	// Set сохраняет учётные данные.
	Set(cred Credential) error
	// Clear удаляет учётные данные.
	Clear() error
}

// CookieStore — Store поверх зашифрованного cookie.
// Значение хранится в памяти, а изменения помечаются флагом dirty и
// переносятся в cookie при ближайшем ответе браузеру (Sync).
type CookieStore struct {
	mu          sync.Mutex
	codec       *Codec
	workspaceID string
	cred        Credential
	present     bool
	dirty       bool
}

// NewCookieStore создаёт хранилище для рабочего пространства workspaceID.
// Новое хранилище помечено dirty: браузер должен получить cookie с идентификатором.
func NewCookieStore(codec *Codec, workspaceID string) *CookieStore {
	return &CookieStore{
		codec:       codec,
		workspaceID: workspaceID,
		dirty:       true,
	}
}

// Restore заполняет хранилище из payload ранее выданного cookie.
// Payload без токена означает отсутствие учётных данных.
func (s *CookieStore) Restore(p Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dirty = false
	if p.Token == "" {
		s.cred, s.present = Credential{}, false
		return
	}
	cred := Credential{Token: p.Token, Name: p.Name}
	if claims, err := ParseClaims(p.Token); err == nil {
		cred.Subject = claims.Subject
		if cred.Name == "" {
			cred.Name = claims.Name
		}
	}
	s.cred, s.present = cred, true
}

// Get возвращает текущие учётные данные.
func (s *CookieStore) Get() (Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred, s.present
}

// Set сохраняет учётные данные и помечает cookie к перезаписи.
func (s *CookieStore) Set(cred Credential) error {
	if cred.Token == "" {
		return ErrEmptyToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred, s.present = cred, true
	s.dirty = true
	return nil
}

// Clear удаляет учётные данные. Cookie сохраняет только идентификатор пространства.
func (s *CookieStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred, s.present = Credential{}, false
	s.dirty = true
	return nil
}

// Sync записывает cookie в ответ, если значение менялось с прошлой записи.
// Вызывается до отправки заголовков ответа.
func (s *CookieStore) Sync(w http.ResponseWriter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	p := Payload{WorkspaceID: s.workspaceID}
	if s.present {
		p.Token = s.cred.Token
		p.Name = s.cred.Name
	}
	if err := s.codec.write(w, p); err != nil {
		return err
	}
	s.dirty = false
	return nil
}
