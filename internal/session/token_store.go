package session

import (
	"fmt"
	"strconv"
	"time"
)

// Claves fijas bajo las que persiste el par de tokens.
const (
	accessTokenKey  = "batchbook_access_token"
	refreshTokenKey = "batchbook_refresh_token"
	expiresAtKey    = "batchbook_expires_at"
)

// TokenStore guarda el par de tokens y su vencimiento absoluto, y es la
// unica fuente de verdad de "este cliente esta autenticado".
type TokenStore struct {
	storage Storage
	now     func() time.Time
}

func NewTokenStore(storage Storage) *TokenStore {
	return &TokenStore{
		storage: storage,
		now:     time.Now,
	}
}

// StoreTokens persiste access, refresh y el vencimiento calculado desde
// expiresIn (segundos), como epoch millis en string decimal. Si alguna
// escritura falla se borran las tres claves: nunca queda un par a medias.
func (t *TokenStore) StoreTokens(accessToken, refreshToken string, expiresIn int64) error {
	expiresAt := t.now().UnixMilli() + expiresIn*1000
	if err := t.storage.Set(accessTokenKey, accessToken); err != nil {
		t.Clear()
		return err
	}
	if err := t.storage.Set(refreshTokenKey, refreshToken); err != nil {
		t.Clear()
		return err
	}
	if err := t.storage.Set(expiresAtKey, strconv.FormatInt(expiresAt, 10)); err != nil {
		t.Clear()
		return err
	}
	return nil
}

// UpdateAccessToken reemplaza solo el access token y su vencimiento,
// dejando el refresh token intacto.
func (t *TokenStore) UpdateAccessToken(accessToken string, expiresIn int64) error {
	expiresAt := t.now().UnixMilli() + expiresIn*1000
	if err := t.storage.Set(accessTokenKey, accessToken); err != nil {
		return err
	}
	return t.storage.Set(expiresAtKey, strconv.FormatInt(expiresAt, 10))
}

func (t *TokenStore) AccessToken() string {
	val, _ := t.storage.Get(accessTokenKey)
	return val
}

func (t *TokenStore) RefreshToken() string {
	val, _ := t.storage.Get(refreshTokenKey)
	return val
}

func (t *TokenStore) ExpiresAt() (time.Time, bool) {
	val, ok := t.storage.Get(expiresAtKey)
	if !ok {
		return time.Time{}, false
	}
	millis, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}

// IsAuthenticated es true solo con ambos tokens presentes y vencimiento a
// futuro. Un par vencido se borra aca mismo para que ningun otro camino
// lea un token rancio que todavia parece presente.
func (t *TokenStore) IsAuthenticated() bool {
	if t.AccessToken() == "" || t.RefreshToken() == "" {
		return false
	}
	expiresAt, ok := t.ExpiresAt()
	if !ok || !t.now().Before(expiresAt) {
		t.Clear()
		return false
	}
	return true
}

// AuthHeader devuelve el header Authorization listo para mezclar en
// cualquier request autenticado, o un mapa vacio sin access token.
func (t *TokenStore) AuthHeader() map[string]string {
	token := t.AccessToken()
	if token == "" {
		return map[string]string{}
	}
	return map[string]string{"Authorization": fmt.Sprintf("Bearer %s", token)}
}

// Clear borra las tres claves incondicionalmente.
func (t *TokenStore) Clear() {
	_ = t.storage.Delete(accessTokenKey)
	_ = t.storage.Delete(refreshTokenKey)
	_ = t.storage.Delete(expiresAtKey)
}
