package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"batchbook/internal/domain"
)

// Client habla con el API de auth y mantiene el estado de sesion local:
// guarda el par de tokens tras cada login exitoso y empuja cada resultado
// por el reducer. El mutex serializa los dispatch, asi que dos transiciones
// nunca se aplican en paralelo.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  *TokenStore

	mu    sync.Mutex
	state State
}

func NewClient(baseURL string, storage Storage) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 15 * time.Second},
		tokens:  NewTokenStore(storage),
	}
}

// State devuelve una copia del estado actual.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Tokens expone el token store, para callers que arman sus propios requests.
func (c *Client) Tokens() *TokenStore {
	return c.tokens
}

func (c *Client) dispatch(action Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Reduce(c.state, action)
}

// envelope es la forma uniforme de respuesta de todos los endpoints.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body any) (envelope, error) {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return envelope{}, err
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return envelope{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.tokens.AuthHeader() {
		req.Header.Set(k, v)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return envelope{}, errors.New("Network error occurred")
	}
	defer resp.Body.Close()

	var env envelope
	// Respuestas sin cuerpo (204) se tratan como envelope vacio.
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		env = envelope{}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		if env.Message != "" {
			return envelope{}, errors.New(env.Message)
		}
		return envelope{}, fmt.Errorf("HTTP error! status: %d", resp.StatusCode)
	}
	return env, nil
}

type authPayload struct {
	User         *domain.User `json:"user"`
	Token        string       `json:"token"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int64        `json:"expiresIn"`
}

func (p authPayload) accessOrToken() string {
	if p.AccessToken != "" {
		return p.AccessToken
	}
	return p.Token
}

func (c *Client) completeAuth(env envelope) error {
	var payload authPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return errors.New("Invalid response from server")
	}
	access := payload.accessOrToken()
	if payload.User == nil || access == "" {
		return errors.New("Invalid response from server")
	}
	if err := c.tokens.StoreTokens(access, payload.RefreshToken, payload.ExpiresIn); err != nil {
		return err
	}
	c.dispatch(Action{Type: ActionAuthSuccess, User: payload.User, Token: access})
	return nil
}

// Login autentica con email y password.
func (c *Client) Login(ctx context.Context, email, password string) error {
	c.dispatch(Action{Type: ActionAuthStart})
	env, err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		c.dispatch(Action{Type: ActionAuthError, Message: err.Error()})
		return err
	}
	if err := c.completeAuth(env); err != nil {
		c.dispatch(Action{Type: ActionAuthError, Message: err.Error()})
		return err
	}
	return nil
}

// Register crea la cuenta y deja la sesion iniciada.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	c.dispatch(Action{Type: ActionAuthStart})
	env, err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	if err != nil {
		c.dispatch(Action{Type: ActionAuthError, Message: err.Error()})
		return err
	}
	if err := c.completeAuth(env); err != nil {
		c.dispatch(Action{Type: ActionAuthError, Message: err.Error()})
		return err
	}
	return nil
}

// RequestOTP pide el envio del codigo. El exito no autentica: la sesion
// queda deslogueada y sin loading, esperando el verify.
func (c *Client) RequestOTP(ctx context.Context, email string) error {
	c.dispatch(Action{Type: ActionAuthStart})
	_, err := c.do(ctx, http.MethodPost, "/api/auth/request-otp", map[string]string{
		"email": email,
	})
	if err != nil {
		c.dispatch(Action{Type: ActionAuthError, Message: err.Error()})
		return err
	}
	c.dispatch(Action{Type: ActionAuthLogout})
	return nil
}

// VerifyOTP canjea el codigo por el par de tokens.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) error {
	c.dispatch(Action{Type: ActionAuthStart})
	env, err := c.do(ctx, http.MethodPost, "/api/auth/verify-otp", map[string]string{
		"email": email,
		"otp":   otp,
	})
	if err != nil {
		c.dispatch(Action{Type: ActionAuthError, Message: err.Error()})
		return err
	}
	if err := c.completeAuth(env); err != nil {
		c.dispatch(Action{Type: ActionAuthError, Message: err.Error()})
		return err
	}
	return nil
}

// CurrentUser consulta GET /me con el token vigente.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		User *domain.User `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil || payload.User == nil {
		return nil, errors.New("Invalid response from server")
	}
	return payload.User, nil
}

// Bootstrap reconstruye el estado desde los tokens persistidos al arrancar.
// Cualquier fallo termina en AUTH_LOGOUT: nunca se queda en un estado que
// parece autenticado sin un usuario verificado contra el servidor.
func (c *Client) Bootstrap(ctx context.Context) {
	if !c.tokens.IsAuthenticated() {
		c.dispatch(Action{Type: ActionAuthLogout})
		return
	}
	user, err := c.CurrentUser(ctx)
	if err != nil {
		c.tokens.Clear()
		c.dispatch(Action{Type: ActionAuthLogout})
		return
	}
	c.dispatch(Action{Type: ActionAuthSuccess, User: user, Token: c.tokens.AccessToken()})
}

// Logout borra los tokens locales primero y recien despues avisa al
// servidor; un fallo de red no puede dejar la sesion local viva.
func (c *Client) Logout(ctx context.Context) {
	header := c.tokens.AuthHeader()
	c.tokens.Clear()
	c.dispatch(Action{Type: ActionAuthLogout})

	if len(header) == 0 {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/logout", &bytes.Buffer{})
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	if resp, err := c.httpc.Do(req); err == nil {
		resp.Body.Close()
	}
}

// ClearError limpia solo el mensaje de error visible.
func (c *Client) ClearError() {
	c.dispatch(Action{Type: ActionClearError})
}
