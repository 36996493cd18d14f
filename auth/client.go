package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Client talks to a GoTrue-style identity endpoint (the REST surface
// Supabase auth exposes): password grant, signup, logout and user lookup.
type Client struct {
	base   string
	apiKey string
	http   *resty.Client

	mu         sync.Mutex
	session    *Session
	token      string
	subscriber func(Event, *Session)
	subGen     uint64
}

var _ Provider = (*Client)(nil)

// NewClient creates a client for the identity endpoint at base (e.g.
// "https://<project>.supabase.co/auth/v1") using the project API key.
func NewClient(base, apiKey string) *Client {
	return &Client{
		base:   base,
		apiKey: apiKey,
		http:   resty.New(),
	}
}

type tokenResponse struct {
	AccessToken string   `json:"access_token"`
	User        userBody `json:"user"`
}

type userBody struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Metadata struct {
		Name string `json:"name"`
	} `json:"user_metadata"`
}

func (u userBody) session() *Session {
	name := u.Metadata.Name
	if name == "" {
		name = displayName(u.Email)
	}
	return &Session{UserID: u.ID, Email: u.Email, Name: name}
}

// GetSession returns the current session, validating a held token against
// the provider. Returns (nil, nil) when nobody is signed in.
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return nil, nil
	}

	var user userBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("apikey", c.apiKey).
		SetAuthToken(token).
		SetResult(&user).
		Get(c.base + "/user")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}
	if resp.IsError() {
		// Token no longer valid: drop local state, no error.
		c.clearSession()
		return nil, nil
	}

	sess := user.session()
	c.mu.Lock()
	c.session = sess
	c.mu.Unlock()
	return sess, nil
}

// SignIn performs a password-grant sign-in and notifies the subscriber.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var out tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("apikey", c.apiKey).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out).
		Post(c.base + "/token?grant_type=password")
	if err != nil {
		return nil, fmt.Errorf("sign-in request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("sign-in rejected: status %d", resp.StatusCode())
	}

	sess := out.User.session()
	c.mu.Lock()
	c.token = out.AccessToken
	c.session = sess
	c.mu.Unlock()

	c.notify(EventSignedIn, sess)
	return sess, nil
}

// SignUp registers a new account, carrying the display name as user
// metadata, and notifies the subscriber on success.
func (c *Client) SignUp(ctx context.Context, name, email, password string) (*Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"name": name},
	}

	var out tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("apikey", c.apiKey).
		SetBody(body).
		SetResult(&out).
		Post(c.base + "/signup")
	if err != nil {
		return nil, fmt.Errorf("sign-up request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("sign-up rejected: status %d", resp.StatusCode())
	}

	sess := out.User.session()
	if sess.Name == "" || sess.Name == "User" {
		sess.Name = name
	}
	c.mu.Lock()
	c.token = out.AccessToken
	c.session = sess
	c.mu.Unlock()

	c.notify(EventSignedIn, sess)
	return sess, nil
}

// SignOut revokes the session with the provider. Local state is cleared
// first so a failed remote call cannot leave a stale signed-in state.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	c.clearSession()
	c.notify(EventSignedOut, nil)

	if token == "" {
		return nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("apikey", c.apiKey).
		SetAuthToken(token).
		Post(c.base + "/logout")
	if err != nil {
		log.Warn().Err(err).Msg("remote sign-out failed")
		return nil
	}
	if resp.IsError() {
		log.Warn().Int("status", resp.StatusCode()).Msg("remote sign-out rejected")
	}
	return nil
}

// OnAuthStateChange registers fn as the single subscriber, replacing any
// previous one. The returned unsubscribe detaches fn and is safe to call
// repeatedly; once a later registration has replaced fn, the stale
// unsubscribe is a no-op.
func (c *Client) OnAuthStateChange(fn func(Event, *Session)) func() {
	c.mu.Lock()
	c.subGen++
	gen := c.subGen
	c.subscriber = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.subGen == gen {
			c.subscriber = nil
		}
	}
}

func (c *Client) notify(ev Event, s *Session) {
	c.mu.Lock()
	fn := c.subscriber
	c.mu.Unlock()
	if fn != nil {
		fn(ev, s)
	}
}

func (c *Client) clearSession() {
	c.mu.Lock()
	c.token = ""
	c.session = nil
	c.mu.Unlock()
}
