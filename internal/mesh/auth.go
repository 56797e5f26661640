package mesh

import (
	"context"
	"fmt"
	"net/http"
)

// AuthMode selects how the client proves its identity to Mesh.
type AuthMode string

const (
	AuthNone   AuthMode = "none"
	AuthBasic  AuthMode = "basic"
	AuthCookie AuthMode = "cookie"
	AuthLogin  AuthMode = "login"
)

// SessionCookie is the cookie Mesh issues on login.
const SessionCookie = "mesh.token"

// ParseAuthMode accepts the configuration spelling of an AuthMode.
func ParseAuthMode(s string) (AuthMode, error) {
	switch mode := AuthMode(s); mode {
	case "", AuthNone:
		return AuthNone, nil
	case AuthBasic, AuthCookie, AuthLogin:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown auth mode %q", s)
	}
}

func (c *Client) prepareAuth() error {
	switch c.auth {
	case "", AuthNone:
		c.auth = AuthNone
	case AuthBasic, AuthLogin:
		if c.username == "" {
			return fmt.Errorf("auth mode %s requires a username", c.auth)
		}
	case AuthCookie:
		if c.token == "" {
			return fmt.Errorf("auth mode cookie requires a token")
		}
		c.plantSession(c.token)
	default:
		return fmt.Errorf("unknown auth mode %q", c.auth)
	}
	return nil
}

// authorize attaches per-request credentials. Cookie based modes are
// handled by the jar.
func (c *Client) authorize(req *http.Request) {
	if c.auth == AuthBasic {
		req.SetBasicAuth(c.username, c.password)
	}
}

func (c *Client) plantSession(token string) {
	c.httpClient.Jar.SetCookies(c.base, []*http.Cookie{{
		Name:  SessionCookie,
		Value: token,
		Path:  "/",
	}})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Authenticate establishes the session for login mode and is a no-op for
// every other mode. Call it once at startup.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.auth != AuthLogin {
		return nil
	}
	return c.Login(ctx)
}

// Login posts the configured credentials to /auth/login. The session cookie
// Mesh sets ends up in the client's jar; when the response only carries the
// token in its body the cookie is planted by hand.
func (c *Client) Login(ctx context.Context) error {
	u := c.base.JoinPath("auth", "login")
	var out loginResponse
	err := c.sendJSON(ctx, "mesh login", http.MethodPost, u.String(), loginRequest{
		Username: c.username,
		Password: c.password,
	}, &out)
	if err != nil {
		return err
	}

	if c.hasSession() {
		return nil
	}
	if out.Token == "" {
		return &Error{Op: "mesh login", Err: fmt.Errorf("no session token in response")}
	}
	c.plantSession(out.Token)
	return nil
}

func (c *Client) hasSession() bool {
	for _, ck := range c.httpClient.Jar.Cookies(c.base) {
		if ck.Name == SessionCookie && ck.Value != "" {
			return true
		}
	}
	return false
}
