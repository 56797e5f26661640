package mesh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Resolver selects how nodes, navigation and children are looked up.
type Resolver string

const (
	ResolverGraphQL Resolver = "graphql"
	ResolverREST    Resolver = "rest"
)

// Config describes one Mesh deployment. It is built once at startup.
type Config struct {
	BaseURL  string // e.g. http://localhost:8080/api/v1/
	Project  string
	Resolver Resolver
	Auth     AuthMode
	Username string
	Password string
	Token    string
	Timeout  time.Duration // zero means no client side timeout
	PageSize int

	// Transport overrides the default transport, mostly for tests.
	Transport http.RoundTripper
}

// Client talks to the Mesh REST and GraphQL APIs. It is safe for concurrent
// use; its credential and cookie jar are shared read-only by all requests.
type Client struct {
	base       *url.URL
	project    string
	resolver   Resolver
	auth       AuthMode
	username   string
	password   string
	token      string
	pageSize   int
	httpClient *http.Client
}

const defaultPageSize = 100

// New validates cfg and prepares a client. Login mode still requires a call
// to Authenticate before the first request.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse mesh base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported mesh url scheme %q", base.Scheme)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("missing host in mesh base url")
	}
	if base.User != nil {
		return nil, fmt.Errorf("mesh base url must not carry credentials")
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if strings.TrimSpace(cfg.Project) == "" {
		return nil, fmt.Errorf("missing mesh project")
	}

	resolver := cfg.Resolver
	if resolver == "" {
		resolver = ResolverGraphQL
	}
	if resolver != ResolverGraphQL && resolver != ResolverREST {
		return nil, fmt.Errorf("unknown resolver %q", resolver)
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	c := &Client{
		base:     base,
		project:  cfg.Project,
		resolver: resolver,
		auth:     cfg.Auth,
		username: cfg.Username,
		password: cfg.Password,
		token:    cfg.Token,
		pageSize: pageSize,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Jar:       jar,
			Transport: cfg.Transport,
		},
	}

	if err := c.prepareAuth(); err != nil {
		return nil, err
	}
	return c, nil
}

// ResolveNode looks up the node published at path.
func (c *Client) ResolveNode(ctx context.Context, path string) (*Node, error) {
	if c.resolver == ResolverREST {
		return c.resolveWebroot(ctx, path)
	}
	return c.resolveGraphQL(ctx, path)
}

// LoadNavigation returns the children of the project root node.
func (c *Client) LoadNavigation(ctx context.Context) (Navigation, error) {
	if c.resolver == ResolverREST {
		return c.navigationREST(ctx)
	}
	return c.navigationGraphQL(ctx)
}

// LoadChildren returns every child of the node with the given uuid.
func (c *Client) LoadChildren(ctx context.Context, nodeUUID string) ([]Node, error) {
	id, err := canonicalUUID(nodeUUID)
	if err != nil {
		return nil, &Error{Op: "mesh children", Err: err}
	}
	if c.resolver == ResolverREST {
		return c.childrenREST(ctx, id)
	}
	return c.childrenGraphQL(ctx, id)
}

// FetchBinary requests path from the webroot endpoint and hands back the
// unread body so it can be streamed.
func (c *Client) FetchBinary(ctx context.Context, path string) (*Binary, error) {
	resp, err := c.do(ctx, "mesh binary", http.MethodGet, c.webrootURL(path, false), nil)
	if err != nil {
		return nil, err
	}
	return &Binary{
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	}, nil
}

// endpoint builds {base}{project}/{elem...}. Elements must already be escaped.
func (c *Client) endpoint(elem ...string) *url.URL {
	return c.base.JoinPath(append([]string{url.PathEscape(c.project)}, elem...)...)
}

func (c *Client) webrootURL(path string, resolveLinks bool) string {
	elem := []string{"webroot"}
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg == "" {
			continue
		}
		elem = append(elem, url.PathEscape(seg))
	}
	u := c.endpoint(elem...)
	if resolveLinks {
		u.RawQuery = "resolveLinks=short"
	}
	return u.String()
}

// do sends a request with the configured credential attached. Non-2xx
// responses are drained, closed and returned as *Error.
func (c *Client) do(ctx context.Context, op, method, rawURL string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, &Error{Op: op, Err: err}
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json, */*")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &Error{
			Op:     op,
			Status: resp.StatusCode,
			Body:   truncate(strings.TrimSpace(string(raw)), 512),
		}
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, op, rawURL string, dest any) error {
	return c.sendJSON(ctx, op, http.MethodGet, rawURL, nil, dest)
}

func (c *Client) sendJSON(ctx context.Context, op, method, rawURL string, payload, dest any) error {
	resp, err := c.do(ctx, op, method, rawURL, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &Error{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
