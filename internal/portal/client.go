// Package portal is the HTTP client for the admin portal's REST API.
package portal

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rileyhilliard/portalctl/internal/errors"
	"github.com/rileyhilliard/portalctl/internal/logger"
	"github.com/rileyhilliard/portalctl/internal/window"
)

const (
	// SessionCookieName is the cookie the portal keeps its login session in.
	SessionCookieName = "session"

	RequestIDHeader = "X-Ms-Client-Request-Id"
	CSRFHeader      = "X-CSRF-Token"

	// maxErrorBody bounds how much of a failed response is kept as the cause.
	maxErrorBody = 4 << 10
)

// Options configures a Client.
type Options struct {
	BaseURL            string
	SessionCookie      string
	InsecureSkipVerify bool

	// Timeout bounds each request. Zero leaves requests to their context.
	Timeout time.Duration

	Logger logger.Logger

	// HTTPClient replaces the default transport. Its Jar is replaced.
	HTTPClient *http.Client
}

// Client talks to one portal. It is safe for concurrent use; the CSRF token
// is set once by Info and read by every mutating request afterwards.
type Client struct {
	base *url.URL
	http *http.Client
	log  logger.Logger

	mu   sync.RWMutex
	info *Info
}

// New builds a client and seeds its cookie jar with the session cookie.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("Invalid portal URL '%s'", opts.BaseURL),
			"Set portal_url to something like https://portal.example.com")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "Couldn't create cookie jar", "")
	}
	if opts.SessionCookie != "" {
		jar.SetCookies(base, []*http.Cookie{{
			Name:   SessionCookieName,
			Value:  opts.SessionCookie,
			Path:   "/",
			Secure: base.Scheme == "https",
		}})
	}

	hc := opts.HTTPClient
	if hc == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if opts.InsecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for dev portals
		}
		hc = &http.Client{Transport: transport}
	}
	hc.Jar = jar
	hc.Timeout = opts.Timeout
	// A redirect means the session expired and the portal is bouncing us to
	// login; surface the response instead of following it.
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}

	return &Client{base: base, http: hc, log: log}, nil
}

// BaseURL returns the portal root, without a trailing slash.
func (c *Client) BaseURL() string { return c.base.String() }

// Ready reports whether Info has completed, which is the session-ready
// signal for every fetch.
func (c *Client) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.info != nil
}

// Session returns the cached /api/info result.
func (c *Client) Session() (Info, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.info == nil {
		return Info{}, false
	}
	return *c.info, true
}

// Info fetches /api/info and caches the CSRF token for later POSTs.
func (c *Client) Info(ctx context.Context) (Info, error) {
	var info Info
	if err := c.getJSON(ctx, "/api/info", nil, &info); err != nil {
		return Info{}, err
	}
	c.mu.Lock()
	c.info = &info
	c.mu.Unlock()
	return info, nil
}

// Clusters lists every cluster visible to the session.
func (c *Client) Clusters(ctx context.Context) ([]Cluster, error) {
	var out []Cluster
	return out, c.getJSON(ctx, "/api/clusters", nil, &out)
}

// Cluster fetches the expanded record for one cluster.
func (c *Client) Cluster(ctx context.Context, co Coordinate) (ClusterDetail, error) {
	var out ClusterDetail
	return out, c.getJSON(ctx, co.APIPath(), nil, &out)
}

func (c *Client) Nodes(ctx context.Context, co Coordinate) ([]Node, error) {
	var out []Node
	return out, c.getJSON(ctx, co.APIPath()+"/nodes", nil, &out)
}

func (c *Client) Machines(ctx context.Context, co Coordinate) ([]Machine, error) {
	var out []Machine
	return out, c.getJSON(ctx, co.APIPath()+"/machines", nil, &out)
}

func (c *Client) MachineSets(ctx context.Context, co Coordinate) ([]MachineSet, error) {
	var out []MachineSet
	return out, c.getJSON(ctx, co.APIPath()+"/machine-sets", nil, &out)
}

func (c *Client) ClusterOperators(ctx context.Context, co Coordinate) ([]ClusterOperator, error) {
	var out []ClusterOperator
	return out, c.getJSON(ctx, co.APIPath()+"/clusteroperators", nil, &out)
}

func (c *Client) Networking(ctx context.Context, co Coordinate) (Networking, error) {
	var out Networking
	return out, c.getJSON(ctx, co.APIPath()+"/networking", nil, &out)
}

// Statistics fetches one metric over the window.
func (c *Client) Statistics(ctx context.Context, co Coordinate, metric string, w window.Window) ([]Metric, error) {
	q := url.Values{}
	q.Set("duration", w.QueryDuration())
	q.Set("endtime", w.QueryEnd())

	var out []Metric
	return out, c.getJSON(ctx, co.APIPath()+"/statistics/"+url.PathEscape(metric), q, &out)
}

// Kubeconfig requests a fresh kubeconfig. The file name comes from the
// response's Content-Disposition header.
func (c *Client) Kubeconfig(ctx context.Context, resourceID string) (Kubeconfig, error) {
	resp, err := c.do(ctx, http.MethodPost, resourceID+"/kubeconfig/new", nil, nil)
	if err != nil {
		return Kubeconfig{}, errors.WrapWithCode(err, errors.ErrKubeconfig, "Kubeconfig download failed", suggestionFor(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Kubeconfig{}, errors.WrapWithCode(err, errors.ErrKubeconfig, "Couldn't read kubeconfig response", "")
	}

	kc := Kubeconfig{Filename: "cluster.kubeconfig", Data: data}
	if _, params, perr := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); perr == nil && params["filename"] != "" {
		kc.Filename = params["filename"]
	}
	return kc, nil
}

// SSH requests a short-lived SSH login to master node 0, 1 or 2. An error
// reported in the response body is returned as an SSH error.
func (c *Client) SSH(ctx context.Context, resourceID string, master int) (SSHCredential, error) {
	if master < 0 || master > 2 {
		return SSHCredential{}, errors.New(errors.ErrSSH,
			fmt.Sprintf("Invalid master %d", master),
			"Pick master 0, 1 or 2")
	}

	body, _ := json.Marshal(map[string]int{"master": master})
	resp, err := c.do(ctx, http.MethodPost, resourceID+"/ssh/new", nil, body)
	if err != nil {
		return SSHCredential{}, errors.WrapWithCode(err, errors.ErrSSH, "SSH credential request failed", suggestionFor(err))
	}
	defer resp.Body.Close()

	var cred SSHCredential
	if err := json.NewDecoder(resp.Body).Decode(&cred); err != nil {
		return SSHCredential{}, errors.WrapWithCode(err, errors.ErrSSH, "Couldn't decode SSH credential", "")
	}
	if cred.Error != "" {
		return SSHCredential{}, errors.New(errors.ErrSSH, cred.Error, "Try another master, or retry in a moment")
	}
	return cred, nil
}

// Logout ends the portal session. The portal answers with a redirect to
// the login page, which counts as success.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// LoginURL is where the user must log in again. A non-empty redirect is
// passed as redirect_uri.
func (c *Client) LoginURL(redirect string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/api/login"
	if redirect != "" {
		u.RawQuery = url.Values{"redirect_uri": {redirect}}.Encode()
	}
	return u.String()
}

// URL resolves a portal path to an absolute URL.
func (c *Client) URL(path string) string {
	return c.base.String() + path
}

// PrometheusURL is the cluster's Prometheus UI behind the portal proxy.
func (c *Client) PrometheusURL(cl Cluster) string {
	return c.URL(cl.PrometheusPath())
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapWithCode(err, errors.ErrFetch,
			fmt.Sprintf("Couldn't decode response from %s", path),
			"The portal returned something that isn't the expected JSON")
	}
	return nil
}

// do sends one request and maps every non-2xx status to a structured error.
// 3xx is only accepted for logout; elsewhere it means the session is gone.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Response, error) {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("Couldn't build request for %s", path))
	}

	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		if info, ok := c.Session(); ok {
			req.Header.Set(CSRFHeader, info.CSRF)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("%s %s request_id=%s failed: %v", method, path, reqID, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.WrapWithCode(err, errors.ErrFetch,
			fmt.Sprintf("%s %s failed", method, path),
			"Check portal_url and your network connection")
	}
	c.log.Debug("%s %s request_id=%s status=%d took=%s", method, path, reqID, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp, nil
	case resp.StatusCode >= 300 && resp.StatusCode < 400 && path == "/api/logout":
		return resp, nil
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		resp.Body.Close()
		return nil, errors.FromStatus(http.StatusForbidden, method, path, "")
	}

	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, errors.FromStatus(resp.StatusCode, method, path, string(b))
}

func suggestionFor(err error) string {
	if e, ok := err.(*errors.Error); ok && e.Suggestion != "" {
		return e.Suggestion
	}
	return "Retry in a moment"
}
