package server

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/autodev/internal/shared"
	"golang.org/x/oauth2"
)

const proxyPrefix = "/api/"

// ProxyHandler forwards /api/* to the backend's versioned API root.
type ProxyHandler struct {
	target *url.URL
	token  string
	proxy  *httputil.ReverseProxy
	logger *log.Logger
}

// ProxyOptions configures a [ProxyHandler].
type ProxyOptions struct {
	BaseURL   string            // Backend API root, e.g. http://localhost:8000/api/v1
	Token     string            // Bearer token attached to every forwarded request when set
	Transport http.RoundTripper // Upstream transport; defaults to [http.DefaultTransport]
	Logger    *log.Logger
}

// NewProxyHandler creates a [ProxyHandler] targeting opts.BaseURL.
func NewProxyHandler(opts ProxyOptions) (*ProxyHandler, error) {
	target, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("%w: backend url %q", shared.ErrInvalidConfig, opts.BaseURL)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	upstream := opts.Transport
	if upstream == nil {
		upstream = http.DefaultTransport
	}

	h := &ProxyHandler{target: target, token: opts.Token, logger: logger}

	transport := upstream
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}),
			Base:   upstream,
		}
	}

	h.proxy = &httputil.ReverseProxy{
		Rewrite:       h.rewrite,
		Transport:     transport,
		FlushInterval: -1,
		ErrorHandler:  h.upstreamError,
	}
	return h, nil
}

// Routes implements [Handler].
func (h *ProxyHandler) Routes() []string {
	return []string{proxyPrefix}
}

// ServeHTTP forwards r, rejecting it when no credentials are available.
func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.token == "" && r.Header.Get("Authorization") == "" {
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	h.proxy.ServeHTTP(w, r)
}

func (h *ProxyHandler) rewrite(pr *httputil.ProxyRequest) {
	rest := strings.TrimPrefix(pr.In.URL.Path, strings.TrimSuffix(proxyPrefix, "/"))

	pr.Out.URL.Scheme = h.target.Scheme
	pr.Out.URL.Host = h.target.Host
	pr.Out.URL.Path = h.target.Path + rest
	pr.Out.URL.RawPath = ""
	pr.Out.URL.RawQuery = pr.In.URL.RawQuery
	pr.Out.Host = h.target.Host
	pr.SetXForwarded()

	if h.token != "" {
		pr.Out.Header.Del("Authorization")
	}
}

func (h *ProxyHandler) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil {
		return
	}
	h.logger.Error("upstream request failed", "path", r.URL.Path, "error", err)
	writeJSONError(w, http.StatusBadGateway, "Bad Gateway")
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	body, _ := shared.MarshalJSON(map[string]string{"error": msg}, false)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
