package predicate

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Locator resolves a template name to the URL of its upstream module.
type Locator interface {
	Locate(name string) (string, bool)
}

// TemplateProber checks that a template's upstream module is reachable.
type TemplateProber struct {
	locator    Locator
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures a TemplateProber.
type Option func(*TemplateProber)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(p *TemplateProber) {
		p.httpClient = c
	}
}

// WithTimeout bounds each probe. Zero means no bound beyond ctx.
func WithTimeout(d time.Duration) Option {
	return func(p *TemplateProber) {
		p.timeout = d
	}
}

// NewTemplateProber creates a prober resolving names through locator.
func NewTemplateProber(locator Locator, opts ...Option) *TemplateProber {
	p := &TemplateProber{
		locator:    locator,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Exists reports whether name resolves to a module that answers 200 OK.
// Every failure (unknown name, bad URL, network error, other status) is
// reported as false.
func (p *TemplateProber) Exists(ctx context.Context, name string) bool {
	if p.locator == nil {
		return false
	}
	location, ok := p.locator.Locate(name)
	if !ok {
		return false
	}
	u, err := url.Parse(location)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	status, err := p.status(ctx, http.MethodHead, u.String())
	if err == nil && status == http.StatusMethodNotAllowed {
		status, err = p.status(ctx, http.MethodGet, u.String())
	}
	return err == nil && status == http.StatusOK
}

func (p *TemplateProber) status(ctx context.Context, method, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "projinit-probe")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
