package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/publicsuffix"
)

const (
	// CSRFHeader carries the anti-forgery token on mutating requests.
	CSRFHeader = "X-CSRFToken"

	csrfCookie      = "csrftoken"
	csrfMetaName    = "csrf-token"
	csrfPlaceholder = "NOTPROVIDED"
)

// TokenSource yields the anti-forgery token for the next request. It is
// asked once per request and must not cache.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// NewCookieJar returns the jar shared by the page fetch and the API client,
// so a csrftoken cookie set by the origin is visible to both.
func NewCookieJar() (http.CookieJar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// PageTokenSource reads the token the way the service page exposes it: a
// configured marker, else the csrf-token meta tag on the page, else the
// csrftoken cookie the origin stored in the jar.
type PageTokenSource struct {
	Marker  string
	PageURL string
	Client  *http.Client
}

func (s *PageTokenSource) Token(ctx context.Context) (string, error) {
	if usable(s.Marker) {
		return s.Marker, nil
	}

	page, err := url.Parse(s.PageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page URL %q: %w", s.PageURL, err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	if token, err := fetchMetaToken(ctx, client, page); err == nil && usable(token) {
		return token, nil
	}

	if client.Jar != nil {
		for _, c := range client.Jar.Cookies(page) {
			if c.Name == csrfCookie {
				if v, err := url.QueryUnescape(c.Value); err == nil {
					return v, nil
				}
				return c.Value, nil
			}
		}
	}
	return "", nil
}

func usable(token string) bool {
	return token != "" && token != csrfPlaceholder
}

func fetchMetaToken(ctx context.Context, client *http.Client, page *url.URL) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, page.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html")
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}
	return MetaToken(resp.Body)
}

// MetaToken returns the content of <meta name="csrf-token"> in an HTML
// document, or "" when there is none.
func MetaToken(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return "", nil
			}
			return "", z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "meta" {
				continue
			}
			var name, content string
			for _, a := range tok.Attr {
				switch strings.ToLower(a.Key) {
				case "name":
					name = a.Val
				case "content":
					content = a.Val
				}
			}
			if name == csrfMetaName {
				return content, nil
			}
		}
	}
}
