package dialogflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/google"

	"cxcheck/internal/domain"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// RESTClient is a minimal client for the v3beta1 REST surface, used for
// the calls the gRPC client library does not expose.
type RESTClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	PageSize   int
}

// NewREST returns a REST client authorized with Application Default
// Credentials for the given host:port endpoint.
func NewREST(ctx context.Context, endpoint string) (*RESTClient, error) {
	hc, err := google.DefaultClient(ctx, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("rest credentials: %w", err)
	}
	host := strings.TrimSuffix(endpoint, ":443")
	return &RESTClient{BaseURL: "https://" + host, HTTPClient: hc, PageSize: 100}, nil
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

type toolVersionsPage struct {
	ToolVersions []struct {
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
	} `json:"toolVersions"`
	NextPageToken string `json:"nextPageToken"`
}

// ListToolVersions lists every version of tool, following page tokens.
func (c *RESTClient) ListToolVersions(ctx context.Context, tool string) ([]domain.ToolVersion, error) {
	var out []domain.ToolVersion
	token := ""
	for {
		q := url.Values{}
		if c.PageSize > 0 {
			q.Set("pageSize", fmt.Sprint(c.PageSize))
		}
		if token != "" {
			q.Set("pageToken", token)
		}
		endpoint := fmt.Sprintf("v3beta1/%s/versions", strings.Trim(tool, "/"))
		if len(q) > 0 {
			endpoint += "?" + q.Encode()
		}
		var page toolVersionsPage
		if err := c.do(ctx, http.MethodGet, endpoint, &page); err != nil {
			return nil, fmt.Errorf("list versions of %s: %w", tool, err)
		}
		for _, v := range page.ToolVersions {
			out = append(out, domain.ToolVersion{Name: v.Name, DisplayName: v.DisplayName})
		}
		if page.NextPageToken == "" {
			return out, nil
		}
		token = page.NextPageToken
	}
}

func (c *RESTClient) do(ctx context.Context, method, endpoint string, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	u := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
