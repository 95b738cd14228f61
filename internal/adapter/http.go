package adapter

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MKhiriev/go-auth-keeper/internal/utils"
)

// newClient returns a resty client bound to baseURL with the given timeout.
// An empty baseURL leaves requests to use absolute URLs.
func newClient(baseURL string, timeout time.Duration) (*utils.HTTPClient, error) {
	client := utils.NewHTTPClient()
	if baseURL != "" {
		normalized, err := normalizeBaseURL(baseURL)
		if err != nil {
			return nil, err
		}
		client.SetBaseURL(normalized)
	}
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return client, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}
