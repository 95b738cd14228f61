package utils

import (
	"github.com/go-resty/resty/v2"
)

// userAgent identifies outbound requests to identity providers and gateways.
const userAgent = "go-auth-keeper"

// HTTPClient embeds *resty.Client so adapters can use the resty API
// directly.
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient returns an independent client that asks for JSON and
// identifies itself with a fixed User-Agent.
//
// Example usage:
//
//	client := utils.NewHTTPClient()
//	resp, err := client.R().SetQueryParam("js_code", code).Get("/sns/jscode2session")
func NewHTTPClient() *HTTPClient {
	client := resty.New().
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)

	return &HTTPClient{Client: client}
}
