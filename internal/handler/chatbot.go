package handler

import (
	"fmt"
	"net/url"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// ChatbotProxy forwards /api/chatbot/* to the chat backend at target with
// the prefix stripped, so /api/chatbot/webhooks/rest/webhook reaches
// <target>/webhooks/rest/webhook.
func ChatbotProxy(target string) (echo.MiddlewareFunc, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid chatbot url %q", target)
	}
	return echomw.ProxyWithConfig(echomw.ProxyConfig{
		Balancer: echomw.NewRoundRobinBalancer([]*echomw.ProxyTarget{{URL: u}}),
		Rewrite:  map[string]string{"/api/chatbot/*": "/$1"},
	}), nil
}
