package handler

import "github.com/labstack/echo/v4"

// Guards holds the middleware chains route groups attach per route.
// Nil rate limiters are skipped.
type Guards struct {
	// AuthJWT followed by ActiveUserGuard
	Auth        []echo.MiddlewareFunc
	AuthRate    echo.MiddlewareFunc
	WebhookRate echo.MiddlewareFunc
}

func (g Guards) authed(extra ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(g.Auth)+len(extra))
	out = append(out, g.Auth...)
	return append(out, extra...)
}

func (g Guards) authRate() []echo.MiddlewareFunc {
	return nonNil(g.AuthRate)
}

func (g Guards) webhookRate() []echo.MiddlewareFunc {
	return nonNil(g.WebhookRate)
}

func nonNil(ms ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := ms[:0]
	for _, m := range ms {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
