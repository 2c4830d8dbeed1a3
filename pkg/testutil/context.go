package testutil

import (
	"net/http"

	"discovery/pkg/requestcontext"
)

// AsCrawler marks the request as coming from a crawler, as the client
// metadata middleware does for bot user agents.
func AsCrawler(req *http.Request) *http.Request {
	ctx := requestcontext.WithClient(req.Context(), requestcontext.Client{
		UserAgent: "Googlebot/2.1 (+http://www.google.com/bot.html)",
		Bot:       true,
	})
	return req.WithContext(ctx)
}
