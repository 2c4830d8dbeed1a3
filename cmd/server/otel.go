package main

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func otelHandler(h http.Handler) http.Handler {
	return otelhttp.NewHandler(h, "discovery")
}
