// Command client-gateway exposes a resilient client as a local HTTP
// gateway: requests to /api/* are proxied to the upstream API through the
// response cache, the request scheduler, and the session manager. Health
// and Prometheus metrics endpoints come along for free.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/calder-io/resilient-client/pkg/client"
	"github.com/calder-io/resilient-client/pkg/logging"
	"github.com/calder-io/resilient-client/pkg/session"
)

func main() {
	logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: os.Getenv("LOG_PRETTY") == "true",
		Output: os.Stderr,
	})

	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		log.Fatal().Msg("API_BASE_URL is required")
	}
	port := getEnv("PORT", "8080")

	cfg := client.DefaultConfig(baseURL)

	// An optional Redis session store survives gateway restarts.
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: redisURL})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			cancel()
			log.Fatal().Err(err).Str("addr", redisURL).Msg("Failed to connect to Redis")
		}
		cancel()

		cfg.SessionStore = session.NewRedisStore(redisClient, session.DefaultRedisKey)
		log.Info().Str("addr", redisURL).Msg("Using Redis session store")
	}

	apiClient, err := client.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create client")
	}
	defer apiClient.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler(apiClient))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/", proxyHandler(apiClient))

	addr := ":" + port
	log.Info().Str("addr", addr).Str("upstream", baseURL).Msg("Starting gateway")

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// readyHandler reports ready while the scheduler can still accept work.
func readyHandler(apiClient *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := apiClient.SchedulerStatus()
		if status.Queued > status.MaxConcurrent*10 {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, "overloaded: %d tasks queued", status.Queued)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}
}

// proxyHandler forwards /api/* to the upstream through the client, so
// responses benefit from caching, scheduling, and transparent auth.
func proxyHandler(apiClient *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api")
		if path == "" {
			path = "/"
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		data, err := apiClient.Request(ctx, r.Method, path, client.Options{
			Cacheable: r.Method == http.MethodGet,
			Query:     r.URL.Query(),
		})
		if err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

// writeError translates client errors into gateway responses.
func writeError(w http.ResponseWriter, err error) {
	var statusErr *client.HTTPStatusError
	var authErr *client.AuthError

	switch {
	case errors.As(err, &statusErr):
		w.WriteHeader(statusErr.StatusCode)
		w.Write(statusErr.Body)
	case errors.As(err, &authErr):
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprintf(w, `{"error": %q}`, authErr.Error())
	case errors.Is(err, client.ErrTimeout):
		w.WriteHeader(http.StatusGatewayTimeout)
		fmt.Fprintf(w, `{"error": %q}`, err.Error())
	default:
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprintf(w, `{"error": %q}`, err.Error())
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
