package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/anchor/internal/handlers"
	"github.com/ukydev/anchor/internal/middleware"
)

// routerDeps are the pieces the HTTP surface is assembled from. Geocode may
// be nil.
type routerDeps struct {
	Auth      *handlers.AuthHandler
	Geodata   *handlers.GeodataHandler
	Geocode   *handlers.GeocodeHandler
	AuthMW    *middleware.AuthMiddleware
	RateLimit func(http.Handler) http.Handler
	Health    func(ctx context.Context) error
	ClientURL string
	Logger    *logrus.Logger
}

func newRouter(d routerDeps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("Hello World!"))
	})
	mux.HandleFunc("/health", healthHandler(d.Health))

	mux.HandleFunc("/user/signup", d.Auth.Signup)
	mux.HandleFunc("/user/login", d.Auth.Login)
	mux.HandleFunc("/user/userData", d.Auth.UserData)

	mux.HandleFunc("/user/connect/nearby", d.Geodata.Nearby)
	mux.HandleFunc("/user/userlocation", d.Geodata.GetLocation)
	mux.HandleFunc("/user/connect/usergeodata", d.Geodata.SetLocation)

	if d.Geocode != nil {
		mux.HandleFunc("/geocode/search", d.Geocode.Search)
		mux.HandleFunc("/geocode/reverse", d.Geocode.Reverse)
		mux.Handle("/geocode/cache", d.AuthMW.RequireAdmin(http.HandlerFunc(d.Geocode.PurgeCache)))
	}

	var h http.Handler = mux
	h = d.AuthMW.Authenticate(h)
	if d.RateLimit != nil {
		h = d.RateLimit(h)
	}
	h = middleware.CORS(d.ClientURL)(h)
	h = middleware.RequestLogger(d.Logger)(h)
	return h
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
