// Package discserv provides a way to run an http server
// with logging and other necessary things
package discserv

import (
	"context"
	"crypto/ed25519"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jdholdren/wordcount/internal/bot"
)

type Config struct {
	Port int
	// VerifyKey is the hex encoded application public key. Without it the
	// interactions endpoint is not served.
	VerifyKey string

	TLSCertFile string
	TLSKeyFile  string
}

// Handler answers interactions, see bot.Bot
type Handler interface {
	HandleInteraction(ctx context.Context, i *discordgo.Interaction, r bot.Responder)
}

type Server struct {
	*http.Server

	h   Handler
	key ed25519.PublicKey
	l   *zap.SugaredLogger

	// responseTimeout is how long the first response is waited for
	responseTimeout time.Duration
}

func New(l *zap.SugaredLogger, c Config, h Handler) (*Server, error) {
	r := mux.NewRouter()

	s := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", c.Port),
			Handler:      r,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		h:               h,
		l:               l,
		responseTimeout: 3 * time.Second,
	}

	if c.TLSCertFile != "" || c.TLSKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(c.TLSCertFile, c.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("error loading tls key pair: %s", err)
		}
		s.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	if c.VerifyKey != "" {
		keyBytes, err := hex.DecodeString(c.VerifyKey)
		if err != nil {
			return nil, fmt.Errorf("error decoding verify key: %s", err)
		}
		if len(keyBytes) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("verify key must be %d bytes, got %d", ed25519.PublicKeySize, len(keyBytes))
		}
		s.key = ed25519.PublicKey(keyBytes)

		r.HandleFunc("/interactions", s.handleDiscordInteraction()).Methods(http.MethodPost)
	}
	r.HandleFunc("/healthz", handleHealthCheck()).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.Use(loggingMiddleware(l))

	return s, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errs := make(chan error, 1)
	go func() {
		var err error
		if s.TLSConfig != nil {
			// Certificates are already in TLSConfig
			err = s.ListenAndServeTLS("", "")
		} else {
			err = s.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errs <- err
	}()

	s.l.Infow("http server listening", "addr", s.Addr, "tls", s.TLSConfig != nil)

	select {
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("error serving http: %s", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down http server: %s", err)
	}

	return <-errs
}

func loggingMiddleware(l *zap.SugaredLogger) mux.MiddlewareFunc {
	// God i hate the nesting
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.RequestURI == "/healthz" || r.RequestURI == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			l.Infow("request received", "uri", r.RequestURI, "method", r.Method)

			// Call the next handler, which can be another middleware in the chain, or the final handler.
			next.ServeHTTP(w, r)
		})
	}
}

func handleHealthCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {}
}
