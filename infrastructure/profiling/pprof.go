// Package profiling exposes net/http/pprof on a loopback-only listener.
package profiling

import (
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/cybersalt/cs-sponsored-articles/infrastructure/logger"
)

// DefaultPort is used when Config.Port is zero.
const DefaultPort = 6060

// Config controls the pprof listener.
type Config struct {
	Enabled bool `env:"ENABLE_PROFILING" yaml:"enabled"`
	Port    int  `env:"PPROF_PORT"       yaml:"port"`
}

// Handler returns a mux serving the standard pprof endpoints under
// /debug/pprof/.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

// Start serves pprof on localhost in the background when cfg.Enabled.
// It returns the server so callers can close it on shutdown, or nil.
func Start(cfg Config, log logger.Logger) *http.Server {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort("localhost", strconv.Itoa(cfg.Port)),
		Handler:           Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting pprof server", logger.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("pprof server error", logger.Error(err))
		}
	}()
	return srv
}
