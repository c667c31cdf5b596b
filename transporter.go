// Package transporter sends one HTTP request per call and returns the
// normalized response, or a typed error describing what went wrong.
//
// Two implementations are available through the registry returned by
// [NewRegistry]: [DefaultHTTP], which speaks HTTP/1.1 itself, and [Resty],
// which runs on go-resty.
package transporter

import (
	"go.uber.org/zap"

	"github.com/frankli0324/go-transporter/internal"
	"github.com/frankli0324/go-transporter/internal/config"
	"github.com/frankli0324/go-transporter/internal/model"
	"github.com/frankli0324/go-transporter/internal/registry"
	"github.com/frankli0324/go-transporter/internal/restyhttp"
)

type Request = model.Request
type PreparedRequest = model.PreparedRequest
type Response = model.Response
type Status = model.Status
type Header = model.Header
type Params = model.Params

type Transporter = model.Transporter

// HTTPTransporter is the built-in HTTP/1.1 transporter.
type HTTPTransporter = internal.Transporter
type Handler = internal.Handler
type Middleware = internal.Middleware

type Config = config.Config
type Registry = registry.Registry
type Factory = registry.Factory

const (
	DefaultHTTP = internal.Name
	Resty       = restyhttp.Name
)

func NewHeader(kv ...string) Header { return model.NewHeader(kv...) }

// DefaultConfig returns the built-in configuration: 5s connect and total
// timeouts, no proxy, no static hosts.
func DefaultConfig() *Config { return config.Default() }

// LoadConfig reads a config file (optional), .env and TRANSPORTER_*
// environment variables on top of [DefaultConfig].
func LoadConfig(path string) (*Config, error) { return config.Load(path) }

// New returns the built-in transporter configured by cfg.
func New(cfg *Config, log *zap.Logger) *HTTPTransporter { return internal.New(cfg, log) }

// NewRegistry returns a registry holding every transporter of this module.
func NewRegistry() *Registry {
	r := registry.New()
	r.Register(DefaultHTTP, func(cfg *config.Config, log *zap.Logger) (model.Transporter, error) {
		return internal.New(cfg, log), nil
	})
	r.Register(Resty, func(cfg *config.Config, log *zap.Logger) (model.Transporter, error) {
		return restyhttp.New(cfg, log), nil
	})
	return r
}
