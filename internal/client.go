package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/frankli0324/go-transporter/internal/config"
	"github.com/frankli0324/go-transporter/internal/dialer"
	"github.com/frankli0324/go-transporter/internal/errors"
	"github.com/frankli0324/go-transporter/internal/logger"
	"github.com/frankli0324/go-transporter/internal/model"
	"github.com/frankli0324/go-transporter/internal/transport"
)

// Name is the registry name of the Transporter.
const Name = "default-http"

// DefaultTimeout bounds a whole call, connect included.
const DefaultTimeout = 5 * time.Second

type Handler = func(ctx context.Context, req *model.PreparedRequest) (*model.Response, error)
type Middleware func(next Handler) Handler

// Transporter performs one HTTP/1.1 exchange per Send over a fresh
// connection. All capture state lives in the call, so a configured
// Transporter may be shared between goroutines. Use and UseDialer are
// meant for setup and must not race with Send.
type Transporter struct {
	Timeout    time.Duration
	BufferSize int
	Logger     *zap.Logger

	middlewares []Middleware
	dialer      dialer.Dialer
}

var _ model.Transporter = (*Transporter)(nil)

// New builds a Transporter from cfg. A nil log disables logging.
func New(cfg *config.Config, log *zap.Logger) *Transporter {
	d := &dialer.CoreDialer{
		ConnectTimeout: cfg.ConnectTimeout,
		ResolveConfig:  &dialer.ResolveConfig{StaticHosts: cfg.Resolve},
	}
	if cfg.UseEnvProxy {
		d.GetProxy = dialer.EnvironmentProxy()
	}
	return &Transporter{
		Timeout:    cfg.Timeout,
		BufferSize: cfg.BufferSize,
		Logger:     log,
		dialer:     d,
	}
}

// Use appends mw to the end of the chain. The first "Use"d mw executes first
func (t *Transporter) Use(mws ...Middleware) {
	t.middlewares = append(t.middlewares, mws...)
}

// UseDialer replaces the dialer with the result of wrap, which receives
// the current one.
func (t *Transporter) UseDialer(wrap func(dialer.Dialer) dialer.Dialer) {
	t.dialer = wrap(t.getDialer())
}

var defaultDialer = &dialer.CoreDialer{}

func (t *Transporter) getDialer() dialer.Dialer {
	if t.dialer == nil {
		return defaultDialer
	}
	return t.dialer
}

func (t *Transporter) timeout() time.Duration {
	if t.Timeout > 0 {
		return t.Timeout
	}
	return DefaultTimeout
}

// Send encodes req, exchanges it with the server and returns the parsed
// response. Only 2xx responses are returned; everything else is one of
// the typed errors of internal/errors.
func (t *Transporter) Send(ctx context.Context, req *model.Request) (*model.Response, error) {
	log := logger.OrNop(t.Logger).With(zap.String("call_id", uuid.NewString()))

	pr, err := req.Prepare()
	if err != nil {
		log.Debug("encode request", zap.String("url", req.URL), zap.Error(err))
		return nil, err
	}
	log = log.With(zap.String("method", pr.Method), zap.String("url", pr.URL))
	log.Debug("send request", zap.Int("body_bytes", len(pr.Body)))

	ctx, cancel := context.WithTimeout(ctx, t.timeout())
	defer cancel()

	next := t.exchange
	for i := len(t.middlewares) - 1; i >= 0; i-- {
		next = t.middlewares[i](next)
	}

	start := time.Now()
	resp, err := next(ctx, pr)
	if err != nil {
		log.Debug("request failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, err
	}
	log.Debug("response received",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("status", resp.Status.Code),
		zap.Int("body_bytes", len(resp.Body)),
	)
	return resp, nil
}

func (t *Transporter) exchange(ctx context.Context, pr *model.PreparedRequest) (*model.Response, error) {
	conn, err := t.getDialer().Dial(ctx, pr)
	if err != nil {
		return nil, errors.Transport(pr.URL, errors.CouldntConnect, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	h1 := transport.HTTP1{BufferSize: t.BufferSize, Forward: conn.Forward, ProxyHeader: conn.ProxyHeader}
	if err := h1.Write(conn, pr); err != nil {
		return nil, errors.Transport(pr.URL, errors.SendError, withCause(ctx, err))
	}
	s := &transport.TransferState{}
	if err := h1.Read(conn, pr, s); err != nil {
		return nil, errors.Transport(pr.URL, errors.RecvError, withCause(ctx, err))
	}
	return transport.Parse(pr.URL, s)
}

// withCause attaches the context error to err when the context ended the
// exchange, so that deadlines are reported as timeouts.
func withCause(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil && !errors.Is(err, cerr) {
		return fmt.Errorf("%w: %w", cerr, err)
	}
	return err
}
