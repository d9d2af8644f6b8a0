package hostlink

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/pdp2c/internal/compiler"
	"github.com/vk/pdp2c/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultTimeout bounds the whole exchange when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Options configures the connection to the host.
type Options struct {
	URL                string
	Namespace          string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Client publishes graphs to one host.
type Client struct {
	opts Options
}

// New validates opts and returns a client. No connection is made until
// Publish.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("hostlink: failed to parse URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("hostlink: URL %q needs a scheme and a host", opts.URL)
	}
	if opts.Namespace == "" {
		opts.Namespace = "/"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Client{opts: opts}, nil
}

// Publish sends g to the host and streams its regions once the host has
// assigned keys. It returns the keys the host assigned.
func (c *Client) Publish(ctx context.Context, g *compiler.Graph) (KeyTable, error) {
	logger := ctxlog.FromContext(ctx).With("host", c.opts.URL, "namespace", c.opts.Namespace)
	logger.Debug("Publishing graph to host.")

	opCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	parsedURL, _ := url.Parse(c.opts.URL)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if c.opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(c.opts.Namespace, opts)
	defer func() {
		logger.Debug("Disconnecting from host")
		io.Disconnect()
	}()

	s := newSession(func(event string, args ...any) {
		io.Emit(event, args...)
	})

	io.On(types.EventName("connect"), func(...any) {
		logger.Info("Connected to host", "sid", io.Id())
		s.onConnect()
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		s.onFailure(asError(errs, "connection failed"))
	})
	io.On(types.EventName(EventHostError), func(args ...any) {
		s.onFailure(asError(args, "host reported an error"))
	})
	io.On(types.EventName(EventKeys), func(data ...any) {
		if len(data) == 0 {
			s.onKeys(nil)
			return
		}
		s.onKeys(data[0])
	})
	io.On(types.EventName(EventPlaced), func(data ...any) {
		s.onPlaced(data)
	})

	io.Connect()
	return s.run(opCtx, g)
}

// asError turns listener arguments into an error.
func asError(args []any, fallback string) error {
	if len(args) == 0 {
		return errors.New(fallback)
	}
	switch v := args[0].(type) {
	case error:
		return v
	case string:
		return errors.New(v)
	default:
		return fmt.Errorf("%s: %v", fallback, v)
	}
}
