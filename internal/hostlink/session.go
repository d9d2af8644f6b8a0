package hostlink

import (
	"context"
	"fmt"

	"github.com/vk/pdp2c/internal/compiler"
	"github.com/vk/pdp2c/internal/ctxlog"
	"github.com/vk/pdp2c/internal/vertex"
)

// Event names of the exchange.
const (
	EventGraph     = "graph"
	EventKeys      = "keys"
	EventRegion    = "region"
	EventDone      = "done"
	EventPlaced    = "placed"
	EventHostError = "host_error"
)

// RegionMessage is the payload of one `region` event.
type RegionMessage struct {
	Label  string `json:"label"`
	Region uint8  `json:"region"`
	Name   string `json:"name"`
	Data   []byte `json:"data"`
}

// DoneMessage is the payload of the `done` event.
type DoneMessage struct {
	Network string `json:"network"`
	Regions int    `json:"regions"`
	Bytes   int    `json:"bytes"`
}

// session runs the exchange over an emit function and the channels the
// transport's listeners feed. It knows nothing about the transport.
type session struct {
	emit func(event string, args ...any)

	connected chan struct{}
	keys      chan any
	placed    chan any
	failed    chan error
}

func newSession(emit func(event string, args ...any)) *session {
	return &session{
		emit:      emit,
		connected: make(chan struct{}, 1),
		keys:      make(chan any, 1),
		placed:    make(chan any, 1),
		failed:    make(chan error, 1),
	}
}

// Listener callbacks. They never block: only the first signal of each kind
// matters.

func (s *session) onConnect()          { offer(s.connected, struct{}{}) }
func (s *session) onKeys(payload any)  { offer(s.keys, payload) }
func (s *session) onPlaced(data any)   { offer(s.placed, data) }
func (s *session) onFailure(err error) { offer(s.failed, err) }

func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

func (s *session) run(ctx context.Context, g *compiler.Graph) (KeyTable, error) {
	logger := ctxlog.FromContext(ctx)

	if _, err := wait(ctx, s, s.connected, "connection"); err != nil {
		return nil, err
	}
	logger.Debug("Connected to host, sending graph.", "vertices", len(g.Vertices), "edges", len(g.Edges))
	s.emit(EventGraph, g.Describe())

	payload, err := wait(ctx, s, s.keys, "routing keys")
	if err != nil {
		return nil, err
	}
	table, err := ParseKeys(payload)
	if err != nil {
		return nil, err
	}
	if missing := table.Missing(g); len(missing) > 0 {
		return nil, fmt.Errorf("hostlink: host assigned no key to %d partitions, first %s", len(missing), missing[0])
	}
	logger.Debug("Routing keys received.", "cores", len(table))

	re := &regionEmitter{emit: s.emit}
	if err := g.Generate(ctx, table, re); err != nil {
		return nil, err
	}
	s.emit(EventDone, DoneMessage{Network: g.Network.Name(), Regions: re.regions, Bytes: re.bytes})

	if _, err := wait(ctx, s, s.placed, "placement confirmation"); err != nil {
		return nil, err
	}
	logger.Info("Graph placed by host.", "regions", re.regions, "bytes", re.bytes)
	return table, nil
}

func wait[T any](ctx context.Context, s *session, ch chan T, what string) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, fmt.Errorf("hostlink: timed out waiting for %s: %w", what, ctx.Err())
	case err := <-s.failed:
		return zero, fmt.Errorf("hostlink: while waiting for %s: %w", what, err)
	case v := <-ch:
		return v, nil
	}
}

// regionEmitter forwards each region as a `region` event.
type regionEmitter struct {
	emit    func(event string, args ...any)
	regions int
	bytes   int
}

// EmitRegion sends one region. An empty region is sent as empty data, never
// as null.
func (r *regionEmitter) EmitRegion(v vertex.Vertex, region vertex.Region, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	r.emit(EventRegion, RegionMessage{Label: v.Label(), Region: uint8(region), Name: region.String(), Data: data})
	r.regions++
	r.bytes += len(data)
	return nil
}
