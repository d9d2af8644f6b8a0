package app

import (
	"context"
	"fmt"

	"github.com/vk/pdp2c/internal/builder"
	"github.com/vk/pdp2c/internal/compiler"
	"github.com/vk/pdp2c/internal/ctxlog"
	"github.com/vk/pdp2c/internal/emit"
	"github.com/vk/pdp2c/internal/hostlink"
	"github.com/vk/pdp2c/internal/hostsim"
)

// Run loads, builds and compiles the network, then hands the graph to the
// configured host. Nothing is written until compilation has succeeded.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "network_path", a.cfg.NetworkPath)

	model, err := a.loader.Load(ctx, a.cfg.NetworkPath)
	if err != nil {
		return fmt.Errorf("failed to load network description: %w", err)
	}

	if a.cfg.Format {
		out, err := a.encoder.Encode(model)
		if err != nil {
			return fmt.Errorf("failed to format network description: %w", err)
		}
		_, err = a.outW.Write(out)
		return err
	}

	net, err := builder.Build(ctx, model)
	if err != nil {
		return fmt.Errorf("failed to build network: %w", err)
	}
	g, err := compiler.Compile(ctx, net)
	if err != nil {
		return fmt.Errorf("failed to compile network: %w", err)
	}

	if over := hostsim.CheckBudget(g, a.cfg.MemoryBudget); len(over) > 0 {
		a.logger.Warn("Cores exceed the memory budget.", "budget_bytes", a.cfg.MemoryBudget, "count", len(over), "cores", over)
	}

	switch {
	case a.cfg.Inspect != "":
		return a.inspect(ctx, g, a.cfg.Inspect)
	case a.cfg.HostURL != "":
		return a.publish(ctx, g)
	default:
		return a.writeLocal(ctx, g)
	}
}

// writeLocal places the graph with the in-memory host and writes region
// files plus a manifest. Regions are generated once, into memory, and
// checked before any file is touched, so a generation error leaves no
// partial output. Core directories left by a previous, different network
// are removed.
func (a *App) writeLocal(ctx context.Context, g *compiler.Graph) error {
	placer := hostsim.NewPlacer()
	if err := placer.Place(ctx, g); err != nil {
		return fmt.Errorf("failed to assign routing keys: %w", err)
	}

	mem := hostsim.NewMemory()
	if err := g.Generate(ctx, placer, mem); err != nil {
		return fmt.Errorf("failed to generate regions: %w", err)
	}
	if err := mem.Verify(g); err != nil {
		return err
	}

	removed, err := emit.RemoveStale(a.cfg.OutDir, g)
	if err != nil {
		return fmt.Errorf("failed to clean output directory: %w", err)
	}
	if len(removed) > 0 {
		a.logger.Info("Removed stale core directories.", "dir", a.cfg.OutDir, "count", len(removed))
	}

	files := &emit.FileEmitter{Dir: a.cfg.OutDir}
	if err := mem.Replay(g, files); err != nil {
		return fmt.Errorf("failed to write regions: %w", err)
	}
	if err := emit.WriteManifest(a.cfg.OutDir, g, placer); err != nil {
		return err
	}

	count, bytes := files.Stats()
	a.logger.Info("Output written.", "dir", a.cfg.OutDir, "files", count, "bytes", bytes)
	return nil
}

// publish sends the graph to a remote host and records the keys it chose in
// a local manifest.
func (a *App) publish(ctx context.Context, g *compiler.Graph) error {
	client, err := hostlink.New(hostlink.Options{URL: a.cfg.HostURL, Timeout: a.cfg.HostTimeout})
	if err != nil {
		return err
	}
	keys, err := client.Publish(ctx, g)
	if err != nil {
		return fmt.Errorf("failed to publish graph: %w", err)
	}
	return emit.WriteManifest(a.cfg.OutDir, g, keys)
}
