package app

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/vk/pdp2c/internal/compiler"
	"github.com/vk/pdp2c/internal/hostsim"
	"github.com/vk/pdp2c/internal/vertexid"
)

// inspect prints the identity, keys, edges and region bytes of one core.
func (a *App) inspect(ctx context.Context, g *compiler.Graph, label string) error {
	id, err := vertexid.Parse(label)
	if err != nil {
		return err
	}
	v, ok := g.Vertex(id.String())
	if !ok {
		return fmt.Errorf("no core labelled %q", label)
	}

	placer := hostsim.NewPlacer()
	if err := placer.Place(ctx, g); err != nil {
		return err
	}
	mem := hostsim.NewMemory()
	if err := v.Generate(ctx, placer, mem); err != nil {
		return err
	}
	outgoing, err := placer.Store().EdgesFrom(v.Label())
	if err != nil {
		return err
	}
	incoming, err := placer.Store().EdgesTo(v.Label())
	if err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "core %s\n", v.Label())
	fmt.Fprintf(&sb, "  role:      %s\n", v.Role())
	fmt.Fprintf(&sb, "  binary:    %s\n", v.Binary())
	fmt.Fprintf(&sb, "  group:     %s (id %d)\n", v.Group().Label(), v.Group().ID())
	fmt.Fprintf(&sb, "  footprint: %d bytes\n", v.Footprint())
	fmt.Fprintln(&sb, "  partitions:")
	for _, p := range v.Partitions() {
		if key, ok := placer.KeyFor(v, p); ok {
			fmt.Fprintf(&sb, "    %-20s key 0x%08x\n", p, key)
		} else {
			fmt.Fprintf(&sb, "    %-20s no outgoing edges\n", p)
		}
	}
	fmt.Fprintf(&sb, "  outgoing edges: %d\n", len(outgoing))
	for _, e := range outgoing {
		fmt.Fprintf(&sb, "    %s -> %s\n", e.Partition, e.To.Label())
	}
	fmt.Fprintf(&sb, "  incoming edges: %d\n", len(incoming))
	for _, e := range incoming {
		fmt.Fprintf(&sb, "    %s <- %s\n", e.Partition, e.From.Label())
	}
	for _, info := range v.Regions() {
		data, _ := mem.Region(v.Label(), info.Region)
		fmt.Fprintf(&sb, "region %d %s (%d bytes)\n", uint8(info.Region), info.Region, info.Size)
		sb.WriteString(hex.Dump(data))
	}

	_, err = fmt.Fprint(a.outW, sb.String())
	return err
}
