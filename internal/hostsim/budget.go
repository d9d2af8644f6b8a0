package hostsim

import "github.com/vk/pdp2c/internal/compiler"

// CheckBudget returns the labels of the cores whose footprint exceeds
// budget bytes, in graph order. A budget of zero or less disables the check.
func CheckBudget(g *compiler.Graph, budget int) []string {
	if budget <= 0 {
		return nil
	}
	var over []string
	for _, v := range g.Vertices {
		if v.Footprint() > budget {
			over = append(over, v.Label())
		}
	}
	return over
}
