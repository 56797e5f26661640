// Package catalog walks the published catalog tree and exports it as a
// JSON graph of categories and the vehicles below them.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"meshgateway/internal/mesh"
)

// Source is the subset of the Mesh client the exporter needs.
type Source interface {
	LoadNavigation(ctx context.Context) (mesh.Navigation, error)
	LoadChildren(ctx context.Context, nodeUUID string) ([]mesh.Node, error)
}

type Node struct {
	UUID     string  `json:"uuid"`
	Path     string  `json:"path"`
	Kind     string  `json:"kind"`
	Name     string  `json:"name"`
	Price    float64 `json:"price,omitempty"`
	Stock    int     `json:"stock,omitempty"`
	Outbound int     `json:"outbound"`
}

type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type Totals struct {
	Categories int `json:"categories"`
	Vehicles   int `json:"vehicles"`
	Edges      int `json:"edges"`
}

type Graph struct {
	GeneratedAt time.Time `json:"generated_at"`
	Totals      Totals    `json:"totals"`
	Nodes       []Node    `json:"nodes"`
	Edges       []Edge    `json:"edges"`
}

// Export builds the catalog graph and writes it to outPath when non-empty.
func Export(ctx context.Context, src Source, outPath string) (Graph, error) {
	nav, err := src.LoadNavigation(ctx)
	if err != nil {
		return Graph{}, fmt.Errorf("load navigation: %w", err)
	}

	g := Graph{
		GeneratedAt: time.Now().UTC(),
		Nodes:       make([]Node, 0),
		Edges:       make([]Edge, 0),
	}
	seen := make(map[string]struct{})

	for _, cat := range nav.Categories() {
		children, err := src.LoadChildren(ctx, cat.UUID)
		if err != nil {
			return Graph{}, fmt.Errorf("load children of %s: %w", cat.Path, err)
		}

		outbound := 0
		for _, child := range children {
			if !child.IsVehicle() {
				continue
			}
			outbound++
			g.Edges = append(g.Edges, Edge{Source: cat.Path, Target: child.Path})

			// a vehicle may be linked from more than one category
			if _, ok := seen[child.UUID]; ok {
				continue
			}
			seen[child.UUID] = struct{}{}
			g.Nodes = append(g.Nodes, Node{
				UUID:  child.UUID,
				Path:  child.Path,
				Kind:  child.Kind().String(),
				Name:  child.Fields.Name,
				Price: child.Fields.Price,
				Stock: child.Fields.StockLevel,
			})
			g.Totals.Vehicles++
		}

		g.Nodes = append(g.Nodes, Node{
			UUID:     cat.UUID,
			Path:     cat.Path,
			Kind:     cat.Kind().String(),
			Name:     cat.Fields.Name,
			Outbound: outbound,
		})
		g.Totals.Categories++
	}

	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].Path < g.Nodes[j].Path })
	g.Totals.Edges = len(g.Edges)

	if outPath != "" {
		if err := write(outPath, g); err != nil {
			return Graph{}, err
		}
	}

	return g, nil
}

func write(outPath string, g Graph) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	return os.WriteFile(outPath, data, 0o644)
}
