package mesh

import (
	"io"
	"strings"
)

// Kind is the closed set of node types the gateway knows how to render.
type Kind int

const (
	KindOther Kind = iota
	KindVehicle
	KindCategory
)

func (k Kind) String() string {
	switch k {
	case KindVehicle:
		return "vehicle"
	case KindCategory:
		return "category"
	default:
		return "other"
	}
}

// KindOf maps a Mesh schema name onto a Kind. Unknown names are KindOther.
func KindOf(schema string) Kind {
	switch strings.TrimSpace(schema) {
	case "vehicle":
		return KindVehicle
	case "category":
		return KindCategory
	default:
		return KindOther
	}
}

// SchemaRef is the schema reference embedded in every node response.
type SchemaRef struct {
	Name string `json:"name"`
	UUID string `json:"uuid,omitempty"`
}

// ImageRef points at a binary node, usually below /images/.
type ImageRef struct {
	UUID string `json:"uuid,omitempty"`
	Path string `json:"path"`
}

// Fields is the union of the category, vehicle and vehicleImage field sets.
type Fields struct {
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	SKU         int       `json:"SKU"`
	Price       float64   `json:"price"`
	Weight      float64   `json:"weight"`
	StockLevel  int       `json:"stocklevel"`
	Image       *ImageRef `json:"vehicleImage"`
}

// Node is a content item as returned by the webroot, children and GraphQL APIs.
type Node struct {
	UUID   string    `json:"uuid"`
	Schema SchemaRef `json:"schema"`
	Path   string    `json:"path"`
	Fields Fields    `json:"fields"`

	// Children holds the products of a category once loaded.
	Children []Node `json:"-"`
}

func (n Node) Kind() Kind {
	return KindOf(n.Schema.Name)
}

func (n Node) IsCategory() bool {
	return n.Kind() == KindCategory
}

func (n Node) IsVehicle() bool {
	return n.Kind() == KindVehicle
}

// Navigation is the ordered list of top-level nodes below the project root.
type Navigation []Node

// Categories returns the entries that belong in the top navigation bar,
// skipping folders such as /images.
func (nav Navigation) Categories() []Node {
	out := make([]Node, 0, len(nav))
	for _, n := range nav {
		if n.IsCategory() {
			out = append(out, n)
		}
	}
	return out
}

// Binary is an asset streamed from the webroot endpoint. Callers own Body.
type Binary struct {
	ContentType   string
	ContentLength int64
	Body          io.ReadCloser
}
