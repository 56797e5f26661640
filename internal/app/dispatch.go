package app

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"meshgateway/internal/mesh"
)

// handleNode resolves p and renders it according to the node's kind.
func (s *Server) handleNode(w http.ResponseWriter, r *http.Request, p string) {
	ctx := r.Context()

	node, err := s.cms.ResolveNode(ctx, p)
	if err != nil {
		s.resolveError(w, p, err)
		return
	}

	switch node.Kind() {
	case mesh.KindVehicle:
		s.log.Debug("handling vehicle request", "path", p, "uuid", node.UUID)
		s.renderVehicle(w, r, node)
	case mesh.KindCategory:
		s.log.Debug("handling category request", "path", p, "uuid", node.UUID)
		s.renderCategory(w, r, node)
	default:
		s.log.Debug("unknown element type", "path", p, "schema", node.Schema.Name)
		http.Error(w, msgUnknownType, http.StatusNotFound)
	}
}

func (s *Server) renderVehicle(w http.ResponseWriter, r *http.Request, node *mesh.Node) {
	nav, err := s.navigation(r.Context())
	if err != nil {
		s.serverError(w, "load navigation", err)
		return
	}
	s.render(w, tmplDetail, pageData{
		Title:      node.Fields.Name,
		Navigation: nav,
		Product:    node,
	})
}

func (s *Server) renderCategory(w http.ResponseWriter, r *http.Request, node *mesh.Node) {
	nav, products, err := s.loadCategory(r.Context(), node.UUID)
	if err != nil {
		s.serverError(w, "load category "+node.UUID, err)
		return
	}
	node.Children = products
	s.render(w, tmplList, pageData{
		Title:      node.Fields.Name,
		Navigation: nav,
		Category:   node,
		Products:   products,
	})
}

// loadCategory fetches the navigation and the category's children in
// parallel. Both must succeed; the first failure cancels the other fetch.
func (s *Server) loadCategory(ctx context.Context, nodeUUID string) (mesh.Navigation, []mesh.Node, error) {
	g, gctx := errgroup.WithContext(ctx)

	var nav mesh.Navigation
	var products []mesh.Node

	g.Go(func() error {
		var err error
		nav, err = s.navigation(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.cms.LoadChildren(gctx, nodeUUID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return nav, products, nil
}
