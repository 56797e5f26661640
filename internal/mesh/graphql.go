package mesh

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// nodeFields is shared by every query that returns nodes. The vehicle
// fragment is needed both for detail pages and for category product lists.
const nodeFields = `
fragment productInfo on vehicle {
  slug
  name
  SKU
  description
  price
  weight
  stocklevel
  vehicleImage {
    uuid
    path
  }
}

fragment nodeInfo on Node {
  uuid
  path
  schema {
    name
  }
  fields {
    ... on category {
      slug
      name
      description
    }
    ... on vehicleImage {
      name
    }
    ...productInfo
  }
}
`

const navigationQuery = `query {
  project {
    rootNode {
      children {
        elements {
          ...nodeInfo
        }
      }
    }
  }
}
` + nodeFields

const nodeByPathQuery = `query($path: String) {
  node(path: $path) {
    ...nodeInfo
  }
}
` + nodeFields

const childrenQuery = `query($uuid: String) {
  node(uuid: $uuid) {
    uuid
    children {
      elements {
        ...nodeInfo
      }
    }
  }
}
` + nodeFields

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

type nodeList struct {
	Elements []Node `json:"elements"`
}

type graphQLNode struct {
	Node
	Children *nodeList `json:"children"`
}

func (c *Client) graphQL(ctx context.Context, op, query string, vars map[string]any, dest any) error {
	u := c.endpoint("graphql")

	var resp graphQLResponse
	if err := c.sendJSON(ctx, op, http.MethodPost, u.String(), graphQLRequest{Query: query, Variables: vars}, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return &Error{Op: op, Err: fmt.Errorf("graphql: %s", strings.Join(msgs, "; "))}
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return &Error{Op: op, Err: fmt.Errorf("graphql: empty data")}
	}
	if err := json.Unmarshal(resp.Data, dest); err != nil {
		return &Error{Op: op, Err: fmt.Errorf("decode graphql data: %w", err)}
	}
	return nil
}

func (c *Client) resolveGraphQL(ctx context.Context, path string) (*Node, error) {
	var data struct {
		Node *Node `json:"node"`
	}
	if err := c.graphQL(ctx, "mesh node", nodeByPathQuery, map[string]any{"path": path}, &data); err != nil {
		return nil, err
	}
	if data.Node == nil {
		return nil, &Error{Op: "mesh node", Status: http.StatusNotFound, Err: fmt.Errorf("no node at %q", path)}
	}
	return data.Node, nil
}

func (c *Client) navigationGraphQL(ctx context.Context) (Navigation, error) {
	var data struct {
		Project *struct {
			RootNode *struct {
				Children nodeList `json:"children"`
			} `json:"rootNode"`
		} `json:"project"`
	}
	if err := c.graphQL(ctx, "mesh navigation", navigationQuery, nil, &data); err != nil {
		return nil, err
	}
	if data.Project == nil || data.Project.RootNode == nil {
		return nil, &Error{Op: "mesh navigation", Err: fmt.Errorf("graphql: project root node missing")}
	}
	nav := Navigation(data.Project.RootNode.Children.Elements)
	if nav == nil {
		nav = Navigation{}
	}
	return nav, nil
}

func (c *Client) childrenGraphQL(ctx context.Context, nodeUUID string) ([]Node, error) {
	var data struct {
		Node *graphQLNode `json:"node"`
	}
	if err := c.graphQL(ctx, "mesh children", childrenQuery, map[string]any{"uuid": nodeUUID}, &data); err != nil {
		return nil, err
	}
	if data.Node == nil {
		return nil, &Error{Op: "mesh children", Status: http.StatusNotFound, Err: fmt.Errorf("no node %s", nodeUUID)}
	}
	if data.Node.Children == nil || data.Node.Children.Elements == nil {
		return []Node{}, nil
	}
	return data.Node.Children.Elements, nil
}
