package mesh

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type navigationElement struct {
	UUID     string              `json:"uuid"`
	Node     Node                `json:"node"`
	Children []navigationElement `json:"children"`
}

type pagingInfo struct {
	CurrentPage int `json:"currentPage"`
	PerPage     int `json:"perPage"`
	PageCount   int `json:"pageCount"`
	TotalCount  int `json:"totalCount"`
}

type nodeListResponse struct {
	Data     []Node     `json:"data"`
	MetaInfo pagingInfo `json:"_metainfo"`
}

func (c *Client) resolveWebroot(ctx context.Context, path string) (*Node, error) {
	var node Node
	if err := c.getJSON(ctx, "mesh webroot", c.webrootURL(path, true), &node); err != nil {
		return nil, err
	}
	return &node, nil
}

func (c *Client) navigationREST(ctx context.Context) (Navigation, error) {
	u := c.endpoint("navroot/")
	u.RawQuery = "maxDepth=1&resolveLinks=short"

	var root navigationElement
	if err := c.getJSON(ctx, "mesh navroot", u.String(), &root); err != nil {
		return nil, err
	}

	nav := make(Navigation, 0, len(root.Children))
	for _, child := range root.Children {
		n := child.Node
		if n.UUID == "" {
			n.UUID = child.UUID
		}
		nav = append(nav, n)
	}
	return nav, nil
}

func (c *Client) childrenREST(ctx context.Context, nodeUUID string) ([]Node, error) {
	var all []Node
	for page := 1; ; page++ {
		u := c.endpoint("nodes", nodeUUID, "children")
		q := url.Values{}
		q.Set("resolveLinks", "short")
		q.Set("page", strconv.Itoa(page))
		q.Set("perPage", strconv.Itoa(c.pageSize))
		u.RawQuery = q.Encode()

		var list nodeListResponse
		if err := c.getJSON(ctx, "mesh children", u.String(), &list); err != nil {
			return nil, err
		}
		all = append(all, list.Data...)

		if page >= list.MetaInfo.PageCount || len(list.Data) == 0 {
			break
		}
	}
	if all == nil {
		all = []Node{}
	}
	return all, nil
}

// canonicalUUID validates id and returns it in Mesh's undashed hex form.
func canonicalUUID(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", fmt.Errorf("invalid node uuid %q: %w", id, err)
	}
	return strings.ReplaceAll(parsed.String(), "-", ""), nil
}
