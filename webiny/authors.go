package webiny

import (
	"context"
	"fmt"
)

// DefaultPageSize is the page size used when listing authors.
const DefaultPageSize = 100

type listAuthorsData struct {
	ListAuthors struct {
		Data []Author `json:"data"`
		Meta ListMeta `json:"meta"`
	} `json:"listAuthors"`
}

type getAuthorData struct {
	GetAuthor struct {
		Data *Author `json:"data"`
	} `json:"getAuthor"`
}

// ListAuthors returns all authors, following the list cursor page by page.
func (c *Client) ListAuthors(ctx context.Context) ([]Author, error) {
	var (
		authors []Author
		after   string
	)
	for {
		vars := map[string]interface{}{"limit": DefaultPageSize}
		if after != "" {
			vars["after"] = after
		}
		var out listAuthorsData
		if err := c.Request(ctx, ListAuthorsQuery, vars, &out); err != nil {
			return nil, fmt.Errorf("webiny: list authors: %w", err)
		}
		authors = append(authors, out.ListAuthors.Data...)

		meta := out.ListAuthors.Meta
		if !meta.HasMoreItems || meta.Cursor == "" || meta.Cursor == after {
			break
		}
		after = meta.Cursor
	}
	return authors, nil
}

// GetAuthor returns the author with id, or nil when it does not exist.
func (c *Client) GetAuthor(ctx context.Context, id string) (*Author, error) {
	var out getAuthorData
	if err := c.Request(ctx, GetAuthorQuery, map[string]interface{}{"id": id}, &out); err != nil {
		return nil, fmt.Errorf("webiny: get author %s: %w", id, err)
	}
	return out.GetAuthor.Data, nil
}
