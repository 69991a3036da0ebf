package webiny

import (
	"context"
	"fmt"
)

type listPostsData struct {
	ListPosts struct {
		Data []Post `json:"data"`
	} `json:"listPosts"`
}

type getPostData struct {
	GetPost struct {
		Data *Post `json:"data"`
	} `json:"getPost"`
}

// ListPosts returns every published post, in CMS order.
func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	var out listPostsData
	if err := c.Request(ctx, ListPostsQuery, nil, &out); err != nil {
		return nil, fmt.Errorf("webiny: list posts: %w", err)
	}
	return out.ListPosts.Data, nil
}

// GetPost returns the post with id, or nil when it does not exist.
func (c *Client) GetPost(ctx context.Context, id string) (*Post, error) {
	var out getPostData
	if err := c.Request(ctx, GetPostQuery, map[string]interface{}{"id": id}, &out); err != nil {
		return nil, fmt.Errorf("webiny: get post %s: %w", id, err)
	}
	return out.GetPost.Data, nil
}

// GetPostBySlug returns the post with slug, or nil when none matches.
func (c *Client) GetPostBySlug(ctx context.Context, slug string) (*Post, error) {
	var out listPostsData
	if err := c.Request(ctx, GetPostBySlugQuery, map[string]interface{}{"slug": slug}, &out); err != nil {
		return nil, fmt.Errorf("webiny: get post by slug %s: %w", slug, err)
	}
	if len(out.ListPosts.Data) == 0 {
		return nil, nil
	}
	p := out.ListPosts.Data[0]
	return &p, nil
}
