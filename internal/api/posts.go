package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"campushub/internal/types"
)

// PostFilter narrows a post listing. Zero values mean no filtering.
type PostFilter struct {
	Category string
	Tag      string
	Query    string
	Skip     int
	Limit    int
}

func (f PostFilter) values() url.Values {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Tag != "" {
		q.Set("tag", f.Tag)
	}
	if f.Query != "" {
		q.Set("q", f.Query)
	}
	if f.Skip > 0 {
		q.Set("skip", strconv.Itoa(f.Skip))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// ListPosts fetches the post collection, newest first.
func (c *Client) ListPosts(ctx context.Context, filter PostFilter) ([]types.Post, error) {
	var posts []types.Post
	if err := c.do(ctx, http.MethodGet, "/posts", filter.values(), nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost fetches a single post.
func (c *Client) GetPost(ctx context.Context, id int64) (*types.Post, error) {
	var post types.Post
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d", id), nil, nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost submits a new post and returns the server-assigned record.
func (c *Client) CreatePost(ctx context.Context, draft types.PostDraft) (*types.Post, error) {
	var post types.Post
	if err := c.do(ctx, http.MethodPost, "/posts", nil, draft, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost replaces a post's editable fields.
func (c *Client) UpdatePost(ctx context.Context, id int64, draft types.PostDraft) (*types.Post, error) {
	var post types.Post
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/posts/%d", id), nil, draft, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/posts/%d", id), nil, nil, nil)
}

// LikePost records a like by the viewer.
func (c *Client) LikePost(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/posts/%d/like", id), nil, nil, nil)
}

// UnlikePost removes the viewer's like.
func (c *Client) UnlikePost(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/posts/%d/like", id), nil, nil, nil)
}
