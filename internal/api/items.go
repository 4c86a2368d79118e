package api

import (
	"context"
	"fmt"
	"net/http"

	"campushub/internal/types"
)

// ListItems fetches the marketplace item collection.
func (c *Client) ListItems(ctx context.Context) ([]types.Item, error) {
	var items []types.Item
	if err := c.do(ctx, http.MethodGet, "/items", nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetItem fetches a single item, including its owner.
func (c *Client) GetItem(ctx context.Context, id int64) (*types.Item, error) {
	var item types.Item
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/items/%d", id), nil, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem lists a new item for sale.
func (c *Client) CreateItem(ctx context.Context, draft types.ItemDraft) (*types.Item, error) {
	var item types.Item
	if err := c.do(ctx, http.MethodPost, "/items", nil, draft, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem applies partial changes to an item.
func (c *Client) UpdateItem(ctx context.Context, id int64, update types.ItemUpdate) (*types.Item, error) {
	var item types.Item
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/items/%d", id), nil, update, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/items/%d", id), nil, nil, nil)
}
