package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"campushub/internal/types"
)

// ListItemMessages fetches the item conversation between the viewer and
// otherUserID. With otherUserID zero the backend picks the counterparty:
// the item owner for a buyer, the most recent buyer for a seller.
func (c *Client) ListItemMessages(ctx context.Context, itemID, otherUserID int64) ([]types.ItemMessage, error) {
	var query url.Values
	if otherUserID != 0 {
		query = url.Values{"other_user_id": []string{strconv.FormatInt(otherUserID, 10)}}
	}
	var msgs []types.ItemMessage
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/messages/items/%d", itemID), query, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendItemMessage posts a message in an item conversation. A seller must
// supply receiverID; for a buyer the backend routes to the item owner and
// receiverID may be zero.
func (c *Client) SendItemMessage(ctx context.Context, itemID int64, content string, receiverID int64) (*types.ItemMessage, error) {
	body := map[string]any{"content": content}
	if receiverID != 0 {
		body["receiver_id"] = receiverID
	}
	var msg types.ItemMessage
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/messages/items/%d", itemID), nil, body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ItemThread summarises one of the viewer's item conversations.
type ItemThread struct {
	ItemID      int64              `json:"item_id"`
	Item        *types.Item        `json:"item,omitempty"`
	OtherUser   *types.User        `json:"other_user,omitempty"`
	LastMessage *types.ItemMessage `json:"last_message,omitempty"`
	Unread      int                `json:"unread,omitempty"`
}

// ListItemThreads fetches an overview of the viewer's item conversations.
func (c *Client) ListItemThreads(ctx context.Context) ([]ItemThread, error) {
	var threads []ItemThread
	if err := c.do(ctx, http.MethodGet, "/messages/items", nil, nil, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}
