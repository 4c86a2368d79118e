package api

import (
	"context"
	"fmt"
	"net/http"

	"campushub/internal/types"
)

// FavoritePost adds a post to the viewer's favorites.
func (c *Client) FavoritePost(ctx context.Context, postID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/favorites/posts/%d", postID), nil, nil, nil)
}

// UnfavoritePost removes a post from the viewer's favorites.
func (c *Client) UnfavoritePost(ctx context.Context, postID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/favorites/posts/%d", postID), nil, nil, nil)
}

// MyFavorites fetches the viewer's favorited posts.
func (c *Client) MyFavorites(ctx context.Context) ([]types.Post, error) {
	var posts []types.Post
	if err := c.do(ctx, http.MethodGet, "/favorites/me", nil, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// FollowUser creates the viewer's outgoing follow edge to userID.
func (c *Client) FollowUser(ctx context.Context, userID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/users/%d/follow", userID), nil, nil, nil)
}

// UnfollowUser removes the viewer's outgoing follow edge to userID.
func (c *Client) UnfollowUser(ctx context.Context, userID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/users/%d/follow", userID), nil, nil, nil)
}

// MyFollowing fetches the ids the viewer follows.
func (c *Client) MyFollowing(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := c.do(ctx, http.MethodGet, "/users/me/following", nil, nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Followers fetches a user's followers.
func (c *Client) Followers(ctx context.Context, userID int64) ([]types.User, error) {
	var users []types.User
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/followers", userID), nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Following fetches the users a user follows.
func (c *Client) Following(ctx context.Context, userID int64) ([]types.User, error) {
	var users []types.User
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/following", userID), nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UserStats fetches a user's profile summary.
func (c *Client) UserStats(ctx context.Context, userID int64) (*types.UserStats, error) {
	var stats types.UserStats
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/stats", userID), nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// CreateComment adds a comment to a post. parentID of zero means a top-level comment.
func (c *Client) CreateComment(ctx context.Context, postID int64, content string, parentID int64) (*types.Comment, error) {
	body := map[string]any{
		"post_id": postID,
		"content": content,
	}
	if parentID != 0 {
		body["parent_id"] = parentID
	}
	var comment types.Comment
	if err := c.do(ctx, http.MethodPost, "/comments", nil, body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes one of the viewer's comments.
func (c *Client) DeleteComment(ctx context.Context, commentID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/comments/%d", commentID), nil, nil, nil)
}

// ListBadges fetches the badge catalog.
func (c *Client) ListBadges(ctx context.Context) ([]types.Badge, error) {
	var badges []types.Badge
	if err := c.do(ctx, http.MethodGet, "/badges", nil, nil, &badges); err != nil {
		return nil, err
	}
	return badges, nil
}

// MyBadges fetches the viewer's awarded badges.
func (c *Client) MyBadges(ctx context.Context) ([]types.UserBadge, error) {
	var badges []types.UserBadge
	if err := c.do(ctx, http.MethodGet, "/badges/me", nil, nil, &badges); err != nil {
		return nil, err
	}
	return badges, nil
}

// UserBadges fetches another user's awarded badges.
func (c *Client) UserBadges(ctx context.Context, userID int64) ([]types.UserBadge, error) {
	var badges []types.UserBadge
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/badges/users/%d", userID), nil, nil, &badges); err != nil {
		return nil, err
	}
	return badges, nil
}
