// Package feed is the shared social-state cache: the post and item
// collections plus the viewer's like/favorite/follow override sets. It is
// the single owner of that state; all mutation goes through its methods.
//
// Mutations follow a confirm-then-reconcile pattern: the override set is
// updated only from a successful network call, then a full refetch
// reconciles counts and server-assigned fields. Nothing is speculatively
// incremented, so a failed call leaves the cache exactly as it was.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"campushub/internal/api"
	"campushub/internal/types"
)

const identityReloadTimeout = 10 * time.Second

// Local precondition failures.
var (
	ErrEmptyTitle    = errors.New("a title is required")
	ErrEmptyContent  = errors.New("content is required")
	ErrNegativePrice = errors.New("the price must not be negative")
	ErrEmptyComment  = errors.New("a comment must not be empty")
)

// Cache holds the feed state for the lifetime of the application view.
type Cache struct {
	client *api.Client
	logger *slog.Logger

	mu        sync.Mutex
	posts     []types.Post
	items     []types.Item
	liked     map[int64]struct{}
	favorited map[int64]struct{}
	following map[int64]struct{}
}

// New creates an empty feed cache.
func New(client *api.Client, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		client:    client,
		logger:    logger,
		liked:     make(map[int64]struct{}),
		favorited: make(map[int64]struct{}),
		following: make(map[int64]struct{}),
	}
}

// Posts returns a copy of the cached post collection.
func (c *Cache) Posts() []types.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Post, len(c.posts))
	copy(out, c.posts)
	return out
}

// Items returns a copy of the cached item collection.
func (c *Cache) Items() []types.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Item, len(c.items))
	copy(out, c.items)
	return out
}

// Liked reports whether the viewer likes the post, from the override set
// union the server-asserted flag on the cached post.
func (c *Cache) Liked(postID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.likedLocked(postID)
}

func (c *Cache) likedLocked(postID int64) bool {
	if _, ok := c.liked[postID]; ok {
		return true
	}
	for i := range c.posts {
		if c.posts[i].ID == postID && c.posts[i].LikedByMe {
			return true
		}
	}
	return false
}

// Favorited reports whether the post is in the favorites override set.
func (c *Cache) Favorited(postID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.favorited[postID]
	return ok
}

// FavoritedIDs returns the favorites override set.
func (c *Cache) FavoritedIDs() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return setToSlice(c.favorited)
}

// LikedIDs returns the likes override set.
func (c *Cache) LikedIDs() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return setToSlice(c.liked)
}

// FollowingIDs returns the viewer's outgoing follow edge set.
func (c *Cache) FollowingIDs() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return setToSlice(c.following)
}

// Following reports whether the viewer follows userID.
func (c *Cache) Following(userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.following[userID]
	return ok
}

func setToSlice(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// RefreshPosts fetches the full post collection and replaces the cached one.
// The like and favorite override sets become the union of the ids the server
// marks in this response and the ids already present, so a filtered or
// paginated fetch never drops a previously known relationship.
func (c *Cache) RefreshPosts(ctx context.Context) error {
	posts, err := c.client.ListPosts(ctx, api.PostFilter{})
	if err != nil {
		c.logger.Warn("post refresh failed", "error", err)
		return fmt.Errorf("refresh posts: %w", err)
	}

	sanitizePosts(posts)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts = posts
	for i := range posts {
		if posts[i].LikedByMe {
			c.liked[posts[i].ID] = struct{}{}
		}
		if posts[i].FavoritedByMe {
			c.favorited[posts[i].ID] = struct{}{}
		}
	}
	return nil
}

// RefreshItems fetches and replaces the item collection; no relationship overlay.
func (c *Cache) RefreshItems(ctx context.Context) error {
	items, err := c.client.ListItems(ctx)
	if err != nil {
		c.logger.Warn("item refresh failed", "error", err)
		return fmt.Errorf("refresh items: %w", err)
	}

	for i := range items {
		if items[i].IsAnonymous {
			items[i].Owner = nil
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	return nil
}

// sanitizePosts drops the author from anonymous posts. The backend already
// hides it; this guard holds even if a response leaks the field.
func sanitizePosts(posts []types.Post) {
	for i := range posts {
		if posts[i].IsAnonymous {
			posts[i].Author = nil
		}
	}
}

// LoadFavorites merges the viewer's favorites listing into the override set.
// A 401 clears the set: an anonymous viewer has no favorites.
func (c *Cache) LoadFavorites(ctx context.Context) error {
	posts, err := c.client.MyFavorites(ctx)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Status == 401 {
			c.mu.Lock()
			c.favorited = make(map[int64]struct{})
			c.mu.Unlock()
			return nil
		}
		c.logger.Warn("favorites load failed", "error", err)
		return fmt.Errorf("load favorites: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range posts {
		c.favorited[posts[i].ID] = struct{}{}
	}
	return nil
}

// ReloadFollowing re-fetches the follow edge set from scratch. Called on
// every identity change; this set is never inferred from post or item data.
func (c *Cache) ReloadFollowing(ctx context.Context, authenticated bool) {
	if !authenticated {
		c.mu.Lock()
		c.following = make(map[int64]struct{})
		c.mu.Unlock()
		return
	}

	ids, err := c.client.MyFollowing(ctx)
	if err != nil {
		c.logger.Warn("following reload failed", "error", err)
		c.mu.Lock()
		c.following = make(map[int64]struct{})
		c.mu.Unlock()
		return
	}

	next := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	c.mu.Lock()
	c.following = next
	c.mu.Unlock()
}

// ToggleLike flips the viewer's like on a post. The override set changes
// only after the network call succeeds; a follow-up post refresh reconciles
// the count. Two racing toggles on the same post resolve last-writer-wins.
func (c *Cache) ToggleLike(ctx context.Context, postID int64) error {
	liked := c.Liked(postID)

	var err error
	if liked {
		err = c.client.UnlikePost(ctx, postID)
	} else {
		err = c.client.LikePost(ctx, postID)
	}
	if err != nil {
		return fmt.Errorf("toggle like: %w", err)
	}

	c.mu.Lock()
	if liked {
		delete(c.liked, postID)
	} else {
		c.liked[postID] = struct{}{}
	}
	c.mu.Unlock()

	if err := c.RefreshPosts(ctx); err != nil {
		c.logger.Warn("reconcile after like failed", "post_id", postID, "error", err)
	}
	return nil
}

// ToggleFavorite flips the viewer's favorite on a post; symmetric to ToggleLike.
func (c *Cache) ToggleFavorite(ctx context.Context, postID int64) error {
	favorited := c.Favorited(postID)

	var err error
	if favorited {
		err = c.client.UnfavoritePost(ctx, postID)
	} else {
		err = c.client.FavoritePost(ctx, postID)
	}
	if err != nil {
		return fmt.Errorf("toggle favorite: %w", err)
	}

	c.mu.Lock()
	if favorited {
		delete(c.favorited, postID)
	} else {
		c.favorited[postID] = struct{}{}
	}
	c.mu.Unlock()

	if err := c.RefreshPosts(ctx); err != nil {
		c.logger.Warn("reconcile after favorite failed", "post_id", postID, "error", err)
	}
	return nil
}

// FollowUser adds the outgoing follow edge after the network call succeeds.
// Idempotent under repeated calls.
func (c *Cache) FollowUser(ctx context.Context, userID int64) error {
	if err := c.client.FollowUser(ctx, userID); err != nil {
		return fmt.Errorf("follow user: %w", err)
	}
	c.mu.Lock()
	c.following[userID] = struct{}{}
	c.mu.Unlock()
	return nil
}

// UnfollowUser removes the outgoing follow edge after the network call succeeds.
func (c *Cache) UnfollowUser(ctx context.Context, userID int64) error {
	if err := c.client.UnfollowUser(ctx, userID); err != nil {
		return fmt.Errorf("unfollow user: %w", err)
	}
	c.mu.Lock()
	delete(c.following, userID)
	c.mu.Unlock()
	return nil
}

// ToggleFollowUser follows or unfollows based on the current override set.
func (c *Cache) ToggleFollowUser(ctx context.Context, userID int64) error {
	if c.Following(userID) {
		return c.UnfollowUser(ctx, userID)
	}
	return c.FollowUser(ctx, userID)
}

// AddPost submits a draft, then refetches the full collection so the new
// post carries its server-assigned id and timestamps.
func (c *Cache) AddPost(ctx context.Context, draft types.PostDraft) error {
	if strings.TrimSpace(draft.Title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(draft.Content) == "" {
		return ErrEmptyContent
	}

	if _, err := c.client.CreatePost(ctx, draft); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	if err := c.RefreshPosts(ctx); err != nil {
		c.logger.Warn("refresh after post create failed", "error", err)
	}
	return nil
}

// AddItem submits an item draft, then refetches the item collection.
func (c *Cache) AddItem(ctx context.Context, draft types.ItemDraft) error {
	if strings.TrimSpace(draft.Title) == "" {
		return ErrEmptyTitle
	}
	if draft.Price < 0 {
		return ErrNegativePrice
	}

	if _, err := c.client.CreateItem(ctx, draft); err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	if err := c.RefreshItems(ctx); err != nil {
		c.logger.Warn("refresh after item create failed", "error", err)
	}
	return nil
}

// UpdateItem applies partial changes and refetches the collection.
func (c *Cache) UpdateItem(ctx context.Context, id int64, update types.ItemUpdate) error {
	if update.Price != nil && *update.Price < 0 {
		return ErrNegativePrice
	}
	if _, err := c.client.UpdateItem(ctx, id, update); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if err := c.RefreshItems(ctx); err != nil {
		c.logger.Warn("refresh after item update failed", "error", err)
	}
	return nil
}

// DeletePost removes the post remotely, then locally by id filter. Deletion
// matches an existing local entry by id, so no refetch is needed.
func (c *Cache) DeletePost(ctx context.Context, id int64) error {
	if err := c.client.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.posts[:0]
	for _, p := range c.posts {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	c.posts = kept
	return nil
}

// DeleteItem removes the item remotely, then locally by id filter.
func (c *Cache) DeleteItem(ctx context.Context, id int64) error {
	if err := c.client.DeleteItem(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.items[:0]
	for _, it := range c.items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	c.items = kept
	return nil
}

// AddComment posts a comment, then refetches posts so the comment list and
// its server-assigned fields are authoritative.
func (c *Cache) AddComment(ctx context.Context, postID int64, content string, parentID int64) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyComment
	}
	if _, err := c.client.CreateComment(ctx, postID, content, parentID); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	if err := c.RefreshPosts(ctx); err != nil {
		c.logger.Warn("refresh after comment create failed", "error", err)
	}
	return nil
}

// DeleteComment removes one of the viewer's comments, then refetches posts.
func (c *Cache) DeleteComment(ctx context.Context, commentID int64) error {
	if err := c.client.DeleteComment(ctx, commentID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if err := c.RefreshPosts(ctx); err != nil {
		c.logger.Warn("refresh after comment delete failed", "error", err)
	}
	return nil
}

// HandleIdentityChange is registered with the session store. Every identity
// change re-fetches the follow set from scratch.
func (c *Cache) HandleIdentityChange(user *types.User) {
	ctx, cancel := context.WithTimeout(context.Background(), identityReloadTimeout)
	defer cancel()
	c.ReloadFollowing(ctx, user != nil)
}
