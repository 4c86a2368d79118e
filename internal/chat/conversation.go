// Package chat is the per-item conversation store. A conversation is keyed
// by (item, counterparty, viewer) and sourced remote-first: the local
// database is a degraded-mode fallback consulted only while no remote fetch
// has succeeded in the current activation, never a cache.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"campushub/internal/api"
	"campushub/internal/store"
	"campushub/internal/types"
)

// Local precondition failures, rejected before any network call.
var (
	ErrEmptyMessage           = errors.New("a message must not be empty")
	ErrCounterpartyUnresolved = errors.New("select a counterparty before sending")
	ErrNotActivated           = errors.New("conversation is not activated")
)

// Role of the viewer in an item conversation.
type Role int

const (
	RoleBuyer Role = iota
	RoleSeller
)

// Source tags where the current thread came from, in fixed priority order:
// a successful remote fetch pins the source to Remote for the rest of the
// activation.
type Source int

const (
	SourceEmpty Source = iota
	SourceRemote
	SourceLocalFallback
)

// State of a conversation view: Resolving -> Ready -> (Sending <-> Ready).
type State int

const (
	StateResolving State = iota
	StateReady
	StateSending
)

// Message is one rendered conversation message.
type Message struct {
	ID     string
	Text   string
	Mine   bool
	SentAt time.Time
}

// Conversation is one item conversation between the viewer and a counterparty.
type Conversation struct {
	client *api.Client
	local  *store.Store
	logger *slog.Logger

	viewer *types.User
	itemID int64

	mu           sync.Mutex
	item         *types.Item
	role         Role
	counterparty int64 // 0 while unresolved (seller without a known buyer)
	buyer        *types.User
	state        State
	source       Source
	messages     []Message
	remoteLoaded bool
}

// New creates a conversation for itemID. counterpartyID may be zero when the
// other side is not yet known (it is resolved during activation); item may be
// nil when navigation carried no prior context.
func New(client *api.Client, local *store.Store, logger *slog.Logger, viewer *types.User, item *types.Item, itemID, counterpartyID int64) *Conversation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conversation{
		client:       client,
		local:        local,
		logger:       logger.With("item_id", itemID, "activation_id", uuid.NewString()),
		viewer:       viewer,
		itemID:       itemID,
		item:         item,
		counterparty: counterpartyID,
		state:        StateResolving,
	}
}

// State returns the conversation state.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Source returns where the current thread was loaded from.
func (c *Conversation) Source() Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

// Role returns the viewer's role, valid after activation.
func (c *Conversation) Role() Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role
}

// Counterparty returns the resolved counterparty id, or 0.
func (c *Conversation) Counterparty() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counterparty
}

// Buyer returns the resolved buyer profile when the viewer is the seller.
func (c *Conversation) Buyer() *types.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buyer
}

// Messages returns a copy of the current thread.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Activate resolves the item and the viewer's role, then loads the thread.
// It is the conversation's only suspend point before Ready.
func (c *Conversation) Activate(ctx context.Context) error {
	if c.viewer == nil {
		return errors.New("a conversation requires an authenticated viewer")
	}

	if err := c.resolveItem(ctx); err != nil {
		return err
	}

	c.resolveRole()

	// A seller arriving with an explicit counterparty can show the buyer's
	// profile; failure here only degrades the header.
	c.mu.Lock()
	role, counterparty := c.role, c.counterparty
	c.mu.Unlock()
	if role == RoleSeller && counterparty != 0 {
		if stats, err := c.client.UserStats(ctx, counterparty); err == nil && stats.User != nil {
			c.mu.Lock()
			c.buyer = stats.User
			c.mu.Unlock()
		} else if err != nil {
			c.logger.Warn("buyer profile fetch failed", "buyer_id", counterparty, "error", err)
		}
	}

	c.loadThread(ctx)

	c.mu.Lock()
	c.state = StateReady
	c.mu.Unlock()
	return nil
}

// resolveItem fetches the item when navigation carried no prior context.
func (c *Conversation) resolveItem(ctx context.Context) error {
	c.mu.Lock()
	known := c.item != nil
	c.mu.Unlock()
	if known {
		return nil
	}

	item, err := c.client.GetItem(ctx, c.itemID)
	if err != nil {
		return fmt.Errorf("resolve item: %w", err)
	}
	c.mu.Lock()
	c.item = item
	c.mu.Unlock()
	return nil
}

// resolveRole decides seller vs buyer and, for a buyer, fixes the
// counterparty to the item owner.
func (c *Conversation) resolveRole() {
	c.mu.Lock()
	defer c.mu.Unlock()

	owner := int64(0)
	if c.item != nil && c.item.Owner != nil {
		owner = c.item.Owner.ID
	}

	if owner != 0 && owner == c.viewer.ID {
		c.role = RoleSeller
		// counterparty stays as supplied; may still be 0
		return
	}

	c.role = RoleBuyer
	if owner != 0 {
		c.counterparty = owner
	}
}

// loadThread fetches the remote thread; only if remote has never succeeded
// in this activation does it fall back to the local store.
func (c *Conversation) loadThread(ctx context.Context) {
	msgs, err := c.client.ListItemMessages(ctx, c.itemID, c.sellerQueryCounterparty())
	if err == nil {
		c.applyRemote(msgs)
		return
	}

	c.mu.Lock()
	loaded := c.remoteLoaded
	c.mu.Unlock()
	if loaded {
		// A previously loaded remote thread is never overwritten by stale
		// local content.
		c.logger.Warn("thread refresh failed, keeping remote thread", "error", err)
		return
	}

	c.logger.Warn("remote thread fetch failed, trying local fallback", "error", err)
	local, lerr := c.local.LoadThread(c.threadKey())
	if lerr != nil {
		if !errors.Is(lerr, store.ErrNotFound) {
			c.logger.Warn("local fallback load failed", "error", lerr)
		}
		c.mu.Lock()
		c.source = SourceEmpty
		c.messages = nil
		c.mu.Unlock()
		return
	}

	msgsLocal := make([]Message, 0, len(local))
	for _, m := range local {
		msgsLocal = append(msgsLocal, Message{ID: m.ID, Text: m.Text, Mine: m.Mine, SentAt: m.SentAt})
	}
	c.mu.Lock()
	c.source = SourceLocalFallback
	c.messages = msgsLocal
	c.mu.Unlock()
}

// sellerQueryCounterparty returns the counterparty filter for the list call.
// A seller without one lets the backend pick the most recent buyer.
func (c *Conversation) sellerQueryCounterparty() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counterparty
}

// applyRemote installs a successful remote fetch: converts the wire thread,
// resolves a seller's counterparty from it when still unknown, and mirrors
// the thread to the local store for later degraded sessions.
func (c *Conversation) applyRemote(msgs []types.ItemMessage) {
	converted := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		converted = append(converted, Message{
			ID:     strconv.FormatInt(m.ID, 10),
			Text:   m.Content,
			Mine:   m.SenderID == c.viewer.ID,
			SentAt: m.CreatedAt,
		})
	}

	c.mu.Lock()
	c.messages = converted
	c.source = SourceRemote
	c.remoteLoaded = true

	if c.role == RoleSeller && c.counterparty == 0 {
		for _, m := range msgs {
			if m.SenderID != c.viewer.ID {
				c.counterparty = m.SenderID
				if m.Sender != nil {
					c.buyer = m.Sender
				}
				break
			}
			if m.ReceiverID != c.viewer.ID {
				c.counterparty = m.ReceiverID
				break
			}
		}
	}
	key := c.threadKeyLocked()
	c.mu.Unlock()

	stored := make([]store.Message, 0, len(converted))
	for _, m := range converted {
		stored = append(stored, store.Message{ID: m.ID, Text: m.Text, Mine: m.Mine, SentAt: m.SentAt})
	}
	if err := c.local.SaveThread(key, stored); err != nil {
		c.logger.Warn("thread mirror to local store failed", "error", err)
	}
}

func (c *Conversation) threadKey() store.ThreadKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.threadKeyLocked()
}

func (c *Conversation) threadKeyLocked() store.ThreadKey {
	key := store.ThreadKey{ItemID: c.itemID, ViewerID: c.viewer.ID}
	if c.role == RoleSeller {
		key.SellerID = c.viewer.ID
		key.BuyerID = c.counterparty
	} else {
		key.BuyerID = c.viewer.ID
		key.SellerID = c.counterparty
	}
	return key
}

// Refresh re-fetches the remote thread. After a successful activation fetch
// a failure keeps the loaded thread; the fallback never reappears.
func (c *Conversation) Refresh(ctx context.Context) {
	c.loadThread(ctx)
}

// SendMessage sends text to the counterparty. Empty or whitespace-only text
// and an unresolved counterparty are rejected locally, before any network
// call. On success the full thread is refetched so ordering and ids are
// authoritative; on failure the thread is untouched and the caller keeps the
// input text.
func (c *Conversation) SendMessage(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.state == StateResolving {
		c.mu.Unlock()
		return ErrNotActivated
	}
	role := c.role
	receiver := c.counterparty
	c.state = StateSending
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state = StateReady
		c.mu.Unlock()
	}()

	if role == RoleSeller && receiver == 0 {
		return ErrCounterpartyUnresolved
	}

	if _, err := c.client.SendItemMessage(ctx, c.itemID, trimmed, receiver); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	c.loadThread(ctx)
	return nil
}
