package types

import "time"

// Post category values accepted by the backend.
const (
	CategoryLab   = "lab"
	CategoryJob   = "job"
	CategoryClass = "class"
	CategoryItem  = "item"
	CategoryOther = "other"
)

// Item status values.
const (
	ItemStatusSelling     = "selling"
	ItemStatusNegotiating = "negotiating"
)

// User is the backend's public user record.
type User struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	Nickname      string `json:"nickname"`
	Year          int    `json:"year,omitempty"`
	Grade         string `json:"grade,omitempty"`
	Major         string `json:"major,omitempty"`
	Bio           string `json:"bio,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	CoverImageURL string `json:"cover_image_url,omitempty"`
}

// Attachment is a file attached to a post.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size,omitempty"`
	Type string `json:"type,omitempty"`
}

// Post represents a feed post. Author is nil for anonymous posts;
// the backend hides it and the feed cache enforces it again on refresh.
type Post struct {
	ID            int64        `json:"id"`
	Title         string       `json:"title"`
	Content       string       `json:"content"`
	Category      string       `json:"category"`
	Tags          []string     `json:"tags,omitempty"`
	ImageURLs     string       `json:"image_urls,omitempty"` // comma separated
	Attachments   []Attachment `json:"attachments,omitempty"`
	Author        *User        `json:"author"`
	IsAnonymous   bool         `json:"is_anonymous"`
	Likes         int          `json:"likes"`
	LikedByMe     bool         `json:"liked_by_me"`
	FavoritedByMe bool         `json:"favorited_by_me"`
	Comments      []Comment    `json:"comments,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// PostDraft is the creation payload for a post.
type PostDraft struct {
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	Category    string       `json:"category"`
	Tags        []string     `json:"tags,omitempty"`
	ImageURLs   string       `json:"image_urls,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	IsAnonymous bool         `json:"is_anonymous"`
}

// Comment on a post. Deletable only by its author; the backend enforces that.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id,omitempty"`
	Content   string    `json:"content"`
	Author    *User     `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// Item is a marketplace listing.
type Item struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Price         int64     `json:"price"`
	Status        string    `json:"status"`
	Category      string    `json:"category"`
	Tags          []string  `json:"tags,omitempty"`
	ImageURLs     string    `json:"image_urls,omitempty"`
	ContactMethod string    `json:"contact_method,omitempty"`
	Owner         *User     `json:"owner"`
	IsAnonymous   bool      `json:"is_anonymous"`
	CreatedAt     time.Time `json:"created_at"`
}

// ItemDraft is the creation payload for an item.
type ItemDraft struct {
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Price         int64    `json:"price"`
	Status        string   `json:"status,omitempty"`
	Category      string   `json:"category,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	ImageURLs     string   `json:"image_urls,omitempty"`
	ContactMethod string   `json:"contact_method,omitempty"`
	IsAnonymous   bool     `json:"is_anonymous,omitempty"`
}

// ItemUpdate carries mutable item fields for a PUT. Nil means unchanged.
type ItemUpdate struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *int64   `json:"price,omitempty"`
	Status      *string  `json:"status,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	ImageURLs   *string  `json:"image_urls,omitempty"`
}

// ItemMessage is one message of an item conversation as the backend returns it.
type ItemMessage struct {
	ID         int64     `json:"id"`
	Content    string    `json:"content"`
	SenderID   int64     `json:"sender_id"`
	Sender     *User     `json:"sender,omitempty"`
	ReceiverID int64     `json:"receiver_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Badge is a collectible badge definition.
type Badge struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// UserBadge is a badge awarded to a user.
type UserBadge struct {
	Badge     Badge     `json:"badge"`
	AwardedAt time.Time `json:"awarded_at"`
}

// UserStats is the per-user profile summary payload.
type UserStats struct {
	User      *User `json:"user"`
	Posts     int   `json:"posts"`
	Followers int   `json:"followers"`
	Following int   `json:"following"`
}
