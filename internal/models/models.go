package models

// User represents a registered user. Immutable once fetched.
type User struct {
	ID               int    `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	RegistrationDate string `json:"registration_date"` // ISO-8601 as sent by the server
}

// Group represents a trip group
type Group struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	CreationDate string `json:"creation_date"`
	Creator      User   `json:"creator"`
}

// InvitationStatus is the server-side state of a group invitation.
// Transitions are one-way: PENDING to ACCEPTED or PENDING to REJECTED.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationRejected InvitationStatus = "REJECTED"
)

// GroupInvitation represents an invitation to join a group
type GroupInvitation struct {
	ID        int              `json:"id"`
	Group     Group            `json:"group"`
	Sender    User             `json:"sender"`
	Recipient User             `json:"recipient"`
	Status    InvitationStatus `json:"status"`
	CreatedAt string           `json:"created_at"`
	UpdatedAt string           `json:"updated_at"`
}

// Photo represents an image attached to a post. Photos are created in a
// separate upload after the owning post exists.
type Photo struct {
	ID        int      `json:"id"`
	Image     string   `json:"image"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	CreatedAt string   `json:"created_at"`
}

// Comment represents a comment on a post
type Comment struct {
	ID        int    `json:"id"`
	Author    User   `json:"author"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

// Post represents a text+photo update in a group
type Post struct {
	ID           int       `json:"id"`
	Author       User      `json:"author"`
	Group        Group     `json:"group"`
	Text         string    `json:"text"`
	CreatedAt    string    `json:"created_at"`
	Photos       []Photo   `json:"photos"`
	Comments     []Comment `json:"comments"`
	LikesCount   int       `json:"likes_count"`
	UserHasLiked bool      `json:"user_has_liked"`
}

// LikeResult is the server's authoritative like state returned by toggle-like
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

// LoginResponse is the payload returned by login and register
type LoginResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// LoginRequest is the login payload
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the registration payload
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GroupCreateRequest is the create-group payload
type GroupCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GroupInviteRequest is the invite-to-group payload
type GroupInviteRequest struct {
	Recipient string `json:"recipient"` // recipient's email
}

// InvitationResponseRequest is the respond-to-invitation payload
type InvitationResponseRequest struct {
	Status InvitationStatus `json:"status"`
}

// PostCreateRequest is the create-post payload
type PostCreateRequest struct {
	GroupID int    `json:"group_id"`
	Text    string `json:"text"`
}

// CommentCreateRequest is the create-comment payload
type CommentCreateRequest struct {
	PostID int    `json:"post_id"`
	Text   string `json:"text"`
}
