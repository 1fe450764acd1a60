package models

import (
	"sort"
	"time"

	"github.com/lib/pq"
)

type User struct {
	UserID                 string    `json:"userId" db:"user_id" msgpack:"user_id"`
	Email                  string    `json:"user_email" db:"user_email" msgpack:"user_email"`
	PasswordHash           string    `json:"-" db:"password_hash" msgpack:"-"`
	Name                   string    `json:"user_name" db:"user_name" msgpack:"user_name"`
	Nickname               string    `json:"user_nickname" db:"user_nickname" msgpack:"user_nickname"`
	PhoneNum               string    `json:"user_phoneNum" db:"user_phone_num" msgpack:"user_phone_num"`
	ProfileImage           *string   `json:"profile_image" db:"profile_image" msgpack:"profile_image"`
	CreatedAt              time.Time `json:"user_createdAt" db:"user_created_at" msgpack:"user_created_at"`
	PostCount              int       `json:"user_PostCount" db:"user_post_count" msgpack:"user_post_count"`
	RefreshToken           string    `json:"-" db:"refresh_token" msgpack:"-"`
	RefreshTokenExpiryTime time.Time `json:"-" db:"refresh_token_expiry_time" msgpack:"-"`
}

// DisplayName is the name stamped on outgoing chat messages.
func (u *User) DisplayName() string {
	if u == nil {
		return "Unknown"
	}
	if u.Nickname != "" {
		return u.Nickname
	}
	if u.Name != "" {
		return u.Name
	}
	return "Unknown"
}

const (
	CategoryFriendship = "친목"
	CategorySports     = "스포츠"
	CategoryStudy      = "스터디"
	CategoryTravel     = "여행"
	CategoryPartTime   = "알바"
	CategoryGame       = "게임"
	CategoryVolunteer  = "봉사"
	CategoryFitness    = "헬스"
	CategoryMusic      = "음악"
	CategoryOther      = "기타"

	// CategoryAll disables the category filter when listing posts.
	CategoryAll = "전체보기"
)

var Categories = []string{
	CategoryFriendship,
	CategorySports,
	CategoryStudy,
	CategoryTravel,
	CategoryPartTime,
	CategoryGame,
	CategoryVolunteer,
	CategoryFitness,
	CategoryMusic,
	CategoryOther,
}

func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

type PostSort string

const (
	SortLatest    PostSort = "latest"
	SortOldest    PostSort = "oldest"
	SortTitleAsc  PostSort = "titleAsc"
	SortTitleDesc PostSort = "titleDesc"
)

// ParsePostSort falls back to SortLatest for unknown values.
func ParsePostSort(value string) PostSort {
	switch PostSort(value) {
	case SortOldest, SortTitleAsc, SortTitleDesc:
		return PostSort(value)
	default:
		return SortLatest
	}
}

type Post struct {
	PostID        string         `json:"postId" db:"post_id"`
	AuthorID      string         `json:"authorId" db:"author_id"`
	Title         string         `json:"title" db:"title"`
	Content       string         `json:"content" db:"content"`
	Tag           string         `json:"tag" db:"tag"`
	Category      string         `json:"category" db:"category"`
	Recruit       int            `json:"recruit" db:"recruit"`
	Cost          int            `json:"cost" db:"cost"`
	Address       string         `json:"address" db:"address"`
	DetailAddress string         `json:"detailAddress" db:"detail_address"`
	MeetingTime   time.Time      `json:"meetingTime" db:"meeting_time"`
	CreatedAt     time.Time      `json:"createdAt" db:"created_at"`
	ImageURL      string         `json:"imageUrl" db:"image_url"`
	ImageURLs     pq.StringArray `json:"imageUrls" db:"image_urls"`
}

type ParticipationEntry struct {
	PostID    string    `json:"postId" db:"post_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type FavoriteEntry struct {
	PostID    string    `json:"postId" db:"post_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Participant is a roster row: the ledger entry joined with the profile.
type Participant struct {
	UserID       string    `json:"user_id" db:"user_id"`
	Name         string    `json:"user_name" db:"user_name"`
	Nickname     string    `json:"user_nickname" db:"user_nickname"`
	ProfileImage *string   `json:"profile_image" db:"profile_image"`
	JoinedAt     time.Time `json:"createdAt" db:"created_at"`
}

type ParticipationStatus struct {
	Count   int  `json:"count"`
	Recruit int  `json:"recruit"`
	Joined  bool `json:"joined"`
	// Closed is true when the listing is full for a viewer who has not joined.
	Closed bool `json:"closed"`
}

func NewParticipationStatus(count, recruit int, joined bool) ParticipationStatus {
	return ParticipationStatus{
		Count:   count,
		Recruit: recruit,
		Joined:  joined,
		Closed:  count >= recruit && !joined,
	}
}

type FavoriteStatus struct {
	Favorited bool `json:"favorited"`
	Count     int  `json:"count"`
}

type PostDetail struct {
	Post          *Post               `json:"post"`
	Author        *User               `json:"author,omitempty"`
	Participation ParticipationStatus `json:"participation"`
	FavoriteCount int                 `json:"favoriteCount"`
	Favorited     bool                `json:"favorited"`
	IsAuthor      bool                `json:"isAuthor"`
}

type ChatRoom struct {
	ChatID      string         `json:"id" db:"chat_id"`
	Users       pq.StringArray `json:"users" db:"users"`
	LastMessage string         `json:"lastMessage" db:"last_message"`
	Timestamp   time.Time      `json:"timestamp" db:"last_updated_at"`
	Pinned      bool           `json:"pinned" db:"pinned"`
}

func (r *ChatRoom) HasUser(userID string) bool {
	for _, u := range r.Users {
		if u == userID {
			return true
		}
	}
	return false
}

// SortChatRooms orders rooms pinned first, then by last update, newest first.
func SortChatRooms(rooms []ChatRoom) {
	sort.SliceStable(rooms, func(i, j int) bool {
		if rooms[i].Pinned != rooms[j].Pinned {
			return rooms[i].Pinned
		}
		return rooms[i].Timestamp.After(rooms[j].Timestamp)
	})
}

type Message struct {
	ChatID     string    `json:"chatId" db:"chat_id"`
	MessageID  string    `json:"messageId" db:"message_id"`
	SenderID   string    `json:"senderId" db:"sender_id"`
	SenderName string    `json:"senderName" db:"sender_name"`
	Message    string    `json:"message" db:"message"`
	Timestamp  time.Time `json:"timestamp" db:"sent_at"`
	IsRead     bool      `json:"isRead" db:"is_read"`
}
