package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSortChatRooms(t *testing.T) {
	now := time.Now()

	rooms := []ChatRoom{
		{ChatID: "r1", Timestamp: now, Pinned: false},
		{ChatID: "r2", Timestamp: now.Add(-time.Hour), Pinned: true},
		{ChatID: "r3", Timestamp: now.Add(time.Minute), Pinned: false},
		{ChatID: "r4", Timestamp: now.Add(-2 * time.Hour), Pinned: true},
	}

	SortChatRooms(rooms)

	ids := make([]string, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.ChatID)
	}
	assert.Equal(t, []string{"r2", "r4", "r3", "r1"}, ids)
}

func TestChatRoomHasUser(t *testing.T) {
	room := ChatRoom{Users: []string{"a", "b"}}

	assert.True(t, room.HasUser("a"))
	assert.True(t, room.HasUser("b"))
	assert.False(t, room.HasUser("c"))
}

func TestNewParticipationStatus(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		recruit int
		joined  bool
		closed  bool
	}{
		{name: "Есть свободные места", count: 1, recruit: 3, joined: false, closed: false},
		{name: "Набор закрыт для нового участника", count: 3, recruit: 3, joined: false, closed: true},
		{name: "Участник видит заполненную встречу открытой", count: 3, recruit: 3, joined: true, closed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := NewParticipationStatus(tt.count, tt.recruit, tt.joined)
			assert.Equal(t, tt.closed, status.Closed)
			assert.Equal(t, tt.count, status.Count)
		})
	}
}

func TestCategoriesAndSort(t *testing.T) {
	assert.Len(t, Categories, 10)
	assert.True(t, IsValidCategory(CategoryMusic))
	assert.False(t, IsValidCategory(CategoryAll))
	assert.False(t, IsValidCategory("music"))

	assert.Equal(t, SortTitleDesc, ParsePostSort("titleDesc"))
	assert.Equal(t, SortLatest, ParsePostSort(""))
	assert.Equal(t, SortLatest, ParsePostSort("random"))
}

func TestUserDisplayName(t *testing.T) {
	var nilUser *User
	assert.Equal(t, "Unknown", nilUser.DisplayName())
	assert.Equal(t, "민수", (&User{Name: "김민수", Nickname: "민수"}).DisplayName())
	assert.Equal(t, "김민수", (&User{Name: "김민수"}).DisplayName())
	assert.Equal(t, "Unknown", (&User{}).DisplayName())
}
