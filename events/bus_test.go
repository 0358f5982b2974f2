package events

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ysrbharadwaj/Loomio-sub001/models"
)

func newBusDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Notification{}))
	return db
}

func TestBusDeliversNotifications(t *testing.T) {
	db := newBusDB(t)
	bus := NewBus(db, 8)

	bus.Publish(Event{
		Type:          TaskAssigned,
		TaskID:        42,
		TaskTitle:     "Water the seedlings",
		ActorName:     "Admin",
		CommunityName: "Garden Club",
		TargetUserIDs: []uint{1, 2},
	})
	bus.Close() // drains before returning

	var rows []models.Notification
	require.NoError(t, db.Order("user_id").Find(&rows).Error)
	require.Len(t, rows, 2)

	assert.Equal(t, uint(1), rows[0].UserID)
	assert.Equal(t, uint(2), rows[1].UserID)
	for _, n := range rows {
		assert.Equal(t, TaskAssigned, n.Type)
		assert.Equal(t, "You have been assigned a task", n.Title)
		assert.Equal(t, `Admin assigned you "Water the seedlings" in Garden Club.`, n.Body)
		require.NotNil(t, n.TaskID)
		assert.Equal(t, uint(42), *n.TaskID)
		assert.False(t, n.Read)
	}
}

func TestBusAppendsMessage(t *testing.T) {
	db := newBusDB(t)
	bus := NewBus(db, 8)

	bus.Publish(Event{
		Type:          TaskRejected,
		TaskID:        7,
		TaskTitle:     "Prune the roses",
		ActorName:     "Admin",
		TargetUserIDs: []uint{3},
		Message:       "Missing photos.",
	})
	bus.Close()

	var n models.Notification
	require.NoError(t, db.First(&n).Error)
	assert.Equal(t, "Submission rejected", n.Title)
	assert.Equal(t, `Admin rejected the submission for "Prune the roses". Missing photos.`, n.Body)
}

func TestRenderUnknownType(t *testing.T) {
	title, body := render(Event{
		Type:          "task_archived",
		CommunityName: "Garden Club",
		Message:       "Archived by a moderator.",
	})
	assert.Equal(t, "Activity in Garden Club", title)
	assert.Equal(t, "Archived by a moderator.", body, "message appears exactly once")
}

func TestBusDropsWhenFull(t *testing.T) {
	db := newBusDB(t)
	// unstarted bus: fill the channel directly so Publish hits the full buffer
	b := &Bus{db: db, ch: make(chan Event, 1), done: make(chan struct{})}
	b.ch <- Event{Type: TaskCreated, TargetUserIDs: []uint{1}}

	// must not block even though nothing is consuming
	b.Publish(Event{Type: TaskCreated, TargetUserIDs: []uint{2}})

	go b.run()
	b.Close()

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "overflowed event is dropped, buffered one is delivered")
}
