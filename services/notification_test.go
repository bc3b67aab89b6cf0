package services

import (
	"testing"

	"quest-board/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitAndListNotifications(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "reader", models.RolePlayer, 0, 0)

	env.notifier.Emit(user.ID, models.NotificationQuestClaimed, "Quest claimed", "Someone claimed your quest.",
		map[string]interface{}{"quest_id": "q1"})
	env.notifier.Emit(user.ID, models.NotificationLevelUp, "Level up!", "You reached level 2.", nil)

	all, err := env.notifier.ListForUser(user.ID, false, 50)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	count, err := env.notifier.UnreadCount(user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// Structured payload survives the round trip.
	var withData *models.Notification
	for i := range all {
		if all[i].Type == models.NotificationQuestClaimed {
			withData = &all[i]
		}
	}
	require.NotNil(t, withData)
	require.NotNil(t, withData.Data)
	assert.Contains(t, *withData.Data, `"quest_id":"q1"`)
}

func TestMarkRead(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "reader", models.RolePlayer, 0, 0)
	stranger := env.createUser(t, "stranger", models.RolePlayer, 0, 0)

	env.notifier.Emit(user.ID, models.NotificationLevelUp, "Level up!", "You reached level 2.", nil)
	all, err := env.notifier.ListForUser(user.ID, false, 50)
	require.NoError(t, err)
	require.Len(t, all, 1)

	// Not yours, not markable.
	_, err = env.notifier.MarkRead(all[0].ID, stranger.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	marked, err := env.notifier.MarkRead(all[0].ID, user.ID)
	require.NoError(t, err)
	assert.True(t, marked.IsRead)
	require.NotNil(t, marked.ReadAt)
	assert.True(t, marked.ReadAt.Equal(env.clock.Now().UTC()))

	// Idempotent.
	again, err := env.notifier.MarkRead(all[0].ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, marked.ReadAt.Unix(), again.ReadAt.Unix())

	count, err := env.notifier.UnreadCount(user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkAllRead(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "reader", models.RolePlayer, 0, 0)

	for i := 0; i < 3; i++ {
		env.notifier.Emit(user.ID, models.NotificationQuestApproved, "Quest approved", "Nice work.", nil)
	}

	marked, err := env.notifier.MarkAllRead(user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, marked)

	unread, err := env.notifier.ListForUser(user.ID, true, 50)
	require.NoError(t, err)
	assert.Empty(t, unread)
}
