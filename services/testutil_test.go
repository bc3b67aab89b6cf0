package services

import (
	"testing"
	"time"

	"quest-board/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One connection, or each pooled conn gets its own :memory: database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Quest{},
		&models.QuestApproval{},
		&models.Notification{},
		&models.StoreItem{},
		&models.StoreTransaction{},
	))
	return db
}

// testEnv bundles the service graph over one in-memory DB with a fake clock.
type testEnv struct {
	db       *gorm.DB
	clock    *clockwork.FakeClock
	ledger   *LedgerService
	notifier *NotificationService
	quests   *QuestService
	store    *StoreService
	users    *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	ledger := NewLedgerService(db, clock)
	notifier := NewNotificationService(db, clock)

	return &testEnv{
		db:       db,
		clock:    clock,
		ledger:   ledger,
		notifier: notifier,
		quests:   NewQuestService(db, ledger, notifier, clock),
		store:    NewStoreService(db, ledger, notifier, clock),
		users:    NewUserService(db),
	}
}

func (e *testEnv) createUser(t *testing.T, username string, role models.UserRole, balance, experience int) *models.User {
	t.Helper()

	user := models.User{
		Username:      username,
		Email:         username + "@example.com",
		Role:          role,
		BountyBalance: balance,
		Experience:    experience,
	}
	require.NoError(t, e.db.Create(&user).Error)
	return &user
}

func (e *testEnv) createQuest(t *testing.T, creatorID string, bounty int, repeatable bool, cooldownDays int) *models.Quest {
	t.Helper()

	// Unique title per quest: slugs carry a unique index.
	in := CreateQuestInput{
		Title:        "Test quest " + uuid.NewString()[:8],
		Bounty:       bounty,
		IsRepeatable: repeatable,
	}
	if repeatable {
		in.CooldownDays = &cooldownDays
	}
	quest, err := e.quests.CreateQuest(creatorID, in)
	require.NoError(t, err)
	return quest
}

func (e *testEnv) notificationsFor(t *testing.T, userID string, kind models.NotificationType) []models.Notification {
	t.Helper()

	var out []models.Notification
	require.NoError(t, e.db.Where("user_id = ? AND type = ?", userID, kind).Find(&out).Error)
	return out
}
