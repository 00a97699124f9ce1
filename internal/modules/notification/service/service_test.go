package service

import (
	"context"
	"testing"
	"time"

	"anoa.com/civicreport/internal/entity"
	notifRepo "anoa.com/civicreport/internal/modules/notification/repository"
	"anoa.com/civicreport/internal/testutil"
	"anoa.com/civicreport/pkg/apperror"
	"anoa.com/civicreport/pkg/token"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel(t *testing.T) {
	id := uuid.MustParse("0190a3b6-5c1e-7d2a-9f00-123456789abc")
	assert.Equal(t, "user_notifications:0190a3b6-5c1e-7d2a-9f00-123456789abc", Channel(id))
}

func TestNotificationFlow(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewNotificationService(notifRepo.NewNotificationRepository(db), nil)
	recipient := testutil.CreateUser(t, db, "recipient", false)
	actor := testutil.CreateUser(t, db, "actor", false)
	report := testutil.CreateReport(t, db, recipient, "pothole", "Roads", time.Now())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Notify(ctx, &entity.Notification{
			RecipientID: recipient.ID,
			ActorID:     actor.ID,
			ReportID:    report.ID,
			Content:     "actor commented on your report",
		}))
	}

	recipientClaims := &token.Claims{UserID: recipient.ID}
	actorClaims := &token.Claims{UserID: actor.ID}

	list, err := svc.GetNotifications(ctx, recipientClaims, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, entity.ChannelInApp, list[0].Channel)

	none, err := svc.GetNotifications(ctx, actorClaims, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	unread, err := svc.UnreadCount(ctx, recipientClaims)
	require.NoError(t, err)
	assert.EqualValues(t, 3, unread)

	err = svc.MarkAsRead(ctx, actorClaims, list[0].ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	require.NoError(t, svc.MarkAsRead(ctx, recipientClaims, list[0].ID))
	unread, err = svc.UnreadCount(ctx, recipientClaims)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	require.NoError(t, svc.MarkAllAsRead(ctx, recipientClaims))
	unread, err = svc.UnreadCount(ctx, recipientClaims)
	require.NoError(t, err)
	assert.Zero(t, unread)

	_, err = svc.GetNotifications(ctx, nil, 0, 0)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	err = svc.MarkAsRead(ctx, recipientClaims, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestNotify_WebSocketChannelWhenRedisConfigured(t *testing.T) {
	db := testutil.NewDB(t)
	// nothing listens here, so publishing fails and is only logged
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	svc := NewNotificationService(notifRepo.NewNotificationRepository(db), client)

	recipient := testutil.CreateUser(t, db, "recipient", false)
	actor := testutil.CreateUser(t, db, "actor", false)
	ctx := context.Background()

	require.NoError(t, svc.Notify(ctx, &entity.Notification{
		RecipientID: recipient.ID,
		ActorID:     actor.ID,
		ReportID:    uuid.New(),
		Content:     "your report is now Fixed",
	}))

	list, err := svc.GetNotifications(ctx, &token.Claims{UserID: recipient.ID}, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.ChannelWebSocket, list[0].Channel)
}
