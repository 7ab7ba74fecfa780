package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"calTrackAPI/internal/notification"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationService stores in-app notifications and pushes them to
// registered devices. FCM is optional: with no fcm client configured
// notifications are still persisted and readable in-app.
type NotificationService struct {
	db  *pgxpool.Pool
	fcm *notification.FCMService
}

func NewNotificationService(db *pgxpool.Pool, fcm *notification.FCMService) *NotificationService {
	return &NotificationService{db: db, fcm: fcm}
}

func (s *NotificationService) resolveUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found: %w", err)
	}
	return userID, nil
}

// CreateNotification persists a notification and dispatches it to the user's
// devices in the background. Push failures never fail the create.
func (s *NotificationService) CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	dataJSON, err := json.Marshal(req.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notification data: %w", err)
	}

	notif := &notification.Notification{
		ID:      uuid.New(),
		UserID:  req.UserID,
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
		Data:    req.Data,
	}

	err = s.db.QueryRow(ctx, `
        INSERT INTO notifications (id, user_id, type, title, message, data, is_read, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, false, NOW())
        RETURNING created_at
    `, notif.ID, notif.UserID, notif.Type, notif.Title, notif.Message, dataJSON).Scan(&notif.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if s.fcm != nil {
		go s.push(context.Background(), notif)
	}

	return notif, nil
}

func (s *NotificationService) push(ctx context.Context, notif *notification.Notification) {
	tokens, err := s.listDeviceTokens(ctx, notif.UserID)
	if err != nil {
		log.Printf("NotificationService: failed to load tokens for user %s: %v", notif.UserID, err)
		return
	}
	if err := s.fcm.SendPush(ctx, tokens, notif.Title, notif.Message, notif.Data); err != nil {
		log.Printf("NotificationService: push failed for user %s: %v", notif.UserID, err)
	}
}

func (s *NotificationService) GetNotifications(ctx context.Context, clerkID string, limit int) (*notification.NotificationListResponse, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
        SELECT id, user_id, type, title, message, data, is_read, created_at
        FROM notifications
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer rows.Close()

	resp := &notification.NotificationListResponse{}
	for rows.Next() {
		notif := &notification.Notification{}
		var dataJSON []byte
		err := rows.Scan(
			&notif.ID, &notif.UserID, &notif.Type, &notif.Title,
			&notif.Message, &dataJSON, &notif.IsRead, &notif.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if len(dataJSON) > 0 {
			if err := json.Unmarshal(dataJSON, &notif.Data); err != nil {
				log.Printf("NotificationService: bad data payload on %s: %v", notif.ID, err)
			}
		}
		resp.Notifications = append(resp.Notifications, notif)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}

	err = s.db.QueryRow(ctx, `
        SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false
    `, userID).Scan(&resp.UnreadCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread: %w", err)
	}

	return resp, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, clerkID string, notificationID uuid.UUID) error {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, `
        UPDATE notifications SET is_read = true
        WHERE id = $1 AND user_id = $2 AND is_read = false
    `, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark as read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification not found or already read")
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, clerkID string) (int64, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return 0, err
	}

	result, err := s.db.Exec(ctx, `
        UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false
    `, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all as read: %w", err)
	}
	return result.RowsAffected(), nil
}

// RegisterDevice upserts a push token. Tokens are unique across users: a token
// that moves to another account is reassigned, not duplicated.
func (s *NotificationService) RegisterDevice(ctx context.Context, clerkID string, req *notification.RegisterDeviceRequest) error {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
        INSERT INTO device_tokens (token, user_id, platform, created_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (token)
        DO UPDATE SET user_id = $2, platform = $3
    `, req.Token, userID, req.Platform)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *NotificationService) UnregisterDevice(ctx context.Context, clerkID string, token string) error {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `DELETE FROM device_tokens WHERE token = $1 AND user_id = $2`, token, userID)
	if err != nil {
		return fmt.Errorf("failed to unregister device: %w", err)
	}
	return nil
}

func (s *NotificationService) listDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `SELECT token, platform FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// NotifyStreakAtRisk sends the evening reminder to a user whose streak will
// break without a log today.
func (s *NotificationService) NotifyStreakAtRisk(ctx context.Context, userID uuid.UUID, currentStreak int) error {
	_, err := s.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID:  userID,
		Type:    notification.NotificationStreakRisk,
		Title:   "Your streak is at risk",
		Message: fmt.Sprintf("Log a meal today to keep your %d-day streak alive.", currentStreak),
		Data:    map[string]any{"current_streak": currentStreak},
	})
	return err
}

var streakMilestones = map[int]bool{7: true, 14: true, 30: true, 50: true, 100: true, 365: true}

// IsStreakMilestone reports whether a streak value earns a celebration.
func IsStreakMilestone(streak int) bool {
	return streakMilestones[streak]
}

// NotifyStreakMilestone celebrates a streak reaching a milestone day count.
func (s *NotificationService) NotifyStreakMilestone(ctx context.Context, userID uuid.UUID, domain string, currentStreak int) error {
	_, err := s.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID:  userID,
		Type:    notification.NotificationStreakMilestone,
		Title:   fmt.Sprintf("%d-day streak!", currentStreak),
		Message: fmt.Sprintf("You've kept your %s streak going for %d days straight.", domain, currentStreak),
		Data:    map[string]any{"domain": domain, "current_streak": currentStreak},
	})
	return err
}

// NotifyGoalReached congratulates a user whose logged weight reached their
// goal weight.
func (s *NotificationService) NotifyGoalReached(ctx context.Context, userID uuid.UUID, weightKg float64) error {
	_, err := s.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID:  userID,
		Type:    notification.NotificationGoalReached,
		Title:   "Goal weight reached!",
		Message: fmt.Sprintf("You hit your goal weight of %.1f kg. Time to set a new one?", weightKg),
		Data:    map[string]any{"weight_kg": weightKg},
	})
	return err
}
