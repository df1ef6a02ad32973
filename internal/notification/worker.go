package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"machinery-rental-backend/internal/model"
)

// Sender defines the interface for delivering a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool delivers rental confirmations to the push subscriptions watching
// the rented machinery. Delivery is fire-and-forget: failures are logged and
// never reach the booking path.
type WorkerPool struct {
	size    int
	jobs    chan uuid.UUID
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool with a buffered job queue.
func NewWorkerPool(size, queueSize int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	if queueSize < size {
		queueSize = size
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan uuid.UUID, queueSize),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notification worker %d started", id)
	for {
		select {
		case rentalID := <-wp.jobs:
			log.Printf("Worker %d processing rental %s", id, rentalID)
			wp.notifyForRental(ctx, rentalID)
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a rental for notification without blocking the caller.
// When the queue is full the job is dropped; a missed push must never delay
// or fail an admission.
func (wp *WorkerPool) Dispatch(rentalID uuid.UUID) {
	select {
	case wp.jobs <- rentalID:
	default:
		log.Printf("Notification queue full, dropping rental %s", rentalID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan uuid.UUID {
	return wp.jobs
}

// notifyForRental fetches the rental and the subscriptions watching its
// machinery, then pushes a confirmation to each.
func (wp *WorkerPool) notifyForRental(ctx context.Context, rentalID uuid.UUID) {
	var rental model.Rental
	if err := wp.db.WithContext(ctx).
		Preload("Machinery").
		First(&rental, "id = ?", rentalID).Error; err != nil {
		log.Printf("Error fetching rental %s: %v", rentalID, err)
		return
	}

	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_machinery_mapping smm ON smm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("smm.machinery_id = ?", rental.MachineryID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for machinery %d: %v", rental.MachineryID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	machineryLabel := fmt.Sprintf("%d", rental.MachineryID)
	if rental.Machinery.Name != "" {
		machineryLabel = rental.Machinery.Name
	}

	message := fmt.Sprintf("Rental confirmed: %s from %s to %s",
		machineryLabel,
		rental.StartAt.Format("2006-01-02"),
		rental.EndAt.Format("2006-01-02"))

	log.Printf("Sending %d notifications for rental %s", len(subscriptions), rentalID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
