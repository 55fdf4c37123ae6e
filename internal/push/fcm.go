package push

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCM multicast hard limit per request.
const multicastBatchSize = 500

// DefaultTimeout bounds a single provider round-trip so an unreachable
// provider cannot stall the fan-out path.
const DefaultTimeout = 5 * time.Second

type FCMDispatcher struct {
	client  *messaging.Client
	timeout time.Duration
}

// NewFCMDispatcherFromEnv initializes the FCM client from
// FIREBASE_CREDENTIALS_PATH. Returns an error when unconfigured; callers
// treat that as "run without device push".
func NewFCMDispatcherFromEnv(ctx context.Context) (*FCMDispatcher, error) {
	credentialsPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credentialsPath == "" {
		return nil, errors.New("FIREBASE_CREDENTIALS_PATH not set")
	}
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}

	return &FCMDispatcher{client: client, timeout: DefaultTimeout}, nil
}

// Deliver sends one multicast per batch of tokens. Provider errors and
// per-token rejections are logged and folded into the result; nothing
// propagates.
func (d *FCMDispatcher) Deliver(ctx context.Context, note Note, tokens []string) DeliveryResult {
	result := DeliveryResult{Attempted: len(tokens)}
	if len(tokens) == 0 {
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	for start := 0; start < len(tokens); start += multicastBatchSize {
		end := start + multicastBatchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]

		resp, err := d.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens: batch,
			Notification: &messaging.Notification{
				Title: note.Title,
				Body:  note.Body,
			},
			Data: note.Data,
		})
		if err != nil {
			log.Printf("push: fcm multicast failed (%d tokens): %v", len(batch), err)
			result.Failed += len(batch)
			continue
		}

		result.Delivered += resp.SuccessCount
		result.Failed += resp.FailureCount
		if resp.FailureCount > 0 {
			for i, r := range resp.Responses {
				if r.Error != nil {
					log.Printf("push: fcm rejected token %d of batch: %v", i, r.Error)
				}
			}
		}
	}

	return result
}
