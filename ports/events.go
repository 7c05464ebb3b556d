package ports

import "context"

// EventPublisher notifies other instances about session lifecycle changes.
type EventPublisher interface {
	PublishLogout(ctx context.Context, userID string, tokenID string) error
}
