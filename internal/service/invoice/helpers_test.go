package invoice

import (
	"context"

	"github.com/Additional-Code/portal/internal/config"
	"github.com/Additional-Code/portal/internal/messaging"
)

type recordingClient struct {
	published []messaging.Message
}

func (c *recordingClient) Publish(_ context.Context, msg messaging.Message) error {
	c.published = append(c.published, msg)
	return nil
}

func (c *recordingClient) Consume(ctx context.Context, _ messaging.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (c *recordingClient) Topic() string { return "portal.events" }

func enabledMessaging() config.Config {
	var cfg config.Config
	cfg.Messaging.Enabled = true
	return cfg
}
