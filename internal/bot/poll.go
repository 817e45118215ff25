package bot

import (
	"context"
	"errors"
	"time"

	"github.com/techpathai/learnyst-relay/internal/command"
	"github.com/techpathai/learnyst-relay/internal/queue"
	"github.com/techpathai/learnyst-relay/internal/report"
	"github.com/techpathai/learnyst-relay/internal/telegram"
)

// poll long-polls getUpdates until ctx ends. Transport errors back off and
// retry; polling never kills the bot.
func (b *Bot) poll(ctx context.Context) {
	for ctx.Err() == nil {
		updates, err := b.client.GetUpdates(ctx, b.offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.metrics.PollErrors.Inc()
			b.recorder.Printf("poll: %v", err)
			waitOrDone(ctx, b.errorSleep)
			continue
		}
		for _, u := range updates {
			if u.UpdateID >= b.offset {
				b.offset = u.UpdateID + 1
			}
			b.metrics.UpdatesReceived.Inc()
			b.handleUpdate(ctx, u)
		}
		if len(updates) == 0 {
			waitOrDone(ctx, b.idleSleep)
		}
	}
}

// handleUpdate classifies one update and either enqueues a task or replies
// with the matching rejection. Messages that never mention the bot are
// dropped without a reply.
func (b *Bot) handleUpdate(ctx context.Context, u telegram.Update) {
	if u.Message == nil || u.Message.Text == "" {
		return
	}
	chatID := u.Message.Chat.ID

	cmd, err := b.parser.Parse(u.Message.Text)
	if err == nil {
		position := b.queue.Enqueue(queue.Task{
			ChatID:  chatID,
			Command: cmd,
			RawText: u.Message.Text,
		})
		b.metrics.CommandsTotal.WithLabelValues("queued").Inc()
		b.Notify(ctx, chatID, report.Queued(position))
		return
	}

	if errors.Is(err, command.ErrNoMention) {
		b.metrics.CommandsTotal.WithLabelValues("ignored").Inc()
		return
	}

	var unknown *command.UnknownCourseError
	if errors.As(err, &unknown) {
		b.metrics.CommandsTotal.WithLabelValues("invalid_course").Inc()
		b.recorder.Printf("chat %d sent unknown course code %q", chatID, unknown.Code)
		b.Notify(ctx, chatID, report.InvalidCourse(b.catalog.CodesLine()))
		return
	}

	b.metrics.CommandsTotal.WithLabelValues("usage").Inc()
	b.Notify(ctx, chatID, report.Usage(b.parser.Mention(), b.catalog.CodesLine()))
}

func waitOrDone(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
