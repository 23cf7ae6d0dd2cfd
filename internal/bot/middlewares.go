package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/parkcheep/parkcheep-bot/internal/idempotency"
	"github.com/parkcheep/parkcheep-bot/internal/ratelimit"
	"github.com/parkcheep/parkcheep-bot/pkg/config"
)

// RecoveryMiddleware is the transport-level panic guard. Panics inside the
// dispatch cycle are already contained per conversation; this catches
// everything outside it so the poller keeps running.
func RecoveryMiddleware(log *slog.Logger) telebot.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered in update handler",
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())),
					)
					err = nil
				}
			}()

			return next(c)
		}
	}
}

// LoggingMiddleware logs basic telemetry about incoming updates.
func LoggingMiddleware(log *slog.Logger) telebot.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			start := time.Now()

			chatID := int64(0)
			if c.Chat() != nil {
				chatID = c.Chat().ID
			}

			action := c.Text()
			if cb := c.Callback(); cb != nil {
				action = cb.Data
			}

			err := next(c)

			log.Info("handled update",
				slog.Int64("chat_id", chatID),
				slog.String("action", action),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}

// RateLimitMiddleware enforces per-chat limits on incoming updates.
func RateLimitMiddleware(limiter ratelimit.Limiter, cfg config.RateLimitConfig, log *slog.Logger) telebot.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			if limiter == nil || !cfg.Enabled {
				return next(c)
			}

			chat := c.Chat()
			if chat == nil {
				return next(c)
			}

			key := fmt.Sprintf("chat:%d", chat.ID)
			result, err := limiter.Check(context.Background(), key, cfg.PerWindow, cfg.Window)
			if err != nil {
				// Fail open: a broken limiter must not take the bot down.
				log.Warn("rate limiter error", slog.Int64("chat_id", chat.ID), slog.Any("error", err))
				return next(c)
			}

			if !result.Allowed {
				log.Warn("rate limit exceeded", slog.Int64("chat_id", chat.ID))
				return c.Send("Rate limit exceeded. Try again later.")
			}

			return next(c)
		}
	}
}

// IdempotencyMiddleware ensures each Telegram update is handled at most once.
func IdempotencyMiddleware(manager idempotency.Manager, log *slog.Logger) telebot.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			if manager == nil {
				return next(c)
			}

			key := updateKey(c)
			if key == "" {
				return next(c)
			}

			_, err := manager.Execute(context.Background(), key, 24*time.Hour, func(context.Context) error {
				return next(c)
			})
			if errors.Is(err, idempotency.ErrUpdateInProgress) {
				return nil
			}

			return err
		}
	}
}

func updateKey(c telebot.Context) string {
	if cb := c.Callback(); cb != nil {
		if cb.ID != "" {
			return fmt.Sprintf("cb:%s", cb.ID)
		}

		if cb.Message != nil && cb.Message.Chat != nil {
			return fmt.Sprintf("cb-msg:%d:%d", cb.Message.Chat.ID, cb.Message.ID)
		}
	}

	if msg := c.Message(); msg != nil && msg.Chat != nil && msg.ID != 0 {
		return fmt.Sprintf("msg:%d:%d", msg.Chat.ID, msg.ID)
	}

	return ""
}
