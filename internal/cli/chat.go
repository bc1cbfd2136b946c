package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/CoachBridge/CoachBridge/internal/bus"
	"github.com/CoachBridge/CoachBridge/internal/cache"
	"github.com/CoachBridge/CoachBridge/internal/chat"
	"github.com/CoachBridge/CoachBridge/internal/config"
	"github.com/CoachBridge/CoachBridge/internal/history"
	"github.com/CoachBridge/CoachBridge/internal/notify"
	"github.com/CoachBridge/CoachBridge/internal/quota"
)

var chatID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive coaching conversation",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatID, "chat-id", "default", "conversation identifier")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	store, err := openCache(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	hist := history.NewHTTPClient(cfg.Backend.BaseURL, cfg.Backend.AuthToken, cfg.Backend.Timeout)
	gate := buildGate(cfg)

	sess := chat.NewSession(chatID)
	engine := chat.NewEngine(sess, hist, gate)
	engine.SetPolling(cfg.Chat.PollBaseDelay, cfg.Chat.PollCapDelay, cfg.Chat.PollMaxAttempts)
	if store != nil {
		engine.SetCache(store)
	}

	events := bus.NewEventBus()
	engine.SetEvents(events)
	events.Subscribe(chatID, func(ev *bus.Event) {
		if ev.Type == bus.EventRevealTick && ev.MessageID != "" {
			printReveal(sess, ev.MessageID)
		}
	})
	go events.Dispatch(ctx)

	if cfg.Notify.Enabled {
		consumer := notify.NewKafkaConsumer(cfg.Notify.KafkaBrokers, cfg.Notify.ConsumerGroup, cfg.Notify.Topic)
		if err := consumer.Start(ctx); err != nil {
			return fmt.Errorf("start notification consumer: %w", err)
		}
		defer consumer.Close()
		engine.SetNudge(notify.Nudges(ctx, consumer, chatID))
	}

	engine.Prime(ctx)
	if err := engine.LoadHistory(ctx, chat.LoadOptions{FullReplace: true, ForceRefresh: true}); err != nil {
		color.Yellow("Could not reach the backend yet: %v", err)
	}
	printTranscript(sess)

	color.HiBlack("Type a message, /refresh, /clear, or /quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(color.GreenString("you> "))
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit":
			return nil
		case "/refresh":
			if err := engine.LoadHistory(ctx, chat.LoadOptions{ForceRefresh: true}); err != nil {
				color.Red("refresh failed: %v", err)
			}
			printTranscript(sess)
			continue
		case "/clear":
			sess.Clear()
			if store != nil {
				_ = store.Delete(ctx, chatID)
			}
			color.HiBlack("conversation cleared")
			continue
		}

		before := latestSystemID(sess)
		err := engine.Send(ctx, line)
		switch {
		case errors.Is(err, chat.ErrQuotaDenied):
			color.Yellow("You've reached today's message limit. Upgrade your plan to keep chatting.")
			continue
		case err != nil:
			color.Red("%v", err)
			printTranscript(sess)
			continue
		}

		if id, text, ok := newestSystemReply(sess, before); ok {
			fmt.Print(color.CyanString("coach> "))
			engine.Reveal(ctx, id, text)
			fmt.Println()
		} else {
			printTranscript(sess)
		}
	}
}

func openCache(cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Driver {
	case "", "memory":
		return cache.NewMemoryStore(), nil
	case "sqlite":
		return cache.NewSQLiteStore(cfg.Cache.Path)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		return cache.NewRedisStore(client, cfg.Cache.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
}

func buildGate(cfg *config.Config) quota.Gate {
	if cfg.Quota.DailyLimit <= 0 {
		return quota.Unlimited{}
	}
	gate := quota.NewDailyAllowance(cfg.Quota.DailyLimit)
	gate.OnLimitReached(func() {
		color.Yellow("Daily limit of %d messages reached.", cfg.Quota.DailyLimit)
	})
	return gate
}

func printTranscript(sess *chat.Session) {
	for _, m := range sess.Messages() {
		prefix := color.CyanString("coach> ")
		if m.Sender == chat.SenderUser {
			prefix = color.GreenString("you>   ")
		}
		suffix := ""
		if m.IsOptimistic {
			suffix = color.HiBlackString(" (unconfirmed)")
		}
		fmt.Println(prefix + m.Text + suffix)
	}
}

func printReveal(sess *chat.Session, messageID string) {
	for _, m := range sess.Messages() {
		if m.ID == messageID {
			fmt.Print("\r" + color.CyanString("coach> ") + m.Text)
			return
		}
	}
}

func latestSystemID(sess *chat.Session) string {
	msgs := sess.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Sender == chat.SenderSystem {
			return msgs[i].ID
		}
	}
	return ""
}

// newestSystemReply returns the most recent system message if it arrived
// after the given marker.
func newestSystemReply(sess *chat.Session, before string) (id, text string, ok bool) {
	msgs := sess.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Sender != chat.SenderSystem {
			continue
		}
		if msgs[i].ID == before {
			return "", "", false
		}
		return msgs[i].ID, msgs[i].Text, true
	}
	return "", "", false
}
