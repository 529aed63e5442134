// Package bot is the Telegram surface of the tracker: command handling for
// games and tasks, and the delivery sink for fired reset notifications.
package bot

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kurotanX07/game-tracker-app/internal/model"
	"github.com/kurotanX07/game-tracker-app/internal/notify"
	"github.com/kurotanX07/game-tracker-app/internal/repository"
	"github.com/kurotanX07/game-tracker-app/internal/service"
)

const (
	cbTogglePrefix  = "toggle:"
	cbAdvancePrefix = "advance:"
	cbNotifyPrefix  = "notify:"
)

const helpText = `🎮 <b>Game task tracker</b>

/games — list games and toggle today's tasks
/notify — turn per-task reminders on or off
/export — download your data as JSON
/help — this message

Completed tasks revert automatically at each game's reset times.`

// Bot aggregates the Telegram API with the tracker services.
type Bot struct {
	api           *tgbotapi.BotAPI
	users         *repository.UserRepository
	tasks         *service.TaskService
	notifications *service.NotificationService
	summaries     *service.SummaryService
	transfers     *service.TransferService
}

func New(
	token string,
	users *repository.UserRepository,
	tasks *service.TaskService,
	notifications *service.NotificationService,
	summaries *service.SummaryService,
	transfers *service.TransferService,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:           api,
		users:         users,
		tasks:         tasks,
		notifications: notifications,
		summaries:     summaries,
		transfers:     transfers,
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.CallbackQuery != nil {
				if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
					log.Printf("[warn] callback: %v", err)
				}
				continue
			}
			if update.Message == nil {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("[warn] message: %v", err)
			}
		}
	}
}

// Deliver implements notify.Delivery by broadcasting a fired notification to
// every registered user.
func (b *Bot) Deliver(ctx context.Context, n notify.Scheduled) error {
	users, err := b.users.ListAll(ctx)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("🔔 <b>%s</b>\n%s",
		html.EscapeString(n.Payload.Title), html.EscapeString(n.Payload.Body))
	for _, user := range users {
		if err := b.sendText(user.TelegramID, text); err != nil {
			log.Printf("[warn] deliver to %d: %v", user.TelegramID, err)
		}
	}
	return nil
}

// HasAudience reports whether at least one user has registered. Used as the
// facility's permission check: with nobody to deliver to, scheduling is
// pointless the same way an unanswered OS permission prompt is.
func (b *Bot) HasAudience(ctx context.Context) (bool, error) {
	n, err := b.users.Count(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.IsCommand() {
		return nil
	}
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	switch msg.Command() {
	case "start":
		if err := b.sendText(msg.Chat.ID, helpText); err != nil {
			return err
		}
		return b.sendGameList(ctx, msg.Chat.ID)
	case "help":
		return b.sendText(msg.Chat.ID, helpText)
	case "games":
		return b.sendGameList(ctx, msg.Chat.ID)
	case "notify":
		return b.sendNotifyMenu(ctx, msg.Chat.ID)
	case "export":
		return b.sendExport(ctx, msg.Chat.ID)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. Try /help.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	// Always answer, Telegram keeps the button spinner otherwise.
	defer func() {
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			log.Printf("[warn] answer callback: %v", err)
		}
	}()

	if cb.Message == nil {
		return nil
	}
	chatID := cb.Message.Chat.ID
	data := cb.Data

	switch {
	case strings.HasPrefix(data, cbTogglePrefix):
		gameID, taskID, ok := splitCallback(strings.TrimPrefix(data, cbTogglePrefix))
		if !ok {
			return nil
		}
		if _, err := b.tasks.ToggleDailyTask(ctx, gameID, taskID, time.Now()); err != nil {
			return err
		}
		return b.sendGameList(ctx, chatID)

	case strings.HasPrefix(data, cbAdvancePrefix):
		gameID, taskID, ok := splitCallback(strings.TrimPrefix(data, cbAdvancePrefix))
		if !ok {
			return nil
		}
		if _, err := b.tasks.AdvanceCustomTask(ctx, gameID, taskID); err != nil {
			return err
		}
		return b.sendGameList(ctx, chatID)

	case strings.HasPrefix(data, cbNotifyPrefix):
		gameID, taskID, ok := splitCallback(strings.TrimPrefix(data, cbNotifyPrefix))
		if !ok {
			return nil
		}
		if err := b.toggleNotification(ctx, gameID, taskID); err != nil {
			return err
		}
		return b.sendNotifyMenu(ctx, chatID)
	}
	return nil
}

func (b *Bot) toggleNotification(ctx context.Context, gameID, taskID string) error {
	games, err := b.tasks.Games(ctx)
	if err != nil {
		return err
	}
	for gi := range games {
		if games[gi].ID != gameID {
			continue
		}
		task := games[gi].Task(taskID)
		if task == nil {
			break
		}
		pref := b.notifications.Preference(ctx, taskID)
		pref.Enabled = !pref.Enabled
		return b.notifications.SetPreference(ctx, &games[gi], task, pref)
	}
	return fmt.Errorf("task %s not found in game %s", taskID, gameID)
}

func (b *Bot) sendGameList(ctx context.Context, chatID int64) error {
	text, err := b.summaries.Overview(ctx, time.Now())
	if err != nil {
		return err
	}

	games, err := b.tasks.Games(ctx)
	if err != nil {
		return err
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for gi := range games {
		game := &games[gi]
		for ti := range game.DailyTasks {
			task := &game.DailyTasks[ti]
			label := fmt.Sprintf("%s %s · %s", checkIcon(task.Completed), game.Name, task.Name)
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, cbTogglePrefix+game.ID+":"+task.ID),
			))
		}
		for ti := range game.CustomTasks {
			task := &game.CustomTasks[ti]
			label := fmt.Sprintf("%s %s · %s", checkIcon(task.Completed), game.Name, task.Name)
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, cbAdvancePrefix+game.ID+":"+task.ID),
			))
		}
	}

	if len(rows) == 0 {
		return b.sendText(chatID, text)
	}
	return b.sendWithReplyMarkup(chatID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) sendNotifyMenu(ctx context.Context, chatID int64) error {
	games, err := b.tasks.Games(ctx)
	if err != nil {
		return err
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for gi := range games {
		game := &games[gi]
		for ti := range game.DailyTasks {
			task := &game.DailyTasks[ti]
			pref := b.notifications.Preference(ctx, task.ID)
			state := "🔕"
			if pref.Enabled {
				state = "🔔"
			}
			label := fmt.Sprintf("%s %s · %s", state, game.Name, task.Name)
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, cbNotifyPrefix+game.ID+":"+task.ID),
			))
		}
	}

	if len(rows) == 0 {
		return b.sendText(chatID, "No daily tasks to remind about yet.")
	}
	return b.sendWithReplyMarkup(chatID, "Tap a task to toggle its reminders:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) sendExport(ctx context.Context, chatID int64) error {
	data, err := b.transfers.Export(ctx)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("game_tracker_data_%s.json", time.Now().Format("20060102_1504"))
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	if _, err := b.api.Send(doc); err != nil {
		return fmt.Errorf("send export: %w", err)
	}
	return nil
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.users.Upsert(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func checkIcon(done bool) string {
	if done {
		return "✅"
	}
	return "⬜"
}

func splitCallback(data string) (gameID, taskID string, ok bool) {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
