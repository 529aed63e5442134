package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/kurotanX07/game-tracker-app/internal/model"
	"github.com/kurotanX07/game-tracker-app/internal/repository"
)

// SummaryService builds human-readable overviews of every game for the bot.
type SummaryService struct {
	games *repository.GameRepository
}

func NewSummaryService(games *repository.GameRepository) *SummaryService {
	return &SummaryService{games: games}
}

// Overview renders all games with their tasks and the time left until the
// next reset. HTML formatting matches Telegram's parse mode.
func (s *SummaryService) Overview(ctx context.Context, now time.Time) (string, error) {
	games, err := s.games.Load(ctx)
	if err != nil {
		return "", err
	}
	if len(games) == 0 {
		return "No games yet. Add one to start tracking daily tasks.", nil
	}

	var builder strings.Builder
	builder.WriteString("🎮 <b>Daily tasks</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n", now.Format("2006-01-02")))

	for gi := range games {
		builder.WriteString("\n")
		builder.WriteString(formatGame(&games[gi], now))
	}
	return strings.TrimSpace(builder.String()), nil
}

func formatGame(game *model.Game, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("<b>%s</b>", html.EscapeString(strings.TrimSpace(game.Name))))
	if next := game.NextSharedReset(now); !next.IsZero() {
		sb.WriteString(fmt.Sprintf(" · resets %s (%s)", next.Format("15:04"), timeUntil(next, now)))
	}
	sb.WriteByte('\n')

	if len(game.DailyTasks) == 0 && len(game.CustomTasks) == 0 {
		sb.WriteString("— no tasks\n")
		return sb.String()
	}

	for i := range game.DailyTasks {
		task := &game.DailyTasks[i]
		icon := "⬜"
		if task.Completed {
			icon = "✅"
		}
		sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(task.Name))))
		switch task.Reset.Kind {
		case model.ResetCustom:
			sb.WriteString(fmt.Sprintf(" <i>(own schedule %s)</i>", joinTimes(task.Reset.Times)))
		case model.ResetDated:
			if task.Reset.EndDate != nil {
				sb.WriteString(fmt.Sprintf(" <i>(until %s)</i>", task.Reset.EndDate))
			}
		}
		sb.WriteByte('\n')
	}

	for i := range game.CustomTasks {
		task := &game.CustomTasks[i]
		icon := "⬜"
		if task.Completed {
			icon = "✅"
		}
		if task.Type == model.CustomCounter {
			sb.WriteString(fmt.Sprintf("%s %s (%d/%d)\n", icon, html.EscapeString(strings.TrimSpace(task.Name)), task.Value, task.MaxValue))
			continue
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", icon, html.EscapeString(strings.TrimSpace(task.Name))))
	}
	return sb.String()
}

// timeUntil formats the gap to a future instant as "in 2h 15m".
func timeUntil(target, now time.Time) string {
	diff := target.Sub(now)
	if diff < 0 {
		diff += 24 * time.Hour
	}
	hours := int(diff.Hours())
	minutes := int(diff.Minutes()) % 60
	if hours > 0 {
		if minutes > 0 {
			return fmt.Sprintf("in %dh %dm", hours, minutes)
		}
		return fmt.Sprintf("in %dh", hours)
	}
	return fmt.Sprintf("in %dm", minutes)
}

func joinTimes(times []model.TimeOfDay) string {
	parts := make([]string, len(times))
	for i, t := range times {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
