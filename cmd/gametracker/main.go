package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kurotanX07/game-tracker-app/internal/bot"
	"github.com/kurotanX07/game-tracker-app/internal/config"
	"github.com/kurotanX07/game-tracker-app/internal/notify"
	"github.com/kurotanX07/game-tracker-app/internal/repository"
	"github.com/kurotanX07/game-tracker-app/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	gameRepo := repository.NewGameRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	notifier := notify.NewLocalNotifier(nil, nil)
	notificationSvc := service.NewNotificationService(notifier, settingRepo)
	resetSvc := service.NewResetService(gameRepo)
	taskSvc := service.NewTaskService(gameRepo, settingRepo, notificationSvc)
	summarySvc := service.NewSummaryService(gameRepo)
	transferSvc := service.NewTransferService(gameRepo, notificationSvc)

	telegramBot, err := bot.New(cfg.TelegramToken, userRepo, taskSvc, notificationSvc, summarySvc, transferSvc)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}
	notifier.SetDelivery(telegramBot)
	notifier.SetPermission(telegramBot.HasAudience)
	notifier.Start()
	defer notifier.Stop()

	// Resets must be applied before anything schedules against the task
	// list, or notifications would target stale completion state.
	games, err := resetSvc.EvaluateAll(ctx, time.Now())
	if err != nil {
		log.Printf("[warn] initial reset evaluation: %v", err)
	} else {
		notificationSvc.Initialize(ctx, games)
	}

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleInterval(cfg.EvaluateInterval, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		games, err := resetSvc.EvaluateAll(jobCtx, time.Now())
		if err != nil {
			log.Printf("[warn] reset evaluation: %v", err)
			return
		}
		// Periodic re-schedule also heals a queue left inconsistent by a
		// crash between cancel and add.
		notificationSvc.UpdateAll(jobCtx, games)
	}); err != nil {
		log.Fatalf("schedule evaluation: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Println("Game tracker started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
