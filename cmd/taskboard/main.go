package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"taskboard/internal/app"
	"taskboard/internal/bot"
	"taskboard/internal/config"
	"taskboard/internal/service"
	"taskboard/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	application, err := app.New(store.New(db))
	if err != nil {
		log.Fatalf("load state: %v", err)
	}

	board, err := bot.New(cfg.TelegramToken, application, &cfg)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	reminder := service.NewReminderService(application.Tasks, board, cfg.ReminderLookahead)

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleInterval(cfg.ReminderInterval, func() {
		reminder.CheckDueTasks(time.Now())
	}); err != nil {
		log.Fatalf("schedule reminders: %v", err)
	}
	if cfg.DailyAgendaTime != "" {
		if _, err := scheduler.ScheduleDaily(cfg.DailyAgendaTime, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := board.SendDailyAgenda(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorf("agenda: %v", err)
			}
		}); err != nil {
			log.Fatalf("schedule agenda: %v", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Info("taskboard bot started")
	if err := board.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Info("shutdown complete")
}
