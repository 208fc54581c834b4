package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jmetso/tasklist/internal/config"
	"github.com/jmetso/tasklist/internal/model"
	"github.com/jmetso/tasklist/internal/notify"
	"github.com/jmetso/tasklist/internal/repository"
	"github.com/jmetso/tasklist/internal/server"
	"github.com/jmetso/tasklist/internal/service"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	listRepo := repository.NewListRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	if err := bootstrapAdmin(ctx, userRepo, cfg.Bootstrap); err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	taskSvc := service.NewTaskService(taskRepo, listRepo)

	scheduler := service.NewScheduler(time.Local)
	if cfg.Notifications.Enabled {
		notifier, err := buildNotifier(cfg)
		if err != nil {
			log.Fatalf("notifier: %v", err)
		}
		notificationSvc := service.NewNotificationService(userRepo, listRepo, taskRepo, notifier)

		if _, err := scheduler.ScheduleEvery(cfg.Notifications.Interval, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if err := notificationSvc.Sweep(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("sweep: %v", err)
			}
		}); err != nil {
			log.Fatalf("schedule sweep: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
		log.Printf("Notification sweep every %s.", cfg.Notifications.Interval)
	}

	srv := server.New(cfg.ListenAddr, taskSvc, userRepo, version)
	log.Printf("Task list service listening on %s.", cfg.ListenAddr)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("server stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}

// buildNotifier assembles the configured transports. Email and Telegram
// can run side by side.
func buildNotifier(cfg config.Config) (service.Notifier, error) {
	var notifiers notify.Multi
	if cfg.SMTP.Host != "" {
		notifiers = append(notifiers, notify.NewEmailNotifier(
			cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From))
	}
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.Chats)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, tg)
	}
	return notifiers, nil
}

// bootstrapAdmin seeds the first account so a fresh database can be
// logged into. Does nothing when users already exist or no bootstrap
// credentials are configured.
func bootstrapAdmin(ctx context.Context, users *repository.UserRepository, cfg config.BootstrapConfig) error {
	if cfg.Username == "" || cfg.Password == "" {
		return nil
	}
	existing, err := users.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), 12)
	if err != nil {
		return err
	}
	log.Printf("Seeding bootstrap admin account %q.", cfg.Username)
	return users.Create(ctx, &model.UserAccount{
		Username: cfg.Username,
		Password: string(hash),
		Roles:    model.RoleList{model.RoleAdmin, model.RoleUser},
		Email:    cfg.Email,
	})
}
