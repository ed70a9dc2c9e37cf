// Command mailer consumes account notifications from Kafka and delivers them
// through SendGrid.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"taskmanager/internal/notify"
	"taskmanager/internal/platform/config"
	"taskmanager/internal/platform/kafka"
	"taskmanager/internal/platform/logger"
	"taskmanager/internal/platform/metrics"
)

const serviceName = "taskmanager-mailer"

type mailerConfig struct {
	Mail     config.MailConfig
	Kafka    config.KafkaConfig
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	var cfg mailerConfig
	if err := config.ParseEnv(&cfg); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	cfg.Kafka.Normalize()
	log := logger.New(serviceName, config.Config{LogLevel: cfg.LogLevel}.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("mailer stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg mailerConfig, log *slog.Logger) error {
	if len(cfg.Kafka.Brokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}

	var sender notify.Sender = notify.NewLogSender(log)
	if cfg.Mail.SendGridAPIKey != "" {
		sg, err := notify.NewSendGridSender(cfg.Mail.SendGridAPIKey, cfg.Mail.From, cfg.Mail.FromName)
		if err != nil {
			return err
		}
		sender = sg
	} else {
		log.WarnContext(ctx, "SENDGRID_API_KEY not set, notifications are logged only")
	}

	consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup,
		[]string{cfg.Kafka.NotificationsTopic}, log)
	if err != nil {
		return err
	}
	defer consumer.Close()

	log.InfoContext(ctx, "mailer consuming", "topic", cfg.Kafka.NotificationsTopic, "group", cfg.Kafka.ConsumerGroup)
	return consumer.Run(ctx, notify.MailHandler(sender, log, metrics.New()))
}
