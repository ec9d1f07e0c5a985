package main

import (
	"context"
	"errors"
	"io/fs"

	"github.com/cartify-api/internal/application/notification"
	"github.com/cartify-api/internal/config"
	"github.com/cartify-api/internal/infrastructure/dynamo"
	"github.com/cartify-api/internal/infrastructure/password"
	"github.com/cartify-api/internal/infrastructure/smtp"
	"github.com/cartify-api/internal/infrastructure/sns"
	"github.com/cartify-api/internal/pkg/logging"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/samber/oops"
)

// loadConfig reads the optional dotenv file, then the environment.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	envErr := godotenv.Load(envFile)
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), oops.Code("CONFIG_INVALID").Wrap(err)
	}
	logger := logging.New(cfg.LogLevel, cfg.IsDevelopment()).With().Str("app", cfg.AppName).Logger()
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		logger.Warn().Err(envErr).Str("file", envFile).Msg("could not read env file")
	}
	return cfg, logger, nil
}

// newAccountRepo connects to DynamoDB and ensures the users table exists.
func newAccountRepo(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*dynamo.AccountRepo, error) {
	client, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DYNAMO_CONNECT_FAILED").With("operation", "load aws config").Wrap(err)
	}
	dynamo.Bootstrap(ctx, client, cfg.DynamoTables, logger)
	return dynamo.NewAccountRepo(client, cfg.DynamoTables.Users), nil
}

// newNotifier wires the mailer and, when enabled, the SNS sender.
func newNotifier(ctx context.Context, cfg *config.Config, logger zerolog.Logger) notification.Notifier {
	deps := notification.ServiceDeps{
		Mailer:  smtp.NewMailer(cfg),
		AppName: cfg.AppName,
		Timeout: cfg.NotifyTimeout,
		Logger:  logger,
	}
	if cfg.SMSEnabled {
		awsCfg, err := dynamo.LoadAWSConfig(ctx, cfg, cfg.SNSRegion)
		if err != nil {
			logger.Warn().Err(err).Msg("SNS sender not available, SMS notices disabled")
		} else {
			deps.SMS = sns.NewSender(awsCfg)
		}
	}
	return notification.NewService(deps)
}

func newHasher() *password.Hasher {
	return password.NewHasher()
}
