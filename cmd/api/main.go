package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"yatube/internal/config"
	"yatube/internal/pkg"
	"yatube/internal/repository/orm"
	rds "yatube/internal/repository/redis"
	"yatube/internal/router"
	"yatube/internal/service"
	"yatube/internal/storage"
)

func main() {
	envFile := flag.String("env", ".env", "optional env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		panic(err)
	}
	log, err := pkg.NewLogger(cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err = cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := orm.Open(cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer func() { _ = orm.Close(db) }()
	// 自动建表
	if err = orm.Migrate(db); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	// 连接redis
	client, err := rds.Init(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal("connect redis", zap.Error(err))
	}
	defer func() { _ = client.Close() }()

	blobs, err := newBlobStore(cfg)
	if err != nil {
		log.Fatal("blob store", zap.Error(err))
	}

	var mailer pkg.Mailer = service.LogMailer{Log: log.Named("mail")}
	smtp := pkg.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}
	if smtp.Enabled() {
		mailer = pkg.NewSMTPMailer(smtp)
	}

	sender := service.LogSender(log.Named("events"))
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: brokers, Topic: cfg.KafkaTopic})
		if err != nil {
			log.Fatal("kafka producer", zap.Error(err))
		}
		defer func() { _ = producer.Close() }()
		sender = service.KafkaSender(producer)
	}

	tokens := rds.NewTokenRepository(client)
	follows := service.NewFollowService(db, log)
	users := service.NewUserService(db, tokens, pkg.NewTokenIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret), log)

	// outbox 投递
	go service.NewOutboxRelayer(db, sender, log).Run(ctx)

	engine := router.New(router.Deps{
		Users:          users,
		Emails:         service.NewEmailService(db, rds.NewEmailRepository(client), tokens, mailer, log),
		Posts:          service.NewPostService(db, blobs, log),
		Feeds:          service.NewFeedService(db, follows),
		Follows:        follows,
		Blobs:          blobs,
		PageStore:      rds.NewPageCache(client),
		HomeTTL:        cfg.HomeCacheTTL,
		MediaURL:       cfg.MediaURL,
		MediaRoot:      mediaRoot(cfg),
		AllowedOrigins: cfg.AllowedOrigins(),
		SecureCookies:  cfg.Production(),
		Log:            log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("serve", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	log.Info("stopped")
}

func newBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	if cfg.CloudinaryURL != "" {
		return storage.NewCloudinaryStore(cfg.CloudinaryURL)
	}
	if err := os.MkdirAll(cfg.MediaRoot, 0o755); err != nil {
		return nil, err
	}
	return storage.NewLocalStore(cfg.MediaRoot, cfg.MediaURL), nil
}

// 使用 Cloudinary 时本地不提供媒体文件
func mediaRoot(cfg *config.Config) string {
	if cfg.CloudinaryURL != "" {
		return ""
	}
	return cfg.MediaRoot
}
