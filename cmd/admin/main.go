package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"yatube/internal/config"
	"yatube/internal/pkg"
	"yatube/internal/repository/orm"
	rds "yatube/internal/repository/redis"
	"yatube/internal/service"
)

func main() {
	var (
		envFile     = flag.String("env", ".env", "optional env file")
		createGroup = flag.Bool("create-group", false, "create a group from -title, -slug and -description")
		title       = flag.String("title", "", "group title")
		slug        = flag.String("slug", "", "group slug")
		description = flag.String("description", "", "group description")
		clearCache  = flag.Bool("clear-cache", false, "drop every cached page")
	)
	flag.Parse()

	if !*createGroup && !*clearCache {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := pkg.NewLogger(cfg.AppEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *createGroup {
		if err = runCreateGroup(ctx, cfg, log, &service.GroupInput{Title: *title, Slug: *slug, Description: *description}); err != nil {
			var verr *service.ValidationError
			if errors.As(err, &verr) {
				for field, msgs := range verr.Fields {
					for _, m := range msgs {
						fmt.Fprintf(os.Stderr, "%s: %s\n", field, m)
					}
				}
				os.Exit(1)
			}
			log.Fatal("create group", zap.Error(err))
		}
	}
	if *clearCache {
		if err = runClearCache(ctx, cfg); err != nil {
			log.Fatal("clear cache", zap.Error(err))
		}
		log.Info("page cache cleared")
	}
}

func runCreateGroup(ctx context.Context, cfg *config.Config, log *zap.Logger, in *service.GroupInput) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	db, err := orm.Open(cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		return err
	}
	defer func() { _ = orm.Close(db) }()
	if err = orm.Migrate(db); err != nil {
		return err
	}

	g, err := service.NewGroupService(db).Create(ctx, in)
	if err != nil {
		return err
	}
	log.Info("group created", zap.Uint64("id", g.ID), zap.String("slug", g.Slug))
	return nil
}

func runClearCache(ctx context.Context, cfg *config.Config) error {
	client, err := rds.Init(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()
	return rds.NewPageCache(client).Invalidate(ctx)
}
