package main

import (
	"context"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/studyfocus/focus/core"
	"github.com/studyfocus/focus/core/user"
	cachesvc "github.com/studyfocus/focus/services/cache"
	logsvc "github.com/studyfocus/focus/services/logger"
	"github.com/studyfocus/focus/storage/database"
	sqlxrepos "github.com/studyfocus/focus/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewZapLogger(conf, "ADMIN").Sugar()
	defer func() { _ = logger.Sync() }()

	cli := commandLine{conf: conf}

	if needsDB(os.Args) {
		db, err := database.Open(conf)
		if err != nil {
			logger.Fatalw("opening database", "error", err)
		}
		defer func() { _ = db.Close() }()

		validate := validator.New()
		core.InitValidators(validate, core.NewTranslator())

		cli.db = db
		cli.usrSvc = user.NewService(sqlxrepos.NewUserRepository(db), validate)

		cli.cache = core.NopCache{}
		if conf.Redis.Address != "" {
			cache, err := cachesvc.NewRedisCache(context.Background(), conf)
			if err != nil {
				logger.Warnw("search cache unreachable, cached searches will expire on their own", "error", err)
			} else {
				defer func() { _ = cache.Close() }()
				cli.cache = cache
			}
		}
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Errorw("command failed", "error", err)
		}
		_ = logger.Sync()
		os.Exit(1)
	}
}
