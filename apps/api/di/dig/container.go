package dig_container

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/studyfocus/focus/apps/api/echo"
	"github.com/studyfocus/focus/core"
	"github.com/studyfocus/focus/core/study"
	"github.com/studyfocus/focus/core/user"
	cachesvc "github.com/studyfocus/focus/services/cache"
	logsvc "github.com/studyfocus/focus/services/logger"
	"github.com/studyfocus/focus/storage/database"
	boiledrepos "github.com/studyfocus/focus/storage/database/sqlboiler"
	sqlxrepos "github.com/studyfocus/focus/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewZapLogger(conf, "API"), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewZapLogger(conf, "DB"), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sql.DB, core.DBExecutor) {
	db, err := database.Setup(context.Background(), conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db
}

// newCache returns the redis cache, or a no-op cache when redis is not configured or unreachable.
func newCache(conf *core.Config, logger core.Logger) core.Cache {
	if conf.Redis.Address == "" {
		return core.NopCache{}
	}
	cache, err := cachesvc.NewRedisCache(context.Background(), conf)
	if err != nil {
		logger.Warn("search cache disabled", err)
		return core.NopCache{}
	}
	return cache
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	study.InitValidators(validate, translator)
	return validate
}

func newStudyService(
	conf *core.Config,
	repo study.Repository,
	search study.SearchRepository,
	cache core.Cache,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) *study.Service {
	return study.NewService(study.ServiceDeps{
		Repo:       repo,
		Search:     search,
		Cache:      cache,
		CacheTTL:   conf.Redis.SearchTTL,
		Validate:   validate,
		Translator: translator,
		Logger:     logger,
	})
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	studySvc *study.Service,
	userSvc *user.Service,
	validate *validator.Validate,
	translator ut.Translator,
) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		StudySvc:   studySvc,
		UserSvc:    userSvc,
		Validate:   validate,
		Translator: translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newCache))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(sqlxrepos.NewStudyRepository, dig.As(new(study.Repository))))
	must(c.Provide(boiledrepos.NewStudySearchRepository, dig.As(new(study.SearchRepository))))
	must(c.Provide(user.NewService))
	must(c.Provide(newStudyService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
