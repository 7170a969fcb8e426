package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/ujenzi/apps/api/echo"
	"github.com/trezcool/ujenzi/core"
	"github.com/trezcool/ujenzi/core/crud"
	"github.com/trezcool/ujenzi/core/project"
	"github.com/trezcool/ujenzi/core/user"
	emailsvc "github.com/trezcool/ujenzi/services/email"
	logsvc "github.com/trezcool/ujenzi/services/logger"
	"github.com/trezcool/ujenzi/storage/database"
	sqlxrepos "github.com/trezcool/ujenzi/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// DBResult exposes the database handle under every interface the stores and services need.
type DBResult struct {
	dig.Out
	SQLX     *sqlx.DB
	DB       core.DB
	Executor core.DBExecutor
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) DBResult {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(context.Background(), db, conf.Database.Engine); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return DBResult{SQLX: db, DB: db, Executor: db}
}

// newSchema reads the tables & columns once, at boot.
func newSchema(conf *core.Config, db *sqlx.DB, loggerParam DBLoggerParam) *crud.Schema {
	schema, err := database.Introspect(context.Background(), db, conf.Database.Engine)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("introspecting database: %v", err), err)
	}
	return schema
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newPolicy() crud.Policy {
	return crud.DefaultPolicy{}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newSchema))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))

	// storage
	must(c.Provide(sqlxrepos.NewUserRepository))
	must(c.Provide(sqlxrepos.NewProjectRepository))
	must(c.Provide(sqlxrepos.NewTableStore))

	// services
	must(c.Provide(user.NewService))
	must(c.Provide(project.NewService))
	must(c.Provide(crud.DefaultRegistry))
	must(c.Provide(newPolicy))
	must(c.Provide(crud.NewService))

	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
