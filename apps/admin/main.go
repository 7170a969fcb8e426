package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"

	"github.com/trezcool/ujenzi/core"
	"github.com/trezcool/ujenzi/core/user"
	emailsvc "github.com/trezcool/ujenzi/services/email"
	logsvc "github.com/trezcool/ujenzi/services/logger"
	"github.com/trezcool/ujenzi/storage/database"
	sqlxrepos "github.com/trezcool/ujenzi/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(false) // errors are printed to the operator

	// set up DB
	errAndDie(logger, database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(logger, err)

	// start CLI
	cli := commandLine{
		db:     db,
		engine: conf.Database.Engine,
		usrSvc: user.NewService(sqlxrepos.NewUserRepository(db), emailsvc.NewConsoleService(conf)),
		out:    os.Stdout,
	}
	err = cli.run(os.Args[1:])
	_ = db.Close()
	if err != nil {
		_, _ = color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(fmt.Sprintf("admin: %v", err), err)
	}
}
