package main

import (
	"log"
	"os"

	"github.com/eduNEXT/extemporaneous-grading/apps/api/echo"
	"github.com/eduNEXT/extemporaneous-grading/core"
	"github.com/eduNEXT/extemporaneous-grading/core/grading"
	"github.com/eduNEXT/extemporaneous-grading/services/email"
	"github.com/eduNEXT/extemporaneous-grading/services/logger"
	"github.com/eduNEXT/extemporaneous-grading/services/render"
	"github.com/eduNEXT/extemporaneous-grading/storage/database"
	"github.com/eduNEXT/extemporaneous-grading/storage/database/inmem"
	"github.com/eduNEXT/extemporaneous-grading/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up logger
	var logger core.Logger
	if conf.Debug || conf.TestMode {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	// set up validators
	validate, translator := core.NewValidator()
	grading.RegisterValidators(validate, translator)

	// set up DB
	var repo grading.Repository
	if conf.Debug {
		db, err := inmemdb.Open()
		errAndDie(logger, err)
		repo = inmemdb.NewBlockRepository(db)
	} else {
		db, err := database.Open(conf)
		errAndDie(logger, err)
		defer db.Close()
		repo = sqlxrepos.NewBlockRepository(db)
	}

	// set up services
	var mailSvc core.EmailService
	switch {
	case conf.Debug:
		mailSvc = emailsvc.NewConsoleService(conf)
	case conf.ResendApiKey != "":
		mailSvc = emailsvc.NewResendService(conf, logger)
	default:
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	gradingSvc := grading.NewService(repo, rendersvc.NewMarkdownRenderer(), mailSvc, conf)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Addr:       conf.Server.Address(),
			Conf:       conf,
			Logger:     logger,
			GradingSvc: gradingSvc,
			Validate:   validate,
			Translator: translator,
		},
	)
	app.Start()
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
