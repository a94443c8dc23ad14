package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/trezcool/masomo-dashboard/core"
	emailsvc "github.com/trezcool/masomo-dashboard/services/email"
	logsvc "github.com/trezcool/masomo-dashboard/services/logger"
	"github.com/trezcool/masomo-dashboard/storage/database"
	sqlxstore "github.com/trezcool/masomo-dashboard/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	ctx := context.Background()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		logger.Fatal("creating database", err)
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	store := sqlxstore.NewStore(db, conf.Dashboard.RecentActivityLimit, conf.Dashboard.AnnouncementLimit)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, log.New(os.Stdout, "MAIL : ", log.LstdFlags), logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	mailSvc = emailsvc.Synchronous(mailSvc)

	// start CLI
	cli := commandLine{
		conf:    conf,
		db:      db.DB,
		factory: store.ProviderFor,
		mailSvc: mailSvc,
		logger:  logger,
		out:     os.Stdout,
		now:     time.Now,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}
