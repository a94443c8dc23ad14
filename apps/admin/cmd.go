package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/labstack/gommon/color"
	"golang.org/x/term"

	"github.com/trezcool/masomo-dashboard/core"
	"github.com/trezcool/masomo-dashboard/core/dashboard"
	"github.com/trezcool/masomo-dashboard/core/user"
	"github.com/trezcool/masomo-dashboard/storage/database"
)

var (
	gooseRunFunc   = database.RunMigrations // mockable
	isTerminalFunc = term.IsTerminal        // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf    *core.Config
	db      *sql.DB
	factory dashboard.ProviderFactory
	mailSvc core.EmailService
	logger  core.Logger
	out     io.Writer
	now     func() time.Time
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a migration command: up, up-by-one, up-to, down, down-to, redo, reset, status, version, create, fix")
	fmt.Fprintln(cli.out, "  feed -teacher ID [-window W] - print the upcoming work items of a teacher")
	fmt.Fprintln(cli.out, "  digest -teacher ID -to EMAIL [-name NAME] [-window W] - email the dashboard digest of a teacher")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	feedCmd := flag.NewFlagSet("feed", flag.ContinueOnError)
	feedCmd.SetOutput(cli.out)
	feedTeacher := feedCmd.String("teacher", "", "The teacher's ID.")
	feedWindow := feedCmd.String("window", cli.conf.Dashboard.DefaultWindow, "week, month, semester or year.")

	digestCmd := flag.NewFlagSet("digest", flag.ContinueOnError)
	digestCmd.SetOutput(cli.out)
	digestTeacher := digestCmd.String("teacher", "", "The teacher's ID.")
	digestTo := digestCmd.String("to", "", "The recipient's email.")
	digestName := digestCmd.String("name", "", "The recipient's name.")
	digestWindow := digestCmd.String("window", cli.conf.Dashboard.DefaultWindow, "week, month, semester or year.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "feed":
		if err := feedCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *feedTeacher == "" {
			feedCmd.Usage()
			return errHelp
		}
		w, err := dashboard.ParseTimeWindow(*feedWindow)
		if err != nil {
			return err
		}
		return cli.feed(*feedTeacher, w)
	case "digest":
		if err := digestCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *digestTeacher == "" || *digestTo == "" {
			digestCmd.Usage()
			return errHelp
		}
		w, err := dashboard.ParseTimeWindow(*digestWindow)
		if err != nil {
			return err
		}
		prof := user.NewProfile(*digestTeacher, *digestName, "", *digestTo, []string{user.RoleTeacher})
		return cli.digest(prof, w)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) migrate(args []string) error {
	return gooseRunFunc(args[0], cli.db, args[1:]...)
}

func (cli *commandLine) load(teacherID string) (dashboard.State, error) {
	agg := dashboard.NewAggregator(cli.factory(teacherID), cli.logger)
	if err := agg.Load(context.Background()); err != nil {
		return dashboard.State{}, err
	}
	return agg.State(), nil
}

func (cli *commandLine) colorize() bool {
	f, ok := cli.out.(*os.File)
	return ok && isTerminalFunc(int(f.Fd()))
}

func (cli *commandLine) feed(teacherID string, w dashboard.TimeWindow) error {
	st, err := cli.load(teacherID)
	if err != nil {
		return err
	}

	clr := color.New()
	clr.SetOutput(cli.out)
	if !cli.colorize() {
		clr.Disable()
	}
	paint := map[dashboard.Urgency]func(msg interface{}, styles ...string) string{
		dashboard.UrgencyCritical: clr.Red,
		dashboard.UrgencyWarning:  clr.Yellow,
		dashboard.UrgencyNotice:   clr.Cyan,
		dashboard.UrgencyNormal:   clr.Green,
	}

	entries := dashboard.BuildFeed(w, st.WorkItems, cli.now(), cli.conf.Dashboard.DateLayout)
	if len(entries) == 0 {
		fmt.Fprintf(cli.out, "Nothing due within a %s.\n", w)
		return nil
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDUE\tURGENCY\tSUBMITTED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d (%.0f%%)\n",
			e.ID, e.Title, e.DueLabel, paint[e.Urgency](string(e.Urgency)),
			e.SubmittedCount, e.TotalExpected, e.SubmissionRate*100)
	}
	return tw.Flush()
}

func (cli *commandLine) digest(prof user.Profile, w dashboard.TimeWindow) error {
	st, err := cli.load(prof.ID)
	if err != nil {
		return err
	}
	msg, err := dashboard.BuildDigest(prof, st, w, cli.now(), cli.conf.Dashboard.DateLayout)
	if err != nil {
		return err
	}
	cli.mailSvc.SendMessages(msg)
	fmt.Fprintf(cli.out, "Digest sent to %s.\n", prof.Email)
	return nil
}
