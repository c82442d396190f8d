package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/studyfocus/focus/core"
	"github.com/studyfocus/focus/core/study"
	"github.com/studyfocus/focus/core/user"
	"github.com/studyfocus/focus/storage/database"
)

var (
	createDBFunc = database.CreateIfNotExist // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf   *core.Config
	db     *sql.DB
	usrSvc *user.Service
	cache  core.Cache
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.output(), "Usage:")
	fmt.Fprintln(cli.output(), "  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.output(), "  createdb - create the application role and database if they do not exist")
	fmt.Fprintln(cli.output(), "  adduser -name NAME -email EMAIL [-trust SCORE] - create a user")
	fmt.Fprintln(cli.output(), "  settrust -user ID -score SCORE - set a user's trust score")
}

func (cli *commandLine) output() io.Writer {
	if cli.out == nil {
		return os.Stdout
	}
	return cli.out
}

// needsDB reports whether the command in args talks to the application database.
func needsDB(args []string) bool {
	return len(args) >= 2 && args[1] != "createdb"
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserName := addUserCmd.String("name", "", "The user's name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserTrust := addUserCmd.Int("trust", 0, "The user's initial trust score.")

	setTrustCmd := flag.NewFlagSet("settrust", flag.ContinueOnError)
	setTrustUser := setTrustCmd.Int64("user", 0, "The user's ID.")
	setTrustScore := setTrustCmd.Int("score", 0, "The new trust score (may be zero or negative).")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])
	case "createdb":
		return createDBFunc(cli.conf)
	case "adduser":
		addUserCmd.SetOutput(cli.output())
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserName == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(ctx, user.NewUser{Name: *addUserName, Email: *addUserEmail, TrustScore: *addUserTrust})
	case "settrust":
		setTrustCmd.SetOutput(cli.output())
		if err := setTrustCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *setTrustUser <= 0 {
			setTrustCmd.Usage()
			return errHelp
		}
		return cli.setTrust(ctx, *setTrustUser, *setTrustScore)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) addUser(ctx context.Context, nu user.NewUser) error {
	usr, err := cli.usrSvc.Create(ctx, nu)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.output(), "user %d created: %s <%s> trust=%d\n", usr.ID, usr.Name, usr.Email, usr.TrustScore)
	return nil
}

func (cli *commandLine) setTrust(ctx context.Context, id int64, score int) error {
	usr, err := cli.usrSvc.SetTrustScore(ctx, id, score)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.output(), "user %d trust score set to %d\n", usr.ID, usr.TrustScore)

	// leader trust scores are part of cached search results
	if cli.cache != nil {
		if _, err := cli.cache.Incr(ctx, study.SearchGenerationKey); err != nil {
			fmt.Fprintf(cli.output(), "warning: search cache not invalidated: %v\n", err)
		}
	}
	return nil
}
