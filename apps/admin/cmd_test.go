package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyfocus/focus/core"
	"github.com/studyfocus/focus/core/study"
	"github.com/studyfocus/focus/core/user"
	sqlxrepos "github.com/studyfocus/focus/storage/database/sqlx"
	"github.com/studyfocus/focus/tests"
)

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{} // func(*testing.T, error) checking the returned error
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if check, ok := tt.extra.(func(*testing.T, error)); ok {
				check(t, err)
				return
			}
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, err.Error())
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := &commandLine{out: new(bytes.Buffer)}

	gooseRunFunc = func(ctx context.Context, command string, db *sql.DB, dir string, args ...string) error {
		if dir != "migrations" {
			return fmt.Errorf("unexpected migrations dir %q", dir)
		}
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "study_tags", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	})
}

func Test_commandLine_createdb(t *testing.T) {
	conf := core.NewTestConfig()
	var got *core.Config
	createDBFunc = func(c *core.Config) error {
		got = c
		return nil
	}

	cli := &commandLine{conf: conf, out: new(bytes.Buffer)}
	require.NoError(t, cli.run([]string{"admin", "createdb"}))
	assert.Same(t, conf, got)
}

func Test_needsDB(t *testing.T) {
	assert.False(t, needsDB([]string{"admin"}))
	assert.False(t, needsDB([]string{"admin", "createdb"}))
	assert.True(t, needsDB([]string{"admin", "migrate", "up"}))
	assert.True(t, needsDB([]string{"admin", "adduser"}))
}

func setupUserCLI(t *testing.T) (*commandLine, user.Repository) {
	db := testutil.PrepareDB(t)
	repo := sqlxrepos.NewUserRepository(db)

	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	return &commandLine{
		db:     db,
		usrSvc: user.NewService(repo, validate),
		out:    new(bytes.Buffer),
	}, repo
}

func Test_commandLine_addUser(t *testing.T) {
	cli, _ := setupUserCLI(t)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "name but no email", args: []string{"adduser", "-name", "Ada"}, wantErr: errHelp},
		{name: "bad flag", args: []string{"adduser", "-lol"}, wantErr: errHelp},
		{
			name: "invalid email", args: []string{"adduser", "-name", "Ada", "-email", "lol"},
			extra: func(t *testing.T, err error) {
				_, ok := errors.Cause(err).(validator.ValidationErrors)
				assert.True(t, ok, "want validator.ValidationErrors, got %v", err)
			},
		},
		{name: "created", args: []string{"adduser", "-name", "Ada", "-email", "ada@test.kr", "-trust", "42"}},
		{
			name: "duplicate email", args: []string{"adduser", "-name", "Ada 2", "-email", "ADA@test.kr"},
			extra: func(t *testing.T, err error) {
				vErr, ok := errors.Cause(err).(*core.ValidationError)
				require.True(t, ok, "want *core.ValidationError, got %v", err)
				require.Len(t, vErr.Fields, 1)
				assert.Equal(t, "email", vErr.Fields[0].Field)
			},
		},
	})

	out := cli.out.(*bytes.Buffer).String()
	assert.Contains(t, out, "Ada <ada@test.kr> trust=42")
}

type countingCache struct {
	core.NopCache
	incrs map[string]int
	err   error
}

func (c *countingCache) Incr(_ context.Context, key string) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.incrs[key]++
	return int64(c.incrs[key]), nil
}

func Test_commandLine_setTrust(t *testing.T) {
	cli, repo := setupUserCLI(t)
	cache := &countingCache{incrs: map[string]int{}}
	cli.cache = cache
	usr := testutil.CreateUser(t, repo, "Ada", "ada@test.kr", 10)
	userArg := strconv.FormatInt(usr.ID, 10)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"settrust"}, wantErr: errHelp},
		{
			name: "user not found", args: []string{"settrust", "-user", "9999", "-score", "5"},
			extra: func(t *testing.T, err error) {
				assert.Equal(t, user.ErrNotFound, errors.Cause(err))
				assert.Zero(t, cache.incrs[study.SearchGenerationKey])
			},
		},
		{
			name: "negative score", args: []string{"settrust", "-user", userArg, "-score", "-3"},
			extra: func(t *testing.T, err error) {
				require.NoError(t, err)
				assert.Equal(t, 1, cache.incrs[study.SearchGenerationKey])
			},
		},
	})

	got, err := repo.GetUser(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.Equal(t, -3, got.TrustScore)

	cache.err = errors.New("connection refused")
	require.NoError(t, cli.run([]string{"admin", "settrust", "-user", userArg, "-score", "7"}))
	assert.Contains(t, cli.out.(*bytes.Buffer).String(), "warning: search cache not invalidated: connection refused")

	got, err = repo.GetUser(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.TrustScore)
}
