package testutil

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/studyfocus/focus/core/study"
	"github.com/studyfocus/focus/core/user"
	"github.com/studyfocus/focus/storage/database"
)

var (
	dbOnce sync.Once
	dbConn *sql.DB
	dbErr  error

	redisOnce sync.Once
	redisAddr string
	redisErr  error
)

// PrepareDB returns a migrated, empty database shared by the tests of the package.
// The postgres container is started on first use and reaped when the test binary exits.
func PrepareDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	dbOnce.Do(func() {
		ctx := context.Background()
		container, err := postgres.Run(ctx, "postgres:15-alpine",
			postgres.WithDatabase("focus_test"),
			postgres.WithUsername("focus"),
			postgres.WithPassword("focus"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		if err != nil {
			dbErr = err
			return
		}
		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			dbErr = err
			return
		}
		if dbConn, dbErr = database.OpenDSN("postgres", dsn); dbErr != nil {
			return
		}
		dbErr = database.Migrate(ctx, dbConn)
	})
	if dbErr != nil {
		t.Fatalf("PrepareDB() failed: %v", dbErr)
	}
	ResetDB(t, dbConn)
	return dbConn
}

// ResetDB empties every table and restarts the id sequences.
func ResetDB(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec("TRUNCATE TABLE bookmarks, study_members, study_profiles, studies, users RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("ResetDB() failed: %v", err)
	}
}

// PrepareRedis returns the address of a redis server shared by the tests of the package.
func PrepareRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	redisOnce.Do(func() {
		ctx := context.Background()
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForListeningPort("6379/tcp"),
			},
			Started: true,
		})
		if err != nil {
			redisErr = err
			return
		}
		host, err := container.Host(ctx)
		if err != nil {
			redisErr = err
			return
		}
		port, err := container.MappedPort(ctx, "6379")
		if err != nil {
			redisErr = err
			return
		}
		redisAddr = host + ":" + port.Port()
	})
	if redisErr != nil {
		t.Fatalf("PrepareRedis() failed: %v", redisErr)
	}
	return redisAddr
}

func CreateUser(t *testing.T, repo user.Repository, name, email string, trustScore int, createdAt ...time.Time) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr, err := repo.CreateUser(context.Background(), user.User{
		Name:       name,
		Email:      email,
		TrustScore: trustScore,
		CreatedAt:  tstamp,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateStudy creates a study led by leaderID. Zero max defaults to 10 members.
func CreateStudy(
	t *testing.T,
	repo study.Repository,
	leaderID int64,
	title, bio string,
	category study.Category,
	province, district string,
	maxMembers int,
	createdAt ...time.Time,
) study.Study {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if maxMembers == 0 {
		maxMembers = 10
	}
	st, err := repo.CreateStudy(context.Background(), study.NewStudy{
		Title:          title,
		Bio:            bio,
		Category:       category,
		Province:       province,
		District:       district,
		MaxMemberCount: maxMembers,
	}, leaderID, tstamp)
	if err != nil {
		t.Fatalf("CreateStudy() failed: %v", err)
	}
	return st
}

func AddMember(t *testing.T, repo study.Repository, studyID, userID int64) study.Membership {
	t.Helper()
	m, err := repo.AddMember(context.Background(), studyID, userID, time.Now().UTC())
	if err != nil {
		t.Fatalf("AddMember() failed: %v", err)
	}
	return m
}

func AddBookmark(t *testing.T, repo study.Repository, studyID, userID int64) study.Bookmark {
	t.Helper()
	b, err := repo.AddBookmark(context.Background(), studyID, userID, time.Now().UTC())
	if err != nil {
		t.Fatalf("AddBookmark() failed: %v", err)
	}
	return b
}
