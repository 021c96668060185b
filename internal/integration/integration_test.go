package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"quiz-link-service/internal/app"
	"quiz-link-service/internal/domain"
	pginfra "quiz-link-service/internal/infra/postgres"
	pgmigrations "quiz-link-service/internal/infra/postgres/migrations"
	redisinfra "quiz-link-service/internal/infra/redis"
)

func TestLinkSubmitEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuiz(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	keys := redisinfra.NewKeyRepository(redisClient, pginfra.NewKeyLoader(pool), 5*time.Minute)
	links := redisinfra.NewLinkStore(redisClient, 5*time.Minute)
	sink := pginfra.NewResultSink(pool)
	service := app.NewQuizService(links, keys, sink, zap.NewNop())

	const capacity = 3
	link, err := service.CreateLink(ctx, "quiz-1", "owner-1", capacity)
	if err != nil {
		t.Fatalf("create link: %v", err)
	}

	// More students than seats race for the link; exactly capacity win.
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < capacity+2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			student := domain.StudentIdentity{Name: fmt.Sprintf("student-%d", i), Class: "7", Section: "A"}
			_, _, recorded, err := service.SubmitViaLink(ctx, link.Token(), student, []domain.StudentAnswer{
				{Number: 1, SelectedOption: 1},
			}, "5m")
			if err == nil {
				if !recorded {
					t.Errorf("expected submission recorded")
				}
				mu.Lock()
				successes++
				mu.Unlock()
			} else if err != domain.ErrCapacityExceeded {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if successes != capacity {
		t.Fatalf("expected %d successful submissions, got %d", capacity, successes)
	}

	usage, err := service.LinkUsage(ctx, link.Token())
	if err != nil || usage.Used != capacity || usage.Remaining != 0 {
		t.Fatalf("usage after fill: %v %+v", err, usage)
	}

	// Results landed in Postgres, newest first, fully detailed.
	subs, err := service.Submissions(ctx, "quiz-1", "owner-1", 1, 10)
	if err != nil {
		t.Fatalf("query submissions: %v", err)
	}
	if len(subs) != capacity {
		t.Fatalf("expected %d stored submissions, got %d", capacity, len(subs))
	}
	if subs[0].Report.Correct != 1 || subs[0].Report.Percentage != 100 {
		t.Fatalf("stored report wrong: %+v", subs[0].Report)
	}

	aggs, err := service.QuizAggregates(ctx, "owner-1")
	if err != nil || len(aggs) != 1 || aggs[0].Count != capacity {
		t.Fatalf("aggregates wrong: %v %+v", err, aggs)
	}

	detail, err := service.Submission(ctx, subs[0].ID)
	if err != nil || detail.LinkToken != link.Token() {
		t.Fatalf("detail fetch wrong: %v %+v", err, detail)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedQuiz(t *testing.T, ctx context.Context, dsn string) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data := `[{"questionNumber": 1, "questionText": "What is 2 + 2?", "options": ["3", "4", "5", "6"], "correct_answer": 1}]`
	if _, err := db.ExecContext(ctx, `INSERT INTO quizzes (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, "quiz-1", data); err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
