package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gw-labs/gw-messenger/internal/handlers"
	"github.com/gw-labs/gw-messenger/internal/services"
	"github.com/gw-labs/gw-messenger/internal/storage"
	"github.com/gw-labs/gw-messenger/internal/token"
)

// resetFlags resets the global flag.CommandLine to avoid "flag redefined" panic
func resetFlags() {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
}

// resetEnv unsets env vars used by parseConfig
func resetEnv() {
	for _, key := range []string{
		"APP_HOST", "APP_PORT", "APP_LOG_LEVEL",
		"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
		"POSTGRES_MAX_OPEN_CONNS", "POSTGRES_MAX_IDLE_CONNS",
		"REDIS_HOST", "REDIS_PORT", "REDIS_DB", "REDIS_PASSWORD",
		"TOKEN_CACHE_EXP_SECOND",
		"KAFKA_BROKER", "KAFKA_TOPIC",
		"TOKEN_SALT",
		"STORE_COMMIT_EVERY", "STORE_FLUSH_INTERVAL_SECOND",
	} {
		os.Unsetenv(key)
	}
}

func TestParseFlags_Default(t *testing.T) {
	resetFlags()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"cmd"}
	configPath := parseFlags()

	assert.Equal(t, "config.env", configPath)
}

func TestParseFlags_Custom(t *testing.T) {
	resetFlags()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"cmd", "-c", "myconfig.env"}
	configPath := parseFlags()

	assert.Equal(t, "myconfig.env", configPath)
}

func TestPrintBuildInfo_Output(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	printBuildInfo()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)

	assert.Contains(t, buf.String(), "Starting service version")
}

func TestParseConfig_Defaults(t *testing.T) {
	resetEnv()

	appHost, appPort, logLevel,
		pgHost, pgPort, _, _, pgDB,
		pgMaxOpenConns, pgMaxIdleConns,
		redisHost, redisPort, _, _,
		tokenCacheExpSecond,
		kafkaBroker, kafkaTopic,
		tokenSalt,
		commitEvery, flushIntervalSecond,
		err := parseConfig("does-not-exist.env")

	assert.NoError(t, err)
	assert.Equal(t, "localhost", appHost)
	assert.Equal(t, "8080", appPort)
	assert.Equal(t, "info", logLevel)
	assert.Equal(t, "localhost", pgHost)
	assert.Equal(t, 5432, pgPort)
	assert.Equal(t, "messenger", pgDB)
	assert.Equal(t, 16, pgMaxOpenConns)
	assert.Equal(t, 8, pgMaxIdleConns)
	assert.Empty(t, redisHost)
	assert.Equal(t, 6379, redisPort)
	assert.Equal(t, 3600, tokenCacheExpSecond)
	assert.Empty(t, kafkaBroker)
	assert.Equal(t, "messages", kafkaTopic)
	assert.Equal(t, "salt", tokenSalt)
	assert.Equal(t, 20, commitEvery)
	assert.Equal(t, 60, flushIntervalSecond)
}

func TestParseConfig_Overrides(t *testing.T) {
	resetEnv()
	os.Setenv("APP_PORT", "9090")
	os.Setenv("STORE_COMMIT_EVERY", "5")
	os.Setenv("TOKEN_SALT", "pepper")

	_, appPort, _,
		_, _, _, _, _,
		_, _,
		_, _, _, _,
		_,
		_, _,
		tokenSalt,
		commitEvery, _,
		err := parseConfig("does-not-exist.env")

	assert.NoError(t, err)
	assert.Equal(t, "9090", appPort)
	assert.Equal(t, 5, commitEvery)
	assert.Equal(t, "pepper", tokenSalt)
}

func TestParseConfig_InvalidPort(t *testing.T) {
	resetEnv()
	os.Setenv("POSTGRES_PORT", "not-a-port")
	defer resetEnv()

	_, _, _,
		_, _, _, _, _,
		_, _,
		_, _, _, _,
		_,
		_, _,
		_,
		_, _,
		err := parseConfig("does-not-exist.env")

	assert.Error(t, err)
}

func setupPostgres(t *testing.T) (*sqlx.DB, func()) {
	t.Helper()

	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_PASSWORD": "password", "POSTGRES_DB": "testdb", "POSTGRES_USER": "postgres"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp"),
	}

	container, err := tc.GenericContainer(context.Background(), tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	assert.NoError(t, err)

	host, _ := container.Host(context.Background())
	port, _ := container.MappedPort(context.Background(), "5432")

	dsn := fmt.Sprintf("postgres://postgres:password@%s:%d/testdb?sslmode=disable", host, port.Int())

	var db *sqlx.DB
	for i := 0; i < 10; i++ {
		db, err = sqlx.Connect("pgx", dsn)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	assert.NoError(t, err)

	teardown := func() {
		db.Close()
		container.Terminate(context.Background())
	}

	return db, teardown
}

// newTestServer assembles the full stack the way run() does, minus Redis and
// Kafka.
func newTestServer(t *testing.T, db *sqlx.DB) (*httptest.Server, *storage.Store) {
	t.Helper()

	store, err := storage.New(context.Background(), db)
	assert.NoError(t, err)

	deriver := token.NewDeriver("salt")
	authService := services.NewAuthService(store, store, deriver)
	messageService := services.NewMessageService(store, store, store, nil)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Post("/users", handlers.NewRegisterHandler(authService))
	r.Post("/login", handlers.NewLoginHandler(authService))
	r.Post("/messages", handlers.NewSendMessageHandler(messageService))
	r.Get("/messages", handlers.NewListMessagesHandler(messageService))
	r.Post("/check", handlers.NewHealthHandler(store))

	return httptest.NewServer(r), store
}

func postJSON(t *testing.T, client *http.Client, url, authHeader string, body any) (*http.Response, []byte) {
	t.Helper()

	data, err := json.Marshal(body)
	assert.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := client.Do(req)
	assert.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	return resp, respBody
}

func TestEndToEnd(t *testing.T) {
	db, teardown := setupPostgres(t)
	defer teardown()

	srv, store := newTestServer(t, db)
	defer srv.Close()
	defer store.Close()

	client := srv.Client()

	// health check
	resp, body := postJSON(t, client, srv.URL+"/check", "", struct{}{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"health":"ok"}`, string(body))

	// create alice and bob
	resp, body = postJSON(t, client, srv.URL+"/users", "", map[string]string{"username": "alice", "password": "pw1"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"id":0}`, string(body))

	resp, body = postJSON(t, client, srv.URL+"/users", "", map[string]string{"username": "bob", "password": "pw2"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"id":1}`, string(body))

	// duplicate username is rejected
	resp, _ = postJSON(t, client, srv.URL+"/users", "", map[string]string{"username": "alice", "password": "pw3"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// login as alice
	resp, body = postJSON(t, client, srv.URL+"/login", "", map[string]string{"username": "alice", "password": "pw1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var login struct {
		ID    int64  `json:"id"`
		Token string `json:"token"`
	}
	assert.NoError(t, json.Unmarshal(body, &login))
	assert.Equal(t, int64(0), login.ID)
	assert.NotEmpty(t, login.Token)

	// wrong password is rejected
	resp, _ = postJSON(t, client, srv.URL+"/login", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// alice sends bob an image
	send := map[string]any{
		"sender":    0,
		"recipient": 1,
		"content":   map[string]any{"type": "image", "url": "u", "height": 10, "width": 20},
	}
	resp, body = postJSON(t, client, srv.URL+"/messages", "Bearer "+login.Token, send)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var sent struct {
		ID        int64  `json:"id"`
		Timestamp string `json:"timestamp"`
	}
	assert.NoError(t, json.Unmarshal(body, &sent))
	assert.Equal(t, int64(0), sent.ID)
	assert.NotEmpty(t, sent.Timestamp)

	// sending with someone else's token fails
	resp, _ = postJSON(t, client, srv.URL+"/messages", "Bearer wrong-token", send)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// bob logs in and reads his inbox
	resp, body = postJSON(t, client, srv.URL+"/login", "", map[string]string{"username": "bob", "password": "pw2"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var bobLogin struct {
		ID    int64  `json:"id"`
		Token string `json:"token"`
	}
	assert.NoError(t, json.Unmarshal(body, &bobLogin))
	assert.Equal(t, int64(1), bobLogin.ID)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/messages?recipient=1&start=0", nil)
	assert.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+bobLogin.Token)

	listResp, err := client.Do(req)
	assert.NoError(t, err)
	defer listResp.Body.Close()
	assert.Equal(t, http.StatusOK, listResp.StatusCode)

	listBody, err := io.ReadAll(listResp.Body)
	assert.NoError(t, err)

	var inbox struct {
		Messages []struct {
			ID        int64  `json:"id"`
			Sender    int64  `json:"sender"`
			Recipient int64  `json:"recipient"`
			Timestamp string `json:"timestamp"`
			Content   struct {
				Type   string `json:"type"`
				URL    string `json:"url"`
				Height int64  `json:"height"`
				Width  int64  `json:"width"`
			} `json:"content"`
		} `json:"messages"`
	}
	assert.NoError(t, json.Unmarshal(listBody, &inbox))
	assert.Len(t, inbox.Messages, 1)
	assert.Equal(t, int64(0), inbox.Messages[0].ID)
	assert.Equal(t, int64(0), inbox.Messages[0].Sender)
	assert.Equal(t, int64(1), inbox.Messages[0].Recipient)
	assert.Equal(t, sent.Timestamp, inbox.Messages[0].Timestamp)
	assert.Equal(t, "image", inbox.Messages[0].Content.Type)
	assert.Equal(t, "u", inbox.Messages[0].Content.URL)
	assert.Equal(t, int64(10), inbox.Messages[0].Content.Height)
	assert.Equal(t, int64(20), inbox.Messages[0].Content.Width)

	// alice cannot read bob's inbox with her token
	req, err = http.NewRequest(http.MethodGet, srv.URL+"/messages?recipient=1&start=0", nil)
	assert.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+login.Token)

	forbiddenResp, err := client.Do(req)
	assert.NoError(t, err)
	defer forbiddenResp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, forbiddenResp.StatusCode)
}
