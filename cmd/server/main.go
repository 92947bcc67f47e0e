package main

import (
	"context"
	"net/http"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"friendsvc/internal/accounts"
	"friendsvc/internal/auth"
	"friendsvc/internal/cache"
	"friendsvc/internal/config"
	"friendsvc/internal/database"
	"friendsvc/internal/friends"
	"friendsvc/internal/handlers"
	"friendsvc/internal/mail"
	"friendsvc/internal/passreset"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	keys, err := loadKeys()
	if err != nil {
		logger.Fatalf("auth keys: %v", err)
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()

	rdb, err := cache.Connect()
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	userStore := database.NewUserStore(pool)
	friendStore := database.NewFriendStore(pool)

	accountsSvc := accounts.NewService(userStore)
	friendsSvc := friends.NewService(friendStore, friends.Config{
		AllowRerequest: config.Getenv("FRIEND_REREQUEST_POLICY", "block") == "allow",
	})
	resetSvc := passreset.NewService(userStore, mail.NewQueue(rdb), logger)

	srv := handlers.NewServer(
		accountsSvc, friendsSvc, resetSvc,
		keys, cache.NewTokenDenylist(rdb), logger,
	)

	addr := ":" + config.Getenv("PORT", "8080")
	logger.Infof("friendsvc listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.Router()); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}

// loadKeys reads a persisted ed25519 pair when AUTH_PRIVATE_KEY_PATH and
// AUTH_PUBLIC_KEY_PATH are set, otherwise generates an ephemeral pair.
func loadKeys() (*auth.Keys, error) {
	priv := config.Getenv("AUTH_PRIVATE_KEY_PATH", "")
	pub := config.Getenv("AUTH_PUBLIC_KEY_PATH", "")
	if priv != "" && pub != "" {
		return auth.NewKeysFromFiles(priv, pub)
	}
	return auth.NewKeys()
}
