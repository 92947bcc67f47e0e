// The mailer worker pops OTP mail jobs from the Redis queue and delivers them
// over SMTP. It runs as its own process so the API never waits on a mail
// server; transient delivery failures are retried here with backoff.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"friendsvc/internal/cache"
	"friendsvc/internal/config"
	"friendsvc/internal/mail"
)

type worker struct {
	rdb         *goredis.Client
	sender      *mail.SMTPSender
	queueName   string
	maxAttempts int
	retryBase   time.Duration
	log         *logrus.Logger
}

func main() {
	logger := logrus.New()

	rdb, err := cache.Connect()
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	w := &worker{
		rdb:         rdb,
		sender:      mail.NewSMTPSender(),
		queueName:   config.Getenv("MAIL_QUEUE_NAME", mail.DefaultQueueName),
		maxAttempts: config.GetenvInt("MAIL_MAX_ATTEMPTS", 5),
		retryBase:   time.Duration(config.GetenvInt("MAIL_RETRY_BASE_MS", 500)) * time.Millisecond,
		log:         logger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	logger.Infof("mailer consuming %q", w.queueName)
	w.run(ctx)
	logger.Info("mailer shutdown complete")
}

func (w *worker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// BLPop with a short timeout so cancellation is noticed.
		res, err := w.rdb.BLPop(ctx, 3*time.Second, w.queueName).Result()
		if errors.Is(err, goredis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.WithError(err).Error("blpop failed")
			time.Sleep(time.Second)
			continue
		}
		if len(res) < 2 {
			continue
		}

		var msg mail.Message
		if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
			w.log.WithError(err).Warn("dropping malformed mail job")
			continue
		}
		w.deliver(ctx, msg)
	}
}

// deliver sends one message, retrying with linear backoff. A message that
// exhausts its attempts is dropped with an error log; the stored OTP remains
// valid, so the user can request a resend.
func (w *worker) deliver(ctx context.Context, msg mail.Message) {
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		err := w.sender.Send(msg)
		if err == nil {
			w.log.WithField("to", msg.To).Info("otp mail delivered")
			return
		}
		w.log.WithError(err).WithFields(logrus.Fields{
			"to":      msg.To,
			"attempt": attempt,
		}).Warn("mail send failed")

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(attempt) * w.retryBase):
		}
	}
	w.log.WithField("to", msg.To).Error("giving up on mail job")
}
