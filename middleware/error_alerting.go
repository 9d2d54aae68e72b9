package middleware

import (
	"context"
	"crypto/md5"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/slack-go/slack"
	log "github.com/sirupsen/logrus"

	"mynahbackend/clients"
	slackclient "mynahbackend/clients/slack"
)

const alertSendTimeout = 10 * time.Second

type SlackAlertConfig struct {
	WebhookURL  string
	Environment string
	AppName     string
	LogsURL     string
}

type ErrorAlertMiddleware struct {
	config        SlackAlertConfig
	poster        clients.WebhookPoster
	alertedErrors map[string]time.Time // hash -> last alert time
	mutex         sync.Mutex
	alertCooldown time.Duration
	now           func() time.Time
	send          func(errorMsg, source string)
}

func NewErrorAlertMiddleware(config SlackAlertConfig, poster clients.WebhookPoster) *ErrorAlertMiddleware {
	m := &ErrorAlertMiddleware{
		config:        config,
		poster:        poster,
		alertedErrors: make(map[string]time.Time),
		alertCooldown: 10 * time.Minute, // Don't alert same error more than once per 10min
		now:           time.Now,
	}
	m.send = func(errorMsg, source string) { go m.sendSlackAlert(errorMsg, source) }
	return m
}

// HTTPMiddleware recovers handler panics, alerts and answers 500
func (m *ErrorAlertMiddleware) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				m.alertOnPanic(rec, fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// WrapBackgroundTask runs a named task, alerting on errors and panics
func (m *ErrorAlertMiddleware) WrapBackgroundTask(taskName string, task func() error) (err error) {
	source := fmt.Sprintf("Background task: %s", taskName)
	defer func() {
		if rec := recover(); rec != nil {
			m.alertOnPanic(rec, source)
			err = fmt.Errorf("panic in %s: %v", taskName, rec)
		}
	}()

	if err := task(); err != nil {
		m.AlertOnError(err, source)
		return err
	}
	return nil
}

// AlertOnError sends an alert unless the same error was reported within the cooldown
func (m *ErrorAlertMiddleware) AlertOnError(err error, source string) {
	errorMsg := fmt.Sprintf("%s: %v", source, err)
	hash := fmt.Sprintf("%x", md5.Sum([]byte(errorMsg)))

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if lastAlert, exists := m.alertedErrors[hash]; exists {
		if m.now().Sub(lastAlert) < m.alertCooldown {
			return // Skip alert - too recent
		}
	}

	m.send(errorMsg, source)
	m.alertedErrors[hash] = m.now()
}

func (m *ErrorAlertMiddleware) alertOnPanic(rec any, source string) {
	errorMsg := fmt.Sprintf("%s: PANIC - %v", source, rec)
	log.Printf("❌ %s", errorMsg)
	m.send(errorMsg, source+" (PANIC)")
}

func (m *ErrorAlertMiddleware) sendSlackAlert(errorMsg, source string) {
	if m.config.WebhookURL == "" || m.poster == nil {
		return // Slack alerts disabled
	}

	ctx, cancel := context.WithTimeout(context.Background(), alertSendTimeout)
	defer cancel()

	if err := m.poster.PostWebhook(ctx, m.config.WebhookURL, m.buildAlert(errorMsg, source)); err != nil {
		log.Printf("❌ Failed to send Slack alert: %v", err)
	}
}

func (m *ErrorAlertMiddleware) buildAlert(errorMsg, source string) *slack.WebhookMessage {
	prefix := ""
	if m.config.Environment == "dev" {
		prefix = "[dev] "
	}
	title := fmt.Sprintf("🚨 %s[%s] Error Alert", prefix, m.config.AppName)

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, title, true, false)),
		slackclient.Fields(
			[2]string{"Service", m.config.AppName},
			[2]string{"Environment", m.config.Environment},
			[2]string{"Context", source},
		),
		slackclient.Text(fmt.Sprintf("*Error:*\n```%s```", errorMsg)),
	}
	if m.config.LogsURL != "" {
		blocks = append(blocks, slackclient.Text(fmt.Sprintf("🔗 <%s|View Logs>", m.config.LogsURL)))
	}

	return &slack.WebhookMessage{
		Text:   title,
		Blocks: &slack.Blocks{BlockSet: blocks},
	}
}
