package handoffnotif

import (
	"context"
	"fmt"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/slack-go/slack"
	log "github.com/sirupsen/logrus"

	"mynahbackend/clients"
	slackclient "mynahbackend/clients/slack"
	"mynahbackend/core"
	"mynahbackend/models"
	"mynahbackend/utils"
)

const sendTimeout = 10 * time.Second

// HandoffNotifier tells the operations channel that a debtor asked for a human.
// Delivery is asynchronous and best-effort.
type HandoffNotifier struct {
	poster      clients.WebhookPoster
	webhookURL  string
	environment string
	pool        *workerpool.WorkerPool
	now         func() time.Time
}

func New(poster clients.WebhookPoster, webhookURL, environment string, workers int) *HandoffNotifier {
	if workers <= 0 {
		workers = 1
	}
	return &HandoffNotifier{
		poster:      poster,
		webhookURL:  webhookURL,
		environment: environment,
		pool:        workerpool.New(workers),
		now:         time.Now,
	}
}

func (n *HandoffNotifier) NotifyHandoff(ctx context.Context, convCtx models.ConversationContext) {
	if n.webhookURL == "" {
		return // Handoff notifications disabled
	}

	ticketID := core.NewID("hnd")
	message := n.buildMessage(ticketID, convCtx)
	sessionID := convCtx.SessionID

	n.pool.Submit(func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		if err := n.poster.PostWebhook(sendCtx, n.webhookURL, message); err != nil {
			log.Printf("❌ Failed to send handoff notification for session %s: %v", sessionID, err)
			return
		}
		log.Printf("🙋 Handoff notification sent for session %s (ticket %s)", sessionID, ticketID)
	})
}

// Stop waits for queued notifications to be delivered
func (n *HandoffNotifier) Stop() {
	n.pool.StopWait()
}

func (n *HandoffNotifier) buildMessage(ticketID string, convCtx models.ConversationContext) *slack.WebhookMessage {
	fields := [][2]string{
		{"Environment", n.environment},
		{"Ticket", fmt.Sprintf("`%s`", ticketID)},
		{"Session", fmt.Sprintf("`%s`", convCtx.SessionID)},
		{"Debtor", convCtx.DebtorID},
	}
	if convCtx.MatterDetails != nil {
		fields = append(fields, [2]string{"Matter", convCtx.MatterDetails.MatterID})
	}
	fields = append(fields, [2]string{"Timestamp", n.now().UTC().Format("2006-01-02 15:04:05 UTC")})

	text := fmt.Sprintf("🙋 *Human handoff requested*\n> %s", convCtx.LastUserMessage)
	blocks := []slack.Block{
		slackclient.Fields(fields...),
		slackclient.Text(text),
	}
	if convCtx.FinalResponse != "" {
		blocks = append(blocks, slackclient.Text("*Last reply:*\n"+utils.ConvertMarkdownToSlack(convCtx.FinalResponse)))
	}

	return &slack.WebhookMessage{
		Text:   fmt.Sprintf("Human handoff requested for session %s", convCtx.SessionID),
		Blocks: &slack.Blocks{BlockSet: blocks},
	}
}
