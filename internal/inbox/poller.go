// Package inbox polls an IMAP mailbox for director replies and feeds them
// into the reply pipeline. It covers replies that never hit the webhook.
package inbox

import (
	"context"
	"strings"
	"time"

	imap "github.com/BrianLeishman/go-imap"

	"leadflow_backend/internal/leads/service"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/sanitize"
)

type replyHandler interface {
	ProcessReply(ctx context.Context, input service.ReplyInput) (service.ReplyOutcome, error)
}

type Poller struct {
	host     string
	port     int
	username string
	password string
	folder   string
	interval time.Duration
	handler  replyHandler
	log      *logger.Logger
}

// NewPoller returns nil when IMAP is not configured; a nil poller's Run is
// a no-op.
func NewPoller(cfg config.InboxConfig, handler replyHandler, log *logger.Logger) *Poller {
	if cfg.GetIMAPHost() == "" || cfg.GetIMAPUsername() == "" {
		return nil
	}

	folder := cfg.GetIMAPFolder()
	if folder == "" {
		folder = "INBOX"
	}
	interval := cfg.GetIMAPPollInterval()
	if interval <= 0 {
		interval = 2 * time.Minute
	}

	return &Poller{
		host:     cfg.GetIMAPHost(),
		port:     cfg.GetIMAPPort(),
		username: cfg.GetIMAPUsername(),
		password: cfg.GetIMAPPassword(),
		folder:   folder,
		interval: interval,
		handler:  handler,
		log:      log,
	}
}

func (p *Poller) Run(ctx context.Context) {
	if p == nil {
		return
	}
	p.log.Info("inbox poller started", "host", p.host, "folder", p.folder, "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := p.poll(ctx); err != nil {
			p.log.Warn("inbox poll failed", "error", err)
		}
	}
}

// poll opens a fresh connection per cycle. IMAP servers drop idle
// connections aggressively; reconnecting is cheaper than keepalive.
func (p *Poller) poll(ctx context.Context) error {
	im, err := imap.New(p.username, p.password, p.host, p.port)
	if err != nil {
		return err
	}
	defer func() {
		_ = im.Close()
	}()

	if err := im.SelectFolder(p.folder); err != nil {
		return err
	}

	uids, err := im.GetUIDs("UNSEEN")
	if err != nil {
		return err
	}
	if len(uids) == 0 {
		return nil
	}

	emails, err := im.GetEmails(uids...)
	if err != nil {
		return err
	}

	for uid, msg := range emails {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.handleMessage(ctx, msg)
		if err := im.MarkSeen(uid); err != nil {
			p.log.Warn("failed to mark message seen", "uid", uid, "error", err)
		}
	}
	return nil
}

func (p *Poller) handleMessage(ctx context.Context, msg *imap.Email) {
	sender := firstAddress(msg.From)
	if sender == "" {
		return
	}

	body := strings.TrimSpace(msg.Text)
	if body == "" {
		body = sanitize.StripHTML(msg.HTML)
	}
	if strings.TrimSpace(body) == "" {
		return
	}

	received := msg.Received
	outcome, err := p.handler.ProcessReply(ctx, service.ReplyInput{
		LeadEmail:    sender,
		ReplyContent: body,
		ReplySubject: msg.Subject,
		ReceivedAt:   &received,
		Source:       "imap",
	})
	if apperr.Is(err, apperr.KindNotFound) {
		// Not a lead; leave it for the humans.
		return
	}
	if err != nil {
		p.log.Warn("imap reply processing failed", "from", sender, "error", err)
		return
	}

	p.log.Info("imap reply processed", "from", sender, "intent", outcome.IntentType, "leadId", outcome.LeadID)
}

func firstAddress(addrs imap.EmailAddresses) string {
	for addr := range addrs {
		return strings.ToLower(strings.TrimSpace(addr))
	}
	return ""
}
