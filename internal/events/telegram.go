package events

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Soltrivia-App/soltrivia-contract/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	telegramPrefix = "tg:"

	defaultSendTimeout = 10 * time.Second
	defaultQueueSize   = 64
)

var (
	ErrNotifierBusy   = errors.New("telegram notifier queue is full")
	ErrNotifierClosed = errors.New("telegram notifier is closed")
)

type NotifierConfig struct {
	BotToken string
	Debug    bool
	// Timeout bounds every Bot API request. Zero means ten seconds.
	Timeout time.Duration
	// QueueSize is the number of messages waiting to be sent before new
	// ones are dropped. Zero means 64.
	QueueSize int
}

// MessageSender is the part of the bot API the notifier uses.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier messages Telegram users about outcomes that concern them:
// the verdict on their question and their reward payouts. Messages are sent
// by a background worker; Deliver only enqueues.
type TelegramNotifier struct {
	bot   MessageSender
	queue chan tgbotapi.Chattable
	done  chan struct{}
	log   *zap.Logger

	mu     sync.RWMutex
	closed bool
}

func NewTelegramNotifier(config NotifierConfig) (*TelegramNotifier, error) {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}

	bot, err := tgbotapi.NewBotAPIWithClient(config.BotToken, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}

	bot.Debug = config.Debug

	return NewTelegramNotifierWithSender(bot, config.QueueSize), nil
}

// NewTelegramNotifierWithSender builds a notifier over an existing sender
// and starts its worker. Close stops it.
func NewTelegramNotifierWithSender(bot MessageSender, queueSize int) *TelegramNotifier {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	n := &TelegramNotifier{
		bot:   bot,
		queue: make(chan tgbotapi.Chattable, queueSize),
		done:  make(chan struct{}),
		log:   logger.Named("events.telegram"),
	}
	go n.run()
	return n
}

func (n *TelegramNotifier) run() {
	defer close(n.done)

	for msg := range n.queue {
		if _, err := n.bot.Send(msg); err != nil {
			n.log.Warn("failed to send telegram message", zap.Error(err))
		}
	}
}

// Deliver enqueues the message for e, if any, without waiting for Telegram.
func (n *TelegramNotifier) Deliver(_ context.Context, e Event) error {
	chatID, ok := telegramChat(e.Subject.String())
	if !ok {
		return nil
	}

	var text string
	switch e.Type {
	case QuestionFinalized:
		text = fmt.Sprintf("Your question #%v was %v.", e.Payload["question_id"], e.Payload["status"])
	case RewardsClaimed:
		text = fmt.Sprintf("You claimed %v from reward pool #%v.", e.Payload["amount"], e.Payload["pool_id"])
	default:
		return nil
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return ErrNotifierClosed
	}

	select {
	case n.queue <- tgbotapi.NewMessage(chatID, text):
		return nil
	default:
		return ErrNotifierBusy
	}
}

// Close stops accepting messages and waits until the queued ones are sent.
func (n *TelegramNotifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()

	<-n.done
}

// telegramChat extracts the chat id of a "tg:<id>" identity.
func telegramChat(subject string) (int64, bool) {
	raw, ok := strings.CutPrefix(subject, telegramPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
