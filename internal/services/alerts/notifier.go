package alerts

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kongtrade/kongbot/internal/domain"
)

// Notifier delivers a fired alert to its chat.
type Notifier interface {
	Notify(alert domain.PriceAlert, price decimal.Decimal)
}

// LogNotifier announces fired alerts through the logger. The default sink
// when no chat transport is wired.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(alert domain.PriceAlert, price decimal.Decimal) {
	n.logger.Info("price alert fired",
		zap.String("chat_id", alert.ChatID),
		zap.String("coin", alert.Coin),
		zap.String("currency", alert.Currency),
		zap.String("direction", string(alert.Direction)),
		zap.String("target", alert.Target.String()),
		zap.String("price", price.String()))
}
