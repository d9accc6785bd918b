package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MessagesSent counts delivery attempts by result.
var MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hedge_notify_messages_total",
	Help: "Telegram delivery attempts by result",
}, []string{"result"})
