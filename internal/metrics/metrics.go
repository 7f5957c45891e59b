package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	ConversationsCreated prometheus.Counter
	MessagesCreated      *prometheus.CounterVec
	RealtimePublished    prometheus.Counter
	BotReplies           prometheus.Counter
	FAQHits              prometheus.Counter
}

var (
	once   sync.Once
	global *Metrics
)

func Global() *Metrics {
	once.Do(func() {
		global = &Metrics{
			ConversationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "deplodash",
				Name:      "conversations_created_total",
				Help:      "Total conversations created through the widget API",
			}),
			MessagesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "deplodash",
				Name:      "messages_created_total",
				Help:      "Total messages created, by sender type",
			}, []string{"sender_type"}),
			RealtimePublished: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "deplodash",
				Name:      "realtime_published_total",
				Help:      "Total realtime events published",
			}),
			BotReplies: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "deplodash",
				Name:      "bot_replies_total",
				Help:      "Total automatic bot replies sent",
			}),
			FAQHits: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "deplodash",
				Name:      "faq_hits_total",
				Help:      "Total FAQ matches by the auto responder",
			}),
		}
		prometheus.MustRegister(
			global.ConversationsCreated,
			global.MessagesCreated,
			global.RealtimePublished,
			global.BotReplies,
			global.FAQHits,
		)
	})
	return global
}
