package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	InvitesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "schooldash", Name: "invites_created_total", Help: "Invitations created",
	})
	InvitesAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "schooldash", Name: "invites_accepted_total", Help: "Invitations accepted and onboarded",
	})
	OnboardingFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "schooldash", Name: "onboarding_failures_total", Help: "Onboarding transactions rolled back",
	})
	EmailsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "schooldash", Name: "invite_emails_sent_total", Help: "Invite emails delivered",
	})
	EmailsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "schooldash", Name: "invite_emails_failed_total", Help: "Invite email deliveries failed",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "schooldash", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(InvitesCreated, InvitesAccepted, OnboardingFailures, EmailsSent, EmailsFailed, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
