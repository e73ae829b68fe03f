package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics - счетчики ставок и аукционов. Nil-значение безопасно и ничего не пишет.
type Metrics struct {
	bidsPlaced   prometheus.Counter
	bidsRejected *prometheus.CounterVec
	bidsClosed   *prometheus.CounterVec
	auctions     *prometheus.CounterVec
	creditsSold  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		bidsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "conos_bids_placed_total",
			Help: "Bids placed successfully.",
		}),
		bidsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "conos_bids_rejected_total",
			Help: "Bids rejected by the eligibility check.",
		}, []string{"reason"}),
		bidsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "conos_bids_closed_total",
			Help: "Bids closed, by final status.",
		}, []string{"status"}),
		auctions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "conos_auctions_total",
			Help: "Auction runs, by outcome.",
		}, []string{"outcome"}),
		creditsSold: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "conos_credit_topups_total",
			Help: "Credit top-ups made by agents.",
		}),
	}
	reg.MustRegister(m.bidsPlaced, m.bidsRejected, m.bidsClosed, m.auctions, m.creditsSold)
	return m
}

func (m *Metrics) BidPlaced() {
	if m == nil || m.bidsPlaced == nil {
		return
	}
	m.bidsPlaced.Inc()
}

func (m *Metrics) BidRejected(reason string) {
	if m == nil || m.bidsRejected == nil {
		return
	}
	m.bidsRejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *Metrics) BidClosed(status string) {
	if m == nil || m.bidsClosed == nil {
		return
	}
	m.bidsClosed.WithLabelValues(normalizeLabel(status)).Inc()
}

// AuctionRun: outcome - "run" или "settled".
func (m *Metrics) AuctionRun(outcome string) {
	if m == nil || m.auctions == nil {
		return
	}
	m.auctions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *Metrics) CreditsSold() {
	if m == nil || m.creditsSold == nil {
		return
	}
	m.creditsSold.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
