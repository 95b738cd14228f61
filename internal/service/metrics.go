package service

import "github.com/prometheus/client_golang/prometheus"

// Login results reported on loginsTotal.
const (
	resultSuccess  = "success"
	resultRejected = "rejected"
	resultError    = "error"
)

var (
	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by method and result.",
		},
		[]string{"method", "result"},
	)

	sessionsEvictedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_sessions_evicted_total",
			Help: "Sessions invalidated by single-session logins.",
		},
	)

	otpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_otp_requests_total",
			Help: "One-time code requests by result.",
		},
		[]string{"result"},
	)
)

// RegisterMetrics registers the engine collectors with reg.
// It should be called once at startup.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(loginsTotal, sessionsEvictedTotal, otpRequestsTotal)
}

func loginResult(err error) string {
	switch ErrorCode(err) {
	case CodeInfrastructure:
		return resultError
	default:
		return resultRejected
	}
}
