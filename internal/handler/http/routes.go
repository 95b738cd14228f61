package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Post("/api/auth/login", h.authenticate)
		r.Post("/api/auth/login/password", h.passwordLogin)
		r.Post("/api/auth/login/sms", h.smsLogin)
		r.Post("/api/auth/login/email", h.emailLogin)
		r.Post("/api/auth/login/wechat", h.wechatLogin)
		r.Post("/api/auth/login/wechat-mini", h.wechatMiniLogin)
		r.Post("/api/auth/refresh", h.refresh)
		r.Post("/api/auth/logout", h.logout)
		r.Get("/api/auth/verify", h.verify)

		r.Post("/api/otp/check", h.checkOtp)
		r.Post("/api/otp/request", h.requestOtp)

		r.Get("/api/version", h.getAppInfo)
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.metrics, promhttp.HandlerOpts{}))
	})

	// routes with authorization
	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Get("/api/auth/departments", h.getDepartments)
		r.Put("/api/auth/departments/current", h.setCurrentDepartment)

		r.Post("/api/otp/blacklist", h.blacklistOtpTarget)

		r.Post("/api/users", h.createUser)
		r.Get("/api/users", h.listUsers)
		r.Post("/api/users/validate-username", h.validateUsername)
		r.Patch("/api/users/{id}", h.updateUser)
		r.Delete("/api/users/{id}", h.deleteUser)
		r.Get("/api/users/{id}/sessions", h.getUserSessions)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
