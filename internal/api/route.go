package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/taskvault/taskvault/internal/metrics"
	"github.com/taskvault/taskvault/internal/service"
)

// Dependencies injected into the router; wired explicitly in main.
type Dependencies struct {
	Users          *service.UserService
	Tasks          *service.TaskService
	Guard          *AccessGuard
	Metrics        *metrics.Metrics
	ServiceName    string
	RequestTimeout time.Duration
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	timeout := dep.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	r.Use(middleware.Timeout(timeout))
	r.Use(otelchi.Middleware(dep.ServiceName, otelchi.WithChiRoutes(r)))
	if dep.Metrics != nil {
		r.Use(dep.Metrics.Middleware)
	}
	r.Use(cors)
	r.Use(accessLog)

	userCtrl := NewUserController(dep.Users)
	taskCtrl := NewTaskController(dep.Tasks)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("API WORKING"))
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if dep.Metrics != nil {
		r.Handle("/metrics", dep.Metrics.Handler())
	}

	r.Route("/api/user", func(r chi.Router) {
		// public
		r.Post("/register", userCtrl.register)
		r.Post("/login", userCtrl.login)

		// private, behind the access guard
		r.Group(func(r chi.Router) {
			r.Use(dep.Guard.Middleware)
			r.Get("/me", userCtrl.me)
			r.Put("/profile", userCtrl.updateProfile)
			r.Put("/password", userCtrl.updatePassword)
		})
	})

	r.Route("/api/tasks", func(r chi.Router) {
		r.Use(dep.Guard.Middleware)
		r.Get("/", taskCtrl.listTasks)
		r.Post("/", taskCtrl.createTask)
		r.Get("/{id}", taskCtrl.getTask)
		r.Put("/{id}", taskCtrl.updateTask)
		r.Delete("/{id}", taskCtrl.deleteTask)
	})

	return r
}
