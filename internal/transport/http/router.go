package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"quiz-link-service/internal/app"
)

// Handler wires the quiz use cases into the REST + websocket surface.
type Handler struct {
	service     *app.QuizService
	log         *zap.Logger
	baseURL     string
	plans       map[string]int
	defaultPlan string
}

func NewHandler(service *app.QuizService, log *zap.Logger, baseURL string, plans map[string]int, defaultPlan string) *Handler {
	return &Handler{
		service:     service,
		log:         log,
		baseURL:     baseURL,
		plans:       plans,
		defaultPlan: defaultPlan,
	}
}

// Routes builds the router. Origins come from config; an empty list allows
// any origin, matching how the service has historically been deployed behind
// a separate SPA host.
func (h *Handler) Routes(allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Owner-ID", "X-Owner-Plan"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/quiz/link/{token}", h.fetchByLink)
		r.Post("/quiz/link/{token}/submit", h.submitViaLink)
		r.Post("/quiz/submit", h.submitDirect)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/links", h.createLink)
			r.Get("/links/{token}/usage", h.linkUsage)
			r.Get("/links/{token}/watch", h.watchLink)
			r.Get("/quizzes", h.quizAggregates)
			r.Get("/quizzes/{quizID}/submissions", h.listSubmissions)
			r.Get("/submissions/{id}", h.getSubmission)
		})
	})
	return r
}
