package www

import (
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/yonbergman/electric-planner/engine"
)

type Handlers struct {
	engine      *engine.Engine
	sessions    *sessions.CookieStore
	tmpls       map[string]*template.Template
	eventHub    *EventHub
	shareLimit  *clientLimiter
	authEnabled bool
	log         *zap.Logger
}

// NewRouter builds the HTTP surface for eng. The returned func stops the
// background workers the router owns.
func NewRouter(eng *engine.Engine, log *zap.Logger) (http.Handler, func()) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := eng.AppConfig()

	hub := NewEventHub(log.Named("sse"))
	hub.Start()
	hub.SetupEngineListeners(eng)

	// Each page is cloned from the layout so every page can define its own
	// "content" block.
	base := template.New("").Funcs(templateFuncs())
	base = template.Must(base.ParseFS(templateFS, "templates/layout.html", "templates/partials/*.html"))

	pages := []string{
		"templates/index.html",
		"templates/summary.html",
		"templates/share_error.html",
		"templates/login.html",
	}
	tmpls := make(map[string]*template.Template, len(pages))
	for _, p := range pages {
		clone := template.Must(base.Clone())
		clone = template.Must(clone.ParseFS(templateFS, p))
		tmpls[p[len("templates/"):]] = clone
	}

	h := &Handlers{
		engine:      eng,
		sessions:    newSessionStore(cfg.Web.SessionSecret),
		tmpls:       tmpls,
		eventHub:    hub,
		shareLimit:  newClientLimiter(cfg.Web.ShareRateLimit, log.Named("ratelimit")),
		authEnabled: cfg.Web.AuthEnabled,
		log:         log,
	}

	if h.authEnabled {
		h.ensureDefaultAdmin(eng.DB())
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Web.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler)

	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	r.Get("/events", hub.SSEHandler)

	// Public pages
	r.Get("/", h.handleIndex)
	r.Get("/summary", h.handleSummary)
	// Opening a share replaces the working plan.
	r.With(h.requireAuth).Get("/s/{id}", h.handleSharePage)
	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Get("/logout", h.handleLogout)

	// Read API
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.apiHealth)
		r.Get("/plan", h.apiPlan)
		r.Get("/export", h.apiExport)
		r.Get("/summary", h.apiSummary)
		r.Get("/focus", h.apiFocus)
		r.Get("/audit", h.apiAudit)
		r.Get("/rooms", h.apiListRooms)
		r.Get("/boxes", h.apiListBoxes)
		r.Get("/boxes/{id}/slots", h.apiBoxSlots)
		r.Get("/modules", h.apiListModules)
		r.Get("/items", h.apiListItems)
		r.Get("/floorplans", h.apiListFloorPlans)
		r.Get("/floorplans/{id}/positions", h.apiFloorPlanPositions)
		r.Get("/floorplans/{id}/polygons", h.apiFloorPlanPolygons)
		r.Get("/floorplans/{id}/hit", h.apiHitTest)
		r.Get("/floorplans/{id}/room", h.apiRoomAt)
		r.Get("/floorplans/{id}/wiring", h.apiWiring)

		// Share links are public so they can be created from any planner.
		r.Get("/share", h.apiFetchShare)
		r.Get("/share/fragment", h.apiExportFragment)
		r.Group(func(r chi.Router) {
			r.Use(h.shareLimit.Middleware)
			r.Post("/share", h.apiCreateShare)
			r.Put("/share", h.apiCreateShare)
		})

		// Mutations
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/import", h.apiImport)
			r.Post("/share/fragment", h.apiImportFragment)
			r.Put("/focus", h.apiSetFocus)
			r.Post("/admin/password", h.apiChangePassword)

			r.Post("/rooms", h.apiCreateRoom)
			r.Put("/rooms/{id}", h.apiUpdateRoom)
			r.Delete("/rooms/{id}", h.apiDeleteRoom)

			r.Post("/boxes", h.apiCreateBox)
			r.Put("/boxes/{id}", h.apiUpdateBox)
			r.Delete("/boxes/{id}", h.apiDeleteBox)

			r.Post("/modules", h.apiCreateModule)
			r.Put("/modules/{id}", h.apiUpdateModule)
			r.Put("/modules/{id}/item", h.apiAssignItem)
			r.Delete("/modules/{id}", h.apiDeleteModule)

			r.Post("/items", h.apiCreateItem)
			r.Put("/items/{id}", h.apiUpdateItem)
			r.Delete("/items/{id}", h.apiDeleteItem)

			r.Post("/floorplans", h.apiUploadFloorPlan)
			r.Put("/floorplans/{id}", h.apiRenameFloorPlan)
			r.Delete("/floorplans/{id}", h.apiDeleteFloorPlan)

			r.Post("/polygons", h.apiCreatePolygon)
			r.Delete("/polygons/{id}", h.apiDeletePolygon)

			r.Post("/positions", h.apiPlace)
			r.Put("/positions/{id}", h.apiMovePosition)
			r.Delete("/positions/{id}", h.apiRemovePosition)
		})
	})

	stopFn := func() {
		h.shareLimit.Stop()
		hub.Stop()
	}

	return r, stopFn
}

func (h *Handlers) render(w http.ResponseWriter, name string, data any) {
	h.renderStatus(w, http.StatusOK, name, data)
}

func (h *Handlers) renderStatus(w http.ResponseWriter, code int, name string, data any) {
	tmpl, ok := h.tmpls[name]
	if !ok {
		h.log.Error("template not found", zap.String("template", name))
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		h.log.Error("render", zap.String("template", name), zap.Error(err))
	}
}

func (h *Handlers) pageData(r *http.Request, page string) map[string]any {
	return map[string]any{
		"Page":          page,
		"AuthEnabled":   h.authEnabled,
		"Authenticated": h.isAuthenticated(r),
		"Username":      h.getUsername(r),
	}
}
