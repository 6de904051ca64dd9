package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Project-Sylos/Tabula/internal/api/handlers"
	"github.com/Project-Sylos/Tabula/internal/logging"
	"github.com/Project-Sylos/Tabula/internal/metrics"
	"github.com/Project-Sylos/Tabula/sdk"
)

// requestTimeout bounds every API request except the event stream
const requestTimeout = 60 * time.Second

// Router represents the HTTP API router
type Router struct {
	ws *sdk.Tabula
}

// NewRouter creates a new API router
func NewRouter(ws *sdk.Tabula) *Router {
	return &Router{ws: ws}
}

// SetupRoutes configures all API routes using modular handlers
func (r *Router) SetupRoutes() *chi.Mux {
	router := chi.NewRouter()

	// Standard middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logging.Middleware)
	router.Use(metrics.Middleware)
	router.Use(middleware.Recoverer)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(r.ws)
	nodeHandler := handlers.NewNodeHandler(r.ws)
	editorHandler := handlers.NewEditorHandler(r.ws)
	importHandler := handlers.NewImportHandler(r.ws)
	systemHandler := handlers.NewSystemHandler(r.ws)
	eventsHandler := handlers.NewEventsHandler(r.ws)
	filesHandler := handlers.NewFilesHandler(r.ws, "/files")

	// Health check and metrics
	router.Get("/health", healthHandler.HealthCheck)
	router.Handle("/metrics", metrics.Handler())

	// Read-only browsing of the workspace as a file tree
	router.Handle("/files", filesHandler)
	router.Handle("/files/*", filesHandler)

	// API routes
	router.Route("/api/v1", func(api chi.Router) {
		// Long-lived, so outside the request timeout
		api.Get("/events", eventsHandler.Stream)

		api.Group(func(api chi.Router) {
			api.Use(middleware.Timeout(requestTimeout))

			api.Get("/tree", nodeHandler.GetTree)
			api.Get("/outline", nodeHandler.GetOutline)

			// Node operations
			api.Route("/nodes", func(nodes chi.Router) {
				nodes.Post("/file", nodeHandler.CreateFile)
				nodes.Post("/folder", nodeHandler.CreateFolder)
				nodes.Post("/move", nodeHandler.MoveNodes)
				nodes.Get("/{id}", nodeHandler.GetNode)
				nodes.Delete("/{id}", nodeHandler.DeleteNode)
				nodes.Put("/{id}/name", nodeHandler.RenameNode)
				nodes.Post("/{id}/duplicate", nodeHandler.DuplicateNode)
				nodes.Get("/{id}/content", nodeHandler.GetContent)
				nodes.Get("/{id}/download", nodeHandler.DownloadContent)
				nodes.Get("/{id}/attach", nodeHandler.AttachNode)
			})

			// Selection and grid editing
			api.Route("/selection", func(sel chi.Router) {
				sel.Get("/", editorHandler.GetSelection)
				sel.Post("/", editorHandler.Select)
				sel.Delete("/", editorHandler.ClearSelection)
				sel.Get("/attach", nodeHandler.AttachNode)
			})
			api.Route("/editor", func(ed chi.Router) {
				ed.Put("/cells", editorHandler.SetCell)
				ed.Post("/commands", editorHandler.ApplyCommand)
				ed.Post("/double-click", editorHandler.DoubleClick)
				ed.Put("/columns/{col}", editorHandler.RenameColumn)
			})

			// Imports
			api.Post("/import", importHandler.ImportCSV)
			api.Post("/import/url", importHandler.ImportURL)

			// System operations
			api.Post("/reset", systemHandler.Reset)
			api.Post("/seed", systemHandler.Seed)
			api.Get("/config", systemHandler.GetConfig)
			api.Put("/config/logging", systemHandler.SetLogLevel)
			api.Get("/stores", systemHandler.GetStores)
		})
	})

	return router
}
