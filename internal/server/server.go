// Package server exposes a service.Service over a JSON HTTP API.
//
// Statement endpoints (/query, /batch, .../rows) always answer 200 and
// report failures inside the result envelope. Every other endpoint maps
// error kinds to HTTP status codes.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/export"
	"github.com/koustreak/dbdesk/internal/logger"
	"github.com/koustreak/dbdesk/internal/service"
)

// maxBody caps request bodies; batch scripts are the largest payloads.
const maxBody = 8 << 20

// Backend is the subset of *service.Service the API drives.
type Backend interface {
	Connect(ctx context.Context, cfg database.ConnectionConfig) error
	Disconnect()
	Status() service.Status
	TestConnection(ctx context.Context, cfg database.ConnectionConfig) bool

	ListDatabases(ctx context.Context) ([]string, error)
	ListTables(ctx context.Context, db string) ([]service.TableInfo, error)
	ListColumns(ctx context.Context, db, table string) ([]service.ColumnInfo, error)
	GetCreateStatement(ctx context.Context, db, table string) (string, error)

	Execute(ctx context.Context, sql string) service.QueryResult
	GetPageData(ctx context.Context, req service.PageRequest) service.QueryResult
	ExecuteBatch(ctx context.Context, statements []string) []service.QueryResult

	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

var _ Backend = (*service.Service)(nil)

// Exporter publishes result rows as a downloadable file.
type Exporter interface {
	Export(ctx context.Context, key string, format export.Format, columns []string, rows []database.Row) (*export.Result, error)
}

// Options configures a Server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       *logger.Logger

	// Exporter enables POST /export. Nil disables it.
	Exporter Exporter
}

// Server is the HTTP front end of one Backend.
type Server struct {
	backend  Backend
	exporter Exporter
	log      *logger.Logger
	http     *http.Server
}

// New builds a Server; call ListenAndServe to start it.
func New(backend Backend, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		backend:  backend,
		exporter: opts.Exporter,
		log:      log.With().Str("component", "http").Logger(),
	}
	s.http = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Routes returns the router with every endpoint mounted.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.log))

	r.Post("/connect", s.handleConnect)
	r.Post("/disconnect", s.handleDisconnect)
	r.Get("/status", s.handleStatus)
	r.Post("/connections/test", s.handleTestConnection)

	r.Route("/databases", func(r chi.Router) {
		r.Get("/", s.handleListDatabases)
		r.Route("/{db}/tables", func(r chi.Router) {
			r.Get("/", s.handleListTables)
			r.Get("/{table}/columns", s.handleListColumns)
			r.Get("/{table}/ddl", s.handleDDL)
			r.Get("/{table}/rows", s.handleRows)
		})
	})

	r.Post("/query", s.handleQuery)
	r.Post("/batch", s.handleBatch)

	r.Route("/tx", func(r chi.Router) {
		r.Post("/begin", s.handleBracket(s.backend.Begin))
		r.Post("/commit", s.handleBracket(s.backend.Commit))
		r.Post("/rollback", s.handleBracket(s.backend.Rollback))
	})

	r.Post("/export", s.handleExport)
	return r
}

// ListenAndServe blocks serving HTTP until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.log.InfoWith("http server listening", map[string]interface{}{"addr": s.http.Addr})
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
