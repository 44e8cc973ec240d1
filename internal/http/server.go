package http

import (
	"bytes"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"time"

	"finance/internal/core"
	applog "finance/internal/log"
	"finance/internal/middleware/ratelimit"
	"finance/internal/middleware/security"
	"finance/internal/middleware/trace"
	"finance/internal/services"
	appweb "finance/web"
)

type Server struct {
	http.Server
	templates *template.Template
	ledger    services.Handlers
	logger    *applog.Logger
	trace     *trace.Middleware
	detector  *security.Detector
	limiter   *ratelimit.Limiter
	started   time.Time
}

// Options tunes the middleware chain in front of the routes.
type Options struct {
	// Limiter throttles writes per client. Nil disables throttling.
	Limiter *ratelimit.Limiter
	// TrustedProxies lists CIDRs, beyond loopback and private ranges,
	// whose forwarding headers are believed.
	TrustedProxies []string
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, ledger services.Handlers, logger *applog.Logger, opts Options) *Server {
	if logger == nil {
		logger = applog.Default()
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	mux := http.NewServeMux()
	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy",
				applog.FieldComponent, applog.ComponentSecurity,
				applog.FieldError, err)
		}
	}
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:   ledger,
		logger:   logger,
		trace:    trace.NewMiddleware(detector.ExtractClientIP, logger),
		detector: detector,
		limiter:  opts.Limiter,
		started:  time.Now(),
	}

	t, err := parseTemplates()
	if err != nil {
		logger.Warn("Failed parsing templates",
			applog.FieldComponent, applog.ComponentTemplate,
			applog.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.HandleFunc("/records", s.handleCreateRecord)
	mux.HandleFunc("/records/delete", s.handleDeleteRecord)
	mux.HandleFunc("/records/import", s.handleImport)
	mux.HandleFunc("/records/export", s.handleExport)

	// UI partials
	mux.HandleFunc("/ui/records", s.handleRecordsPartial)
	mux.HandleFunc("/ui/sort", s.handleSort)
	mux.HandleFunc("/ui/stats", s.handleStatsPartial)

	var handler http.Handler = mux
	if s.limiter != nil {
		handler = s.limiter.Middleware(detector.ExtractClientIP, s.onRateLimited)(handler)
	}
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	handler = headers.Middleware(detector.Middleware(handler))
	s.Handler = s.trace.Middleware(handler)

	return s
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"sortHeader": newSortHeader,
		"deleteURL":  deleteURL,
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// deleteURL addresses the delete endpoint for one record.
func deleteURL(id string) string {
	return "/records/delete?" + url.Values{"id": {id}}.Encode()
}

// sortHeaderView drives one sortable column heading.
type sortHeaderView struct {
	Field    string
	Label    string
	Active   bool
	AriaSort string
	Arrow    string
}

func newSortHeader(st services.SortState, field, label string) sortHeaderView {
	v := sortHeaderView{Field: field, Label: label}
	if string(st.Field) != field {
		return v
	}
	v.Active = true
	if st.Dir == core.Descending {
		v.AriaSort, v.Arrow = "descending", "▼"
	} else {
		v.AriaSort, v.Arrow = "ascending", "▲"
	}
	return v
}

// render executes a named template into a buffer; nothing is written to w
// when execution fails.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded",
			applog.FieldPath, r.URL.Path,
			"error_type", applog.ErrorTypeConfiguration)
		InternalServerError(failureMessage(r.Context(), "Templates not loaded.")).Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			applog.FieldOperation, applog.OpRender,
			"template", name,
			applog.FieldError, err)
		InternalServerError(failureMessage(r.Context(), "Could not render page.")).Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(buf.String()).Write(w)
}
