package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	scimfilter "github.com/nlstn/go-scimfilter"
	"github.com/nlstn/go-scimfilter/internal/observability"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	contentTypeSCIM    = "application/scim+json"
	listResponseSchema = "urn:ietf:params:scim:api:messages:2.0:ListResponse"
	userSchema         = "urn:ietf:params:scim:schemas:core:2.0:User"
)

// server answers /parse and /Users. It is safe for concurrent use.
type server struct {
	db      *gorm.DB
	schema  *scimfilter.Schema
	parsers map[parserKey]*scimfilter.Parser
	logger  *slog.Logger
}

type parserKey struct {
	mode    scimfilter.Mode
	version scimfilter.Version
}

// newServer builds one Parser per mode and version sharing opts.
func newServer(db *gorm.DB, schema *scimfilter.Schema, logger *slog.Logger, opts ...scimfilter.Option) *server {
	s := &server{
		db:      db,
		schema:  schema,
		parsers: make(map[parserKey]*scimfilter.Parser),
		logger:  logger,
	}
	for _, mode := range []scimfilter.Mode{scimfilter.ModeFilter, scimfilter.ModePath} {
		for _, version := range []scimfilter.Version{scimfilter.V1, scimfilter.V2} {
			parserOpts := append([]scimfilter.Option{
				scimfilter.WithMode(mode),
				scimfilter.WithVersion(version),
				scimfilter.WithLogger(logger),
			}, opts...)
			s.parsers[parserKey{mode, version}] = scimfilter.NewParser(parserOpts...)
		}
	}
	return s
}

// Handler returns the routed handler wrapped in the request ID, Server-Timing
// and OpenTelemetry middlewares.
func (s *server) Handler(obs *observability.Config) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /parse", s.handleParse)
	mux.HandleFunc("GET /Users", s.handleUsers)

	var h http.Handler = mux
	h = observability.HTTPMiddleware(obs)(h)
	h = observability.ServerTimingMiddleware(obs)(h)
	h = requestLogging(s.logger)(h)
	return h
}

func (s *server) handleParse(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	mode, err := scimfilter.ParseMode(query.Get("mode"))
	if err != nil {
		s.writeError(w, r, invalidValue(err))
		return
	}
	version, err := scimfilter.ParseVersion(query.Get("version"))
	if err != nil {
		s.writeError(w, r, invalidValue(err))
		return
	}

	filter, err := s.parse(r, query.Get("filter"), mode, version)
	if err != nil {
		scimType := scimfilter.ScimTypeInvalidFilter
		if mode == scimfilter.ModePath {
			scimType = scimfilter.ScimTypeInvalidPath
		}
		s.writeError(w, r, scimfilter.NewError(err, scimType))
		return
	}

	s.writeJSON(w, r, http.StatusOK, parseResult{Filter: filter.String(), Tree: filter.Dump()})
}

func (s *server) handleUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var filter scimfilter.Filter
	if text := r.URL.Query().Get("filter"); text != "" {
		var err error
		filter, err = s.parse(r, text, scimfilter.ModeFilter, scimfilter.V2)
		if err != nil {
			s.writeError(w, r, scimfilter.NewError(err, scimfilter.ScimTypeInvalidFilter))
			return
		}
	}

	var users []User
	err := s.db.WithContext(ctx).
		Scopes(scimfilter.Scope(filter, s.schema)).
		Preload("Emails").
		Order("user_name").
		Find(&users).Error
	if err != nil {
		s.writeError(w, r, scimfilter.NewError(err, scimfilter.ScimTypeInvalidFilter))
		return
	}

	trace.SpanFromContext(ctx).SetAttributes(
		observability.ResourceAttr("User"),
		observability.ResultCountAttr(int64(len(users))),
	)

	resources := make([]userResource, 0, len(users))
	for i := range users {
		resources = append(resources, newUserResource(&users[i]))
	}

	s.writeJSON(w, r, http.StatusOK, listResponse{
		Schemas:      []string{listResponseSchema},
		TotalResults: len(resources),
		StartIndex:   1,
		ItemsPerPage: len(resources),
		Resources:    resources,
	})
}

func (s *server) parse(r *http.Request, text string, mode scimfilter.Mode, version scimfilter.Version) (scimfilter.Filter, error) {
	timing := observability.StartServerTimingWithDesc(r.Context(), "parse", "Filter parse")
	defer timing.Stop()
	return s.parsers[parserKey{mode, version}].ParseContext(r.Context(), text)
}

func invalidValue(err error) *scimfilter.Error {
	return &scimfilter.Error{
		Status:   http.StatusBadRequest,
		ScimType: scimfilter.ScimTypeInvalidValue,
		Detail:   err.Error(),
		Err:      err,
	}
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, scimErr *scimfilter.Error) {
	logger := observability.LoggerWithTrace(r.Context(), requestLogger(r.Context(), s.logger))
	if scimErr.Status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", slog.String(observability.LogFieldError, scimErr.Detail))
		// Internal details stay in the log.
		scimErr = &scimfilter.Error{Status: scimErr.Status, Detail: http.StatusText(scimErr.Status), Err: scimErr.Err}
	} else {
		logger.InfoContext(r.Context(), "request rejected",
			slog.String("scim_type", string(scimErr.ScimType)),
			slog.String(observability.LogFieldError, scimErr.Detail))
	}
	s.writeJSON(w, r, scimErr.Status, scimErr)
}

// writeJSON reports the accumulated database time and writes body. The
// Server-Timing header is fixed once the status line is written.
func (s *server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	observability.ReportDBTime(r.Context())

	w.Header().Set("Content-Type", contentTypeSCIM)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		requestLogger(r.Context(), s.logger).WarnContext(r.Context(), "failed to write response", slog.String(observability.LogFieldError, err.Error()))
	}
}

type listResponse struct {
	Schemas      []string       `json:"schemas"`
	TotalResults int            `json:"totalResults"`
	StartIndex   int            `json:"startIndex"`
	ItemsPerPage int            `json:"itemsPerPage"`
	Resources    []userResource `json:"Resources"`
}

type userResource struct {
	Schemas     []string        `json:"schemas"`
	ID          string          `json:"id"`
	UserName    string          `json:"userName"`
	DisplayName string          `json:"displayName,omitempty"`
	Name        userName        `json:"name"`
	Title       string          `json:"title,omitempty"`
	UserType    string          `json:"userType,omitempty"`
	Active      bool            `json:"active"`
	Emails      []emailResource `json:"emails,omitempty"`
	Meta        meta            `json:"meta"`
}

type userName struct {
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
}

type emailResource struct {
	Value   string `json:"value"`
	Type    string `json:"type,omitempty"`
	Primary bool   `json:"primary,omitempty"`
}

type meta struct {
	ResourceType string `json:"resourceType"`
	Created      string `json:"created"`
	LastModified string `json:"lastModified"`
	Location     string `json:"location"`
}

func newUserResource(u *User) userResource {
	res := userResource{
		Schemas:     []string{userSchema},
		ID:          u.ID,
		UserName:    u.UserName,
		DisplayName: u.DisplayName,
		Name:        userName{GivenName: u.GivenName, FamilyName: u.FamilyName},
		UserType:    u.UserType,
		Active:      u.Active,
		Meta: meta{
			ResourceType: "User",
			Created:      u.CreatedAt.UTC().Format(time.RFC3339),
			LastModified: u.LastModified.UTC().Format(time.RFC3339),
			Location:     "/Users/" + u.ID,
		},
	}
	if u.Title != nil {
		res.Title = *u.Title
	}
	for _, e := range u.Emails {
		res.Emails = append(res.Emails, emailResource{Value: e.Value, Type: e.Type, Primary: e.Primary})
	}
	return res
}
