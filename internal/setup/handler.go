// ABOUTME: HTTP handler for the GET /setup page resolving short link ids.
// ABOUTME: Verifies the stored credential and renders the connect widget page.

package setup

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/2389/connect-gateway/internal/auth"
)

// pageTemplate renders a minimal document that hands the token info to the
// client-side connect widget via a JSON script tag.
var pageTemplate = template.Must(template.New("setup").Parse(`<!DOCTYPE html>
<html>
  <head>
    <title>Connect</title>
    <script src="{{.WidgetURL}}"></script>
    <script id="token-info" type="application/json">{{.TokenInfo}}</script>
    <script type="text/javascript" src="/static/js/index.js"></script>
  </head>
  <body>
  </body>
</html>
`))

type pageData struct {
	WidgetURL string
	TokenInfo template.JS
}

// tokenInfo is the payload consumed by the connect widget.
type tokenInfo struct {
	ProjectID       string `json:"projectId"`
	LoginToken      string `json:"loginToken"`
	IntegrationName string `json:"integrationName"`
}

// Handler serves the setup page for link ids minted by the Linker.
type Handler struct {
	credentials *auth.Service
	store       *TokenStore
	widgetURL   string
	logger      *slog.Logger
}

// NewHandler creates the /setup HTTP handler.
func NewHandler(credentials *auth.Service, store *TokenStore, widgetURL string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		credentials: credentials,
		store:       store,
		widgetURL:   widgetURL,
		logger:      logger,
	}
}

// ServeHTTP resolves the token id, verifies the underlying credential, and
// renders the connect page. Every failure yields the same generic 400 so
// the specific verification failure never leaks to the response.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("token")
	if id == "" {
		h.invalidToken(w, "missing token id")
		return
	}

	token, ok := h.store.Get(id)
	if !ok {
		h.invalidToken(w, "unknown token id")
		return
	}

	ident, err := h.credentials.Verify(token)
	if err != nil {
		h.invalidToken(w, "credential verification failed")
		return
	}

	info, err := json.Marshal(tokenInfo{
		ProjectID:       ident.ProjectID,
		LoginToken:      ident.LoginToken,
		IntegrationName: ident.IntegrationName,
	})
	if err != nil {
		h.invalidToken(w, "encoding token info")
		return
	}

	w.Header().Set("Content-Type", "text/html")
	if err := pageTemplate.Execute(w, pageData{
		WidgetURL: h.widgetURL,
		TokenInfo: template.JS(info),
	}); err != nil {
		h.logger.Error("rendering setup page", "error", err)
	}
}

// invalidToken writes the fixed 400 response. The reason is logged but
// never written to the body.
func (h *Handler) invalidToken(w http.ResponseWriter, reason string) {
	h.logger.Debug("rejecting setup request", "reason", reason)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write([]byte(`{"error":"Invalid token"}`))
}
