package server

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/solsplash/service/faucet"
	"github.com/brojonat/solsplash/service/session"
	"github.com/brojonat/solsplash/service/solana"
)

//go:embed templates/*.html
var templatesFS embed.FS

// TemplateRenderer holds parsed HTML templates
type TemplateRenderer struct {
	templates *template.Template
	logger    *slog.Logger
}

// NewTemplateRenderer creates a new template renderer from embedded files
func NewTemplateRenderer(logger *slog.Logger) (*TemplateRenderer, error) {
	// Parse all templates from embedded filesystem
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &TemplateRenderer{
		templates: tmpl,
		logger:    logger,
	}, nil
}

var templateFuncs = template.FuncMap{
	"shortAddr":   solana.ShortAddress,
	"explorerURL": solana.ExplorerURL,
	"formatTime": func(unix int64) string {
		return time.Unix(unix, 0).Local().Format("Jan 2, 2006 3:04:05 PM")
	},
}

// Render renders a template with the given data
func (tr *TemplateRenderer) Render(w http.ResponseWriter, name string, data interface{}) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tr.templates.ExecuteTemplate(w, name, data)
}

// pageData is the model every page template receives.
type pageData struct {
	Route     string
	Session   session.State
	Airdrop   faucet.AirdropView
	Transfer  faucet.TransferView
	History   faucet.HistoryView
	Signature faucet.SignatureView
}

// pageHandlers serves the HTML pages. Form posts redirect back to their page,
// which then renders the flow's status banner.
type pageHandlers struct {
	renderer *TemplateRenderer
	session  *session.Session
	flows    Flows
	logger   *slog.Logger
}

func (p *pageHandlers) render(w http.ResponseWriter, name string, data pageData) {
	data.Session = p.session.State()
	if err := p.renderer.Render(w, name, data); err != nil {
		p.logger.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func (p *pageHandlers) home() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.render(w, "home.html", pageData{Route: "home"})
	})
}

func (p *pageHandlers) airdrop() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Quick amount links fill the input without submitting.
		if amount := r.URL.Query().Get("amount"); amount != "" {
			p.flows.Airdrop.SetAmount(amount)
		}
		p.render(w, "airdrop.html", pageData{Route: "airdrop", Airdrop: p.flows.Airdrop.View()})
	})
}

func (p *pageHandlers) submitAirdrop() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := p.flows.Airdrop.Request(r.Context(), r.FormValue("amount")); err != nil {
			p.logger.DebugContext(r.Context(), "airdrop form failed", "error", err)
		}
		redirect(w, r, "/airdrop")
	})
}

func (p *pageHandlers) transactions() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := p.flows.History.EnsureLoaded(r.Context()); err != nil {
			p.logger.WarnContext(r.Context(), "failed to load history", "error", err)
		}

		// Quick amount links keep the recipient already typed.
		if amount := r.URL.Query().Get("amount"); amount != "" {
			draft := p.flows.Transfer.View().Draft
			draft.Amount = amount
			p.flows.Transfer.SetDraft(draft)
		}

		p.render(w, "txns.html", pageData{
			Route:    "txns",
			Transfer: p.flows.Transfer.View(),
			History:  p.flows.History.View(),
		})
	})
}

func (p *pageHandlers) submitTransfer() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		draft := faucet.TransferDraft{
			Recipient: r.FormValue("recipient"),
			Amount:    r.FormValue("amount"),
		}
		if _, err := p.flows.Transfer.Submit(r.Context(), draft); err != nil {
			p.logger.DebugContext(r.Context(), "transfer form failed", "error", err)
		}
		redirect(w, r, "/txns")
	})
}

func (p *pageHandlers) refreshTransactions() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := p.flows.History.Refresh(r.Context()); err != nil {
			p.logger.DebugContext(r.Context(), "history refresh failed", "error", err)
		}
		redirect(w, r, "/txns")
	})
}

func (p *pageHandlers) signature() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if msg := r.URL.Query().Get("message"); msg != "" {
			p.flows.Signer.SetMessage(msg)
		}
		p.render(w, "signature.html", pageData{Route: "signature", Signature: p.flows.Signer.View()})
	})
}

func (p *pageHandlers) signMessage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := p.flows.Signer.Sign(r.Context(), r.FormValue("message"), r.FormValue("encoding")); err != nil {
			p.logger.DebugContext(r.Context(), "sign form failed", "error", err)
		}
		redirect(w, r, "/signature")
	})
}

func (p *pageHandlers) clearSignature() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.flows.Signer.Clear()
		redirect(w, r, "/signature")
	})
}

func (p *pageHandlers) connect() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := p.session.Connect(r.Context()); err != nil {
			p.logger.ErrorContext(r.Context(), "failed to connect wallet", "error", err)
		} else if _, err := p.session.RefreshBalance(r.Context()); err != nil {
			p.logger.WarnContext(r.Context(), "failed to fetch balance after connect", "error", err)
		}
		redirect(w, r, returnPath(r))
	})
}

func (p *pageHandlers) disconnect() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := p.session.Disconnect(r.Context()); err != nil {
			p.logger.ErrorContext(r.Context(), "failed to disconnect wallet", "error", err)
		}
		redirect(w, r, returnPath(r))
	})
}

// returnPath is the local page a navbar form came from.
func returnPath(r *http.Request) string {
	switch next := r.FormValue("next"); next {
	case "/", "/airdrop", "/txns", "/signature":
		return next
	default:
		return "/"
	}
}
