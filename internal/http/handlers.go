package http

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fumo/internal/core"
	"fumo/internal/ledger"
	"fumo/internal/sheets"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := struct {
		Today          string
		DefaultUnits   int
		PaymentMethods []string
	}{
		Today:          time.Now().Format("2006-01-02"),
		DefaultUnits:   core.DefaultUnitsPerPack,
		PaymentMethods: []string{string(core.PaymentCash), string(core.PaymentCredit)},
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Formato richiesta non valido</div>`))
		return
	}

	form, msg := parseEntryForm(r)
	if msg != "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">` + template.HTMLEscapeString(msg) + `</div>`))
		return
	}

	e, err := s.svc.Add(r.Context(), form)
	if err != nil {
		slog.ErrorContext(r.Context(), "Entry append error", "error", err, "brand", form.Brand)
		writeStoreError(w, err)
		return
	}

	w.Header().Set("HX-Trigger", `{"entry:changed": {}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Registrato: ` +
		template.HTMLEscapeString(e.Brand) +
		` — ` + strconv.Itoa(e.Quantity) + ` sigarette, totale ` + formatEuros(e.TotalCost.Cents) +
		`, da saldare ` + formatEuros(e.Outstanding.Cents) + `</div>`))
}

func (s *Server) handleSearchEntries(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	keyword := strings.TrimSpace(r.URL.Query().Get("q"))
	matches, err := s.svc.Find(r.Context(), keyword)
	if err != nil {
		slog.ErrorContext(r.Context(), "Entry search error", "error", err, "keyword", keyword)
		status, _ := storeErrorStatus(err)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`<div class="error">Errore durante la ricerca</div>`))
		return
	}

	type row struct {
		Row           int
		Date          string
		Brand         string
		Quantity      int
		UnitsPerPack  int
		PricePerPack  string
		TotalCost     string
		PaymentMethod string
		AmountPaid    string
		// AmountPaidValue is the raw decimal for the edit form input, so a
		// resubmitted row keeps its recorded payment.
		AmountPaidValue string
		Outstanding     string
		Vendor        string
		Notes         string
	}
	data := struct {
		Keyword string
		Rows    []row
	}{Keyword: keyword}
	for _, m := range matches {
		data.Rows = append(data.Rows, row{
			Row:             m.Row,
			Date:            m.Entry.Date.String(),
			Brand:           m.Entry.Brand,
			Quantity:        m.Entry.Quantity,
			UnitsPerPack:    m.Entry.UnitsPerPack,
			PricePerPack:    m.Entry.PricePerPack.String(),
			TotalCost:       formatEuros(m.Entry.TotalCost.Cents),
			PaymentMethod:   string(m.Entry.PaymentMethod),
			AmountPaid:      formatEuros(m.Entry.AmountPaid.Cents),
			AmountPaidValue: m.Entry.AmountPaid.String(),
			Outstanding:     formatEuros(m.Entry.Outstanding.Cents),
			Vendor:          m.Entry.Vendor,
			Notes:           m.Entry.Notes,
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<div class="placeholder">Risultati: ` + strconv.Itoa(len(data.Rows)) + `</div>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "entries.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "entries.html")
		_, _ = w.Write([]byte(`<div class="error">Errore rendering risultati</div>`))
	}
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Formato richiesta non valido</div>`))
		return
	}

	row, err := strconv.Atoi(strings.TrimSpace(r.Form.Get("row")))
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Riga non valida</div>`))
		return
	}

	form, msg := parseEntryForm(r)
	if msg != "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">` + template.HTMLEscapeString(msg) + `</div>`))
		return
	}

	e, err := s.svc.Update(r.Context(), row, form)
	if err != nil {
		slog.ErrorContext(r.Context(), "Entry update error", "error", err, "row", row)
		writeStoreError(w, err)
		return
	}

	w.Header().Set("HX-Trigger", `{"entry:changed": {}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Riga ` + strconv.Itoa(row) + ` aggiornata: ` +
		template.HTMLEscapeString(e.Brand) + `, totale ` + formatEuros(e.TotalCost.Cents) + `</div>`))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Formato richiesta non valido</div>`))
		return
	}

	row, err := strconv.Atoi(strings.TrimSpace(r.Form.Get("row")))
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Riga non valida</div>`))
		return
	}

	if err := s.svc.Delete(r.Context(), row); err != nil {
		slog.ErrorContext(r.Context(), "Entry delete error", "error", err, "row", row)
		writeStoreError(w, err)
		return
	}

	w.Header().Set("HX-Trigger", `{"entry:changed": {}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Riga ` + strconv.Itoa(row) + ` eliminata</div>`))
}

// handleAnalytics renders the aggregate charts partial.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	items, err := s.svc.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Analytics list error", "error", err)
		status, _ := storeErrorStatus(err)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`<section id="analytics" class="analytics"><div class="placeholder">Errore caricando i dati</div></section>`))
		return
	}

	byDate := core.DailyTotals(items)
	byBrand := core.QuantityByBrand(items)

	type dateRow struct {
		Date     string
		Quantity int
		Spend    string
		Width    int
	}
	type brandRow struct {
		Brand    string
		Quantity int
		Width    int
	}
	data := struct {
		TotalEntries int
		TotalSpend   string
		ByDate       []dateRow
		ByBrand      []brandRow
	}{TotalEntries: len(items)}

	var totalCents int64
	var maxSpend int64
	for _, d := range byDate {
		totalCents += d.Spend.Cents
		if d.Spend.Cents > maxSpend {
			maxSpend = d.Spend.Cents
		}
	}
	data.TotalSpend = formatEuros(totalCents)

	for _, d := range byDate {
		data.ByDate = append(data.ByDate, dateRow{
			Date:     d.Date.String(),
			Quantity: d.Quantity,
			Spend:    formatEuros(d.Spend.Cents),
			Width:    barWidth(d.Spend.Cents, maxSpend),
		})
	}

	var maxQty int64
	for _, b := range byBrand {
		if int64(b.Quantity) > maxQty {
			maxQty = int64(b.Quantity)
		}
	}
	for _, b := range byBrand {
		data.ByBrand = append(data.ByBrand, brandRow{
			Brand:    b.Brand,
			Quantity: b.Quantity,
			Width:    barWidth(int64(b.Quantity), maxQty),
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="analytics" class="analytics"><div class="placeholder">Totale: ` + data.TotalSpend + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "analytics.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "analytics.html")
		_, _ = w.Write([]byte(`<section id="analytics" class="analytics"><div class="placeholder">Errore rendering</div></section>`))
	}
}

// parseEntryForm reads and sanitizes entry fields from a posted form. A
// non-empty message describes the first invalid field.
func parseEntryForm(r *http.Request) (ledger.EntryForm, string) {
	var form ledger.EntryForm

	dateStr := strings.TrimSpace(r.Form.Get("date"))
	if dateStr == "" {
		dateStr = time.Now().Format("2006-01-02")
	}
	d, err := core.ParseDate(dateStr)
	if err != nil {
		return form, "Data non valida"
	}
	form.Date = d

	form.Brand = sanitizeInput(r.Form.Get("brand"))
	if form.Brand == "" {
		return form, "Marca mancante"
	}

	qty, err := strconv.Atoi(strings.TrimSpace(r.Form.Get("quantity")))
	if err != nil || qty <= 0 {
		return form, "Quantità non valida"
	}
	form.Quantity = qty

	if v := strings.TrimSpace(r.Form.Get("units_per_pack")); v != "" {
		units, err := strconv.Atoi(v)
		if err != nil || units <= 0 {
			return form, "Sigarette per pacchetto non valide"
		}
		form.UnitsPerPack = units
	}

	price, err := core.ParseDecimalToCents(strings.TrimSpace(r.Form.Get("price_per_pack")))
	if err != nil {
		return form, "Prezzo non valido"
	}
	form.PricePerPack = core.Money{Cents: price}

	if v := strings.TrimSpace(r.Form.Get("amount_paid")); v != "" {
		paid, err := core.ParseDecimalToCents(v)
		if err != nil {
			return form, "Importo pagato non valido"
		}
		form.AmountPaid = core.Money{Cents: paid}
	}

	if v := sanitizeInput(r.Form.Get("payment_method")); v != "" {
		pm := core.PaymentMethod(v)
		if err := pm.Validate(); err != nil {
			return form, "Metodo di pagamento non valido"
		}
		form.PaymentMethod = pm
	}

	form.Vendor = sanitizeInput(r.Form.Get("vendor"))
	form.Notes = sanitizeInput(r.Form.Get("notes"))

	return form, ""
}

// writeStoreError maps typed store failures to a status code and message.
// A partial replace gets its own message: the original row is already gone
// and the user must check the sheet by hand.
func writeStoreError(w http.ResponseWriter, err error) {
	status, msg := storeErrorStatus(err)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`<div class="error">` + template.HTMLEscapeString(msg) + `</div>`))
}

func storeErrorStatus(err error) (int, string) {
	var partial *sheets.PartialReplaceError

	status := http.StatusInternalServerError
	msg := "Errore nel salvataggio"

	switch {
	case errors.As(err, &partial):
		status = http.StatusInternalServerError
		msg = "Aggiornamento incompleto sulla riga " + strconv.Itoa(partial.Row) +
			": la riga originale potrebbe essere andata persa, verificare il foglio"
	case errors.Is(err, sheets.ErrProtectedRow):
		status = http.StatusUnprocessableEntity
		msg = "La riga di intestazione non può essere modificata"
	case errors.Is(err, sheets.ErrNotFound):
		status = http.StatusNotFound
		msg = "Riga non trovata"
	case errors.Is(err, sheets.ErrAuth), errors.Is(err, sheets.ErrPermissionDenied):
		status = http.StatusBadGateway
		msg = "Accesso al foglio negato, verificare le credenziali"
	case errors.Is(err, sheets.ErrStoreNotFound):
		status = http.StatusBadGateway
		msg = "Foglio di calcolo non trovato"
	case errors.Is(err, sheets.ErrRateLimited):
		status = http.StatusServiceUnavailable
		msg = "Troppe richieste verso il foglio, riprovare tra poco"
	case errors.Is(err, sheets.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
		msg = "Foglio momentaneamente non disponibile, riprovare"
	case errors.Is(err, core.ErrInvalidArgument):
		status = http.StatusUnprocessableEntity
		msg = "Dati non validi"
	}

	return status, msg
}
