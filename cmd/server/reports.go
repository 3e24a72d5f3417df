package main

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/CadeStocker/producepricer/internal/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// wantsXLSX reports whether the client asked for a spreadsheet via ?format=xlsx.
func wantsXLSX(r *http.Request) bool {
	return r.URL.Query().Get("format") == "xlsx"
}

func (s *server) handlePriceSheet(w http.ResponseWriter, r *http.Request) {
	rows, err := s.svc.PriceSheet(r.Context(), tenantFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !wantsXLSX(r) {
		writeJSON(w, http.StatusOK, map[string]any{
			"markup_tiers": s.svc.MarkupTiers(),
			"rows":         rows,
		})
		return
	}

	var buf bytes.Buffer
	if err := export.WritePriceSheet(&buf, rows, s.svc.MarkupTiers()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeXLSX(w, "price-sheet.xlsx", buf.Bytes())
}

func (s *server) handleRawPriceSheet(w http.ResponseWriter, r *http.Request) {
	rows, err := s.svc.RawPriceSheet(r.Context(), tenantFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !wantsXLSX(r) {
		writeJSON(w, http.StatusOK, rows)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteRawPriceSheet(&buf, rows); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeXLSX(w, "raw-price-sheet.xlsx", buf.Bytes())
}

func writeXLSX(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
