package export

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	matchdomain "draughts_arena/internal/domain/match"
	"draughts_arena/internal/httpresponse"
)

// HistorySource is the read-side projection the exporter consumes. The
// exporter carries no business rules of its own.
type HistorySource interface {
	MoveHistory(ctx context.Context, matchID string) ([]matchdomain.MoveRecord, error)
}

type ExportHandler struct {
	log     *zap.SugaredLogger
	history HistorySource
}

func NewExportHandler(log *zap.SugaredLogger, history HistorySource) *ExportHandler {
	return &ExportHandler{
		log:     log,
		history: history,
	}
}

// HandleExport renders the move history of a match as a downloadable JSON
// document or a PDF table.
func (e *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "id")

	history, err := e.history.MoveHistory(r.Context(), matchID)
	if err != nil {
		e.log.Errorw("export failed", "match_id", matchID, "error", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusNotFound,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	switch r.URL.Query().Get("format") {
	case "pdf":
		e.writePDF(w, matchID, history)
	default:
		e.writeJSON(w, matchID, history)
	}
}

func (e *ExportHandler) writeJSON(w http.ResponseWriter, matchID string, history []matchdomain.MoveRecord) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-history.json", matchID))
	if err := json.NewEncoder(w).Encode(history); err != nil {
		e.log.Error("failed to encode history export: ", err)
	}
}

func (e *ExportHandler) writePDF(w http.ResponseWriter, matchID string, history []matchdomain.MoveRecord) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Courier", "B", 12)
	pdf.Cell(0, 10, "Move history of match "+matchID)
	pdf.Ln(12)

	pdf.SetFont("Courier", "B", 9)
	widths := []float64{12, 30, 22, 14, 14, 16, 20, 20, 40}
	headers := []string{"Seq", "Mover", "Color", "From", "To", "Piece", "Capture", "Promote", "Played at"}
	for i, hdr := range headers {
		pdf.CellFormat(widths[i], 7, hdr, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Courier", "", 9)
	for _, rec := range history {
		mover := rec.PlayerID
		if mover == "" {
			mover = "AI"
		} else if len(mover) > 12 {
			mover = mover[:12]
		}
		row := []string{
			fmt.Sprintf("%d", rec.Seq),
			mover,
			rec.Color,
			rec.From,
			rec.To,
			rec.Piece,
			yesNo(rec.Captured),
			yesNo(rec.Promoted),
			rec.CreatedAt.Format("2006-01-02 15:04"),
		}
		for i, cell := range row {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-history.pdf", matchID))
	if err := pdf.Output(w); err != nil {
		e.log.Error("failed to render history pdf: ", err)
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
