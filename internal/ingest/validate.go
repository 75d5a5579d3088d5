package ingest

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/review-audit/internal/model"
)

// Validate rejects review records with missing or malformed required
// fields. A missing stars value with present text must not invent a
// rating; the whole record is rejected.
func Validate(r model.Review) error {
	if r.ReviewID == "" {
		return eris.New("ingest: missing review_id")
	}
	if strings.TrimSpace(r.Text) == "" {
		return eris.Errorf("ingest: review %s has no text", r.ReviewID)
	}
	if r.Stars < 1 || r.Stars > 5 {
		return eris.Errorf("ingest: review %s has stars %d outside 1..5", r.ReviewID, r.Stars)
	}
	return nil
}
