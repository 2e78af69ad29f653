package public

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/sngm3741/product-page/internal/interfaces/http/common"
)

// moreHeader tells script clients whether the load-more control stays visible.
const moreHeader = "X-More-Available"

func setMoreHeader(w http.ResponseWriter, more bool) {
	w.Header().Set(moreHeader, strconv.FormatBool(more))
}

// isFragmentRequest reports whether the page script asked for a fragment
// swap rather than a full navigation.
func isFragmentRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func (h *Handler) visitorFailed(w http.ResponseWriter, err error) {
	h.logger.Error("visitor session failed", zap.Error(err))
	common.WriteError(h.logger, w, http.StatusInternalServerError, "visitor session unavailable")
}

func (h *Handler) renderFailed(name string, err error) {
	if err != nil {
		h.logger.Error("render failed", zap.String("template", name), zap.Error(err))
	}
}
