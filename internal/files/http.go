package files

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Handler serves stored file contents at /files/{id}?token=..., validating
// the per-session token against the requested file.
type Handler struct {
	store  *Store
	signer *Signer
	log    zerolog.Logger
}

func NewHandler(store *Store, signer *Signer, log zerolog.Logger) *Handler {
	return &Handler{store: store, signer: signer, log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/files/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	claims, err := h.signer.Verify(r.URL.Query().Get("token"))
	if err != nil || claims.FileID != id {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	item, err := h.store.Get(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	data, err := h.store.ReadFile(item)
	if err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("file read failed")
		http.Error(w, "unavailable", http.StatusInternalServerError)
		return
	}

	if item.Mime != "" {
		w.Header().Set("Content-Type", item.Mime)
	}
	w.Write(data)
}
