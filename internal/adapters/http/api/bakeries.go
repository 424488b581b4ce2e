package api

import (
	"net/http"

	"github.com/okian/bakery/internal/domain/model"
)

// BakeryHandler handles bakery requests.
type BakeryHandler struct {
	deps BakeryDependencies
}

// NewBakeryHandler creates a new bakery handler.
func NewBakeryHandler(deps BakeryDependencies) *BakeryHandler {
	return &BakeryHandler{deps: deps}
}

var bakeryTitles = errorTitles{
	invalid:  "Invalid bakery",
	notFound: "Bakery not found",
	failed:   "Failed to update bakery",
}

// HandlePatch handles PATCH /bakeries/{id} requests. An absent or empty name
// keeps the stored one.
func (h *BakeryHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid bakery id", err)
		return
	}

	var patch model.BakeryPatch
	if name := r.PostFormValue("name"); name != "" {
		patch.Name = &name
	}

	b, err := h.deps.UpdateBakery(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, err, bakeryTitles)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
