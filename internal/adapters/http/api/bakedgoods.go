package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// BakedGoodHandler handles baked good requests.
type BakedGoodHandler struct {
	deps BakedGoodDependencies
}

// NewBakedGoodHandler creates a new baked good handler.
func NewBakedGoodHandler(deps BakedGoodDependencies) *BakedGoodHandler {
	return &BakedGoodHandler{deps: deps}
}

var bakedGoodTitles = errorTitles{
	invalid:  "Invalid baked good",
	notFound: "Baked good not found",
}

// createBakedGoodRequest mirrors the form fields of POST /baked_goods.
type createBakedGoodRequest struct {
	Name  string
	Price string
}

func (r createBakedGoodRequest) validate() (float64, error) {
	if strings.TrimSpace(r.Name) == "" {
		return 0, fmt.Errorf("%w: name", ErrMissing)
	}
	raw := strings.TrimSpace(r.Price)
	if raw == "" {
		return 0, fmt.Errorf("%w: price", ErrMissing)
	}
	// Decimal notation only; ParseFloat would also take hex floats like 0x1p-2.
	if strings.ContainsAny(raw, "xX") {
		return 0, fmt.Errorf("%w: price %q is not a number", ErrBadRequest, raw)
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: price %q is not a number", ErrBadRequest, raw)
	}
	if price < 0 {
		return 0, fmt.Errorf("%w: price must not be negative", ErrBadRequest)
	}
	return price, nil
}

// bakedGoodResponse is the body returned after creation.
type bakedGoodResponse struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// HandleCreate handles POST /baked_goods requests.
func (h *BakedGoodHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req := createBakedGoodRequest{
		Name:  r.PostFormValue("name"),
		Price: r.PostFormValue("price"),
	}
	price, err := req.validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, bakedGoodTitles.invalid, err)
		return
	}

	g, err := h.deps.CreateBakedGood(r.Context(), req.Name, price)
	if err != nil {
		titles := bakedGoodTitles
		titles.failed = "Failed to create baked good"
		writeServiceError(w, err, titles)
		return
	}
	writeJSON(w, http.StatusCreated, bakedGoodResponse{ID: g.ID, Name: g.Name, Price: g.Price})
}

// HandleDelete handles DELETE /baked_goods/{id} requests.
func (h *BakedGoodHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid baked good id", err)
		return
	}

	if err := h.deps.DeleteBakedGood(r.Context(), id); err != nil {
		titles := bakedGoodTitles
		titles.failed = "Failed to delete baked good"
		writeServiceError(w, err, titles)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Baked good deleted successfully"})
}
