package http

import (
	"net/http"
	"time"

	"finboard/internal/domain/category"
)

type CategoryHandler struct {
	categories *category.Service
}

func NewCategoryHandler(categories *category.Service) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// Request/Response DTOs

type CreateCustomCategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type UpdateCustomCategoryRequest struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

type CategoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

type customCategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

type categoryResponse struct {
	Message  string           `json:"message"`
	Category CategoryResponse `json:"category"`
}

func toCategoryResponse(c *category.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Color:     c.Color,
		CreatedAt: c.CreatedAt,
	}
}

// HandleListCategories returns the user's custom categories.
func (h *CategoryHandler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	categories, err := h.categories.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		response = append(response, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, customCategoriesResponse{Categories: response})
}

// HandleCreateCategory stores a custom category under its canonical name.
func (h *CategoryHandler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateCustomCategoryRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.categories.Create(r.Context(), category.CreateParams{
		UserID: userID,
		Name:   req.Name,
		Color:  req.Color,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryResponse{
		Message:  "Category created successfully",
		Category: toCategoryResponse(c),
	})
}

func (h *CategoryHandler) HandleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "category")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req UpdateCustomCategoryRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.categories.Update(r.Context(), userID, id, category.UpdateParams{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categoryResponse{
		Message:  "Category updated successfully",
		Category: toCategoryResponse(c),
	})
}

func (h *CategoryHandler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "category")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.categories.Delete(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Category deleted successfully"})
}
