package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/apperrors"
	"github.com/AnshRaj112/mindnest-backend/internal/middleware"
	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/internal/services"
	"github.com/go-chi/chi/v5"
)

// Entry is the JSON shape of a journal entry.
type Entry struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	IsPinned   bool      `json:"isPinned"`
	IsFavorite bool      `json:"isFavorite"`
}

type EntryResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Entry   Entry  `json:"entry"`
}

type EntriesResponse struct {
	Success bool    `json:"success"`
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

// JournalHandler serves /api/journal. Routes are mounted behind RequireAuth.
type JournalHandler struct {
	journal *services.JournalService
}

func NewJournalHandler(journal *services.JournalService) *JournalHandler {
	return &JournalHandler{journal: journal}
}

// List returns the caller's entries, optionally filtered with ?filter=pinned|favorites.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.OwnerID(r.Context())

	entries, err := h.journal.ListEntries(r.Context(), ownerID, r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeEntries(w, entries)
}

// Search matches ?query= against title, category and content.
func (h *JournalHandler) Search(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, r.URL.Query().Get("query"), false)
}

// SearchTitle matches ?q= against titles only.
func (h *JournalHandler) SearchTitle(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, r.URL.Query().Get("q"), true)
}

func (h *JournalHandler) search(w http.ResponseWriter, r *http.Request, query string, titleOnly bool) {
	ownerID, _ := middleware.OwnerID(r.Context())

	entries, err := h.journal.SearchEntries(r.Context(), ownerID, query, titleOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeEntries(w, entries)
}

func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.OwnerID(r.Context())

	var req services.EntryInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	entry, err := h.journal.CreateEntry(r.Context(), ownerID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, EntryResponse{Success: true, Message: "Entry created successfully", Entry: toEntry(entry)})
}

func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.OwnerID(r.Context())
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	entry, err := h.journal.GetEntry(r.Context(), ownerID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EntryResponse{Success: true, Entry: toEntry(entry)})
}

func (h *JournalHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.OwnerID(r.Context())
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	var req services.EntryInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	entry, err := h.journal.UpdateEntry(r.Context(), ownerID, id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EntryResponse{Success: true, Message: "Entry updated successfully", Entry: toEntry(entry)})
}

func (h *JournalHandler) TogglePin(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.journal.TogglePin)
}

func (h *JournalHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.journal.ToggleFavorite)
}

func (h *JournalHandler) toggle(w http.ResponseWriter, r *http.Request, fn func(context.Context, string, int64) (*models.JournalEntry, error)) {
	ownerID, _ := middleware.OwnerID(r.Context())
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	entry, err := fn(r.Context(), ownerID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EntryResponse{Success: true, Entry: toEntry(entry)})
}

func (h *JournalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := middleware.OwnerID(r.Context())
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	if err := h.journal.DeleteEntry(r.Context(), ownerID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Entry deleted successfully"})
}

// entryID parses the {id} URL parameter. Anything that is not a positive integer cannot name
// an entry, so it gets the same 404 as a missing one.
func entryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, apperrors.NotFound("journal entry not found"))
		return 0, false
	}
	return id, true
}

func writeEntries(w http.ResponseWriter, entries []models.JournalEntry) {
	out := make([]Entry, 0, len(entries))
	for i := range entries {
		out = append(out, toEntry(&entries[i]))
	}
	writeJSON(w, http.StatusOK, EntriesResponse{Success: true, Entries: out, Total: len(out)})
}

func toEntry(e *models.JournalEntry) Entry {
	return Entry{
		ID:         e.ID,
		Title:      e.Title,
		Category:   e.Category,
		Content:    e.Content,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
		IsPinned:   e.IsPinned,
		IsFavorite: e.IsFavorite,
	}
}
