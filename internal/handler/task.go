package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/zeromonos/internal/model"
)

// AssignTask handles POST /api/tasks
// Assigns a booking to an employee; a booking can carry only one task.
func (h *Handler) AssignTask(w http.ResponseWriter, r *http.Request) {
	var req model.AssignTaskRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	task, err := h.tasks.AssignTask(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// ListTasks handles GET /api/tasks[?status=]
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	var (
		tasks []model.WorkTask
		err   error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		tasks, err = h.tasks.GetTasksByStatus(r.Context(), status)
	} else {
		tasks, err = h.tasks.GetAllTasks(r.Context())
	}
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, emptyIfNil(tasks))
}

// GetTask handles GET /api/tasks/{id}
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// ListTasksByEmployee handles GET /api/tasks/employee/{id}
func (h *Handler) ListTasksByEmployee(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.GetTasksByEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(tasks))
}

// CompleteTask handles PUT /api/tasks/{id}/complete
// The body is optional and may carry the crew's notes.
func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	var req model.CompleteTaskRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	task, err := h.tasks.CompleteTask(r.Context(), chi.URLParam(r, "id"), req.Notes)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// UpdateTaskStatus handles PUT /api/tasks/{id}/status
func (h *Handler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateStatusRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	task, err := h.tasks.UpdateTaskStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/{id}
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
