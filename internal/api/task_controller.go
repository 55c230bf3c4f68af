package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskvault/taskvault/internal/apperr"
	"github.com/taskvault/taskvault/internal/service"
)

type TaskController struct {
	tasks *service.TaskService
}

func NewTaskController(tasks *service.TaskService) *TaskController {
	return &TaskController{tasks: tasks}
}

func taskID(r *http.Request) string { return chi.URLParam(r, "id") }

func (tc *TaskController) createTask(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeErr(r.Context(), w, apperr.Auth("Not authorized, token missing."))
		return
	}
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Priority    string `json:"priority"`
		DueDate     string `json:"dueDate"`
		Completed   any    `json:"completed"` // bool, "Yes"/"true" or 1 at this boundary
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(r.Context(), w, apperr.Validation("Json Decode failed"))
		return
	}

	task, aerr := tc.tasks.Create(r.Context(), identity.ID, service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Completed:   req.Completed,
	})
	if aerr != nil {
		writeErr(r.Context(), w, aerr)
		return
	}
	writeOK(w, http.StatusCreated, "Task created successfully.", map[string]any{"task": task})
}

func (tc *TaskController) listTasks(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeErr(r.Context(), w, apperr.Auth("Not authorized, token missing."))
		return
	}
	list, aerr := tc.tasks.List(r.Context(), identity.ID)
	if aerr != nil {
		writeErr(r.Context(), w, aerr)
		return
	}
	writeOK(w, http.StatusOK, "", map[string]any{"tasks": list})
}

func (tc *TaskController) getTask(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeErr(r.Context(), w, apperr.Auth("Not authorized, token missing."))
		return
	}
	task, aerr := tc.tasks.Get(r.Context(), identity.ID, taskID(r))
	if aerr != nil {
		writeErr(r.Context(), w, aerr)
		return
	}
	writeOK(w, http.StatusOK, "Task fetched successfully.", map[string]any{"task": task})
}

func (tc *TaskController) updateTask(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeErr(r.Context(), w, apperr.Auth("Not authorized, token missing."))
		return
	}
	// decoded as a map so absent keys, explicit nulls and legacy completed
	// encodings all survive to the partial merge
	patch := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil && !errors.Is(err, io.EOF) {
		writeErr(r.Context(), w, apperr.Validation("Json Decode failed"))
		return
	}

	task, aerr := tc.tasks.Update(r.Context(), identity.ID, taskID(r), patch)
	if aerr != nil {
		writeErr(r.Context(), w, aerr)
		return
	}
	writeOK(w, http.StatusOK, "Task updated successfully.", map[string]any{"task": task})
}

func (tc *TaskController) deleteTask(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeErr(r.Context(), w, apperr.Auth("Not authorized, token missing."))
		return
	}
	if aerr := tc.tasks.Delete(r.Context(), identity.ID, taskID(r)); aerr != nil {
		writeErr(r.Context(), w, aerr)
		return
	}
	writeOK(w, http.StatusOK, "Task deleted successfully.", nil)
}
