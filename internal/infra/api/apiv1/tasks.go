package apiv1

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/usecase"
)

type sendRequest struct {
	TemplateID   string            `json:"template_id"`
	Variables    map[string]string `json:"variables"`
	Recipients   []string          `json:"recipients"`
	UseAllGroups bool              `json:"use_all_groups"`
	AccountID    string            `json:"account_id"`
}

type taskAccepted struct {
	TaskID  string           `json:"task_id"`
	Status  model.TaskStatus `json:"status"`
	Message string           `json:"message"`
}

type taskList struct {
	Tasks []*model.Task `json:"tasks"`
	Total int           `json:"total"`
}

func (s *Server) submitTask(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.tasks.Submit(r.Context(), usecase.SendRequest{
		AccountID:    req.AccountID,
		TemplateID:   req.TemplateID,
		Variables:    req.Variables,
		Recipients:   req.Recipients,
		UseAllGroups: req.UseAllGroups,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, taskAccepted{
		TaskID:  id,
		Status:  model.TaskStatusPending,
		Message: "message sending task queued",
	})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	tasks, err := s.tasks.List(r.Context(), model.TaskStatus(q.Get("status")), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []*model.Task{}
	}
	writeJSON(w, http.StatusOK, taskList{Tasks: tasks, Total: len(tasks)})
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.Get(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) cancelTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskID")
	if err := s.tasks.Cancel(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"task_id": id,
		"message": "cancellation requested",
	})
}

func (s *Server) taskOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := s.tasks.Overview(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}
