package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/garnizeh/polls/internal/polls"
	"github.com/garnizeh/polls/pkg/models"
	"github.com/gorilla/mux"
)

// PollService is the subset of *polls.Service used by the handlers.
type PollService interface {
	ListPublished(ctx context.Context) ([]models.Question, error)
	ListQuestions(ctx context.Context) ([]models.Question, error)
	QuestionDetail(ctx context.Context, id int64) (*models.Question, error)
	Results(ctx context.Context, id int64) (*models.Question, error)
	CreateQuestion(ctx context.Context, text string, pubDate time.Time) (*models.Question, error)
	UpdateQuestionText(ctx context.Context, id int64, text string) error
	DeleteQuestion(ctx context.Context, id int64) error
	AddChoice(ctx context.Context, questionID int64, text string) (*models.Choice, error)
	DeleteChoice(ctx context.Context, choiceID int64) error
	CastVote(ctx context.Context, questionID, choiceID int64) (*models.Question, error)
	UpVote(ctx context.Context, choiceID int64) error
}

var _ PollService = (*polls.Service)(nil)

const (
	msgNoChoice      = "You didn't select a choice."
	msgUnknownChoice = "That choice does not exist."
)

type PollsHandler struct {
	svc PollService
	rd  *Renderer
}

func NewPollsHandler(svc PollService, rd *Renderer) *PollsHandler {
	return &PollsHandler{svc: svc, rd: rd}
}

// pathID reads a numeric mux variable; routes constrain it to digits so a
// failure here means overflow.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id, err == nil && id > 0
}

// formID parses an optional numeric form field. Missing or malformed values
// yield 0.
func formID(r *http.Request, name string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PostFormValue(name)), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// parsePubDate accepts the browser's datetime-local format or RFC3339. An
// empty value means "publish now".
func parsePubDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized publish date %q", v)
}

func (h *PollsHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, polls.ErrNotFound) {
		h.rd.renderError(w, r, http.StatusNotFound, "Not found.")
		return
	}
	logger.Error("request failed", slog.String("path", r.URL.Path), slog.Any("err", err))
	h.rd.renderError(w, r, http.StatusInternalServerError, "Something went wrong.")
}

// question loads a question regardless of publish state.
func (h *PollsHandler) question(w http.ResponseWriter, r *http.Request, name string) (*models.Question, bool) {
	id, ok := pathID(r, name)
	if !ok {
		h.rd.renderError(w, r, http.StatusNotFound, "Not found.")
		return nil, false
	}
	q, err := h.svc.Results(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return q, true
}

func (h *PollsHandler) Index(w http.ResponseWriter, r *http.Request) {
	qs, err := h.svc.ListPublished(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.rd.render(w, r, http.StatusOK, "index.html", page{Questions: qs})
}

func (h *PollsHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.rd.renderError(w, r, http.StatusNotFound, "Not found.")
		return
	}
	q, err := h.svc.QuestionDetail(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.rd.render(w, r, http.StatusOK, "detail.html", page{Question: q})
}

func (h *PollsHandler) Results(w http.ResponseWriter, r *http.Request) {
	q, ok := h.question(w, r, "id")
	if !ok {
		return
	}
	h.rd.render(w, r, http.StatusOK, "results.html", page{Question: q})
}

func (h *PollsHandler) Vote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.rd.renderError(w, r, http.StatusNotFound, "Not found.")
		return
	}

	_, err := h.svc.CastVote(r.Context(), id, formID(r, "choice"))
	switch {
	case err == nil:
		http.Redirect(w, r, "/"+strconv.FormatInt(id, 10)+"/results/", http.StatusFound)
	case errors.Is(err, polls.ErrInvalidSelection):
		q, derr := h.svc.QuestionDetail(r.Context(), id)
		if derr != nil {
			h.fail(w, r, derr)
			return
		}
		h.rd.render(w, r, http.StatusOK, "detail.html", page{Question: q, Error: msgNoChoice})
	default:
		h.fail(w, r, err)
	}
}

func (h *PollsHandler) UserInput(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.rd.render(w, r, http.StatusOK, "question_form.html", page{})
		return
	}

	pub, err := parsePubDate(r.PostFormValue("pub_date"))
	if err != nil {
		h.rd.render(w, r, http.StatusBadRequest, "question_form.html", page{Error: "Invalid publish date."})
		return
	}

	q, err := h.svc.CreateQuestion(r.Context(), r.PostFormValue("question"), pub)
	if err != nil {
		if errors.Is(err, polls.ErrInvalidInput) {
			h.rd.render(w, r, http.StatusBadRequest, "question_form.html", page{Error: "Question text is required."})
			return
		}
		h.fail(w, r, err)
		return
	}
	h.rd.render(w, r, http.StatusOK, "question_form.html", page{Message: "Question created: " + q.QuestionText})
}

func (h *PollsHandler) AddChoice(w http.ResponseWriter, r *http.Request) {
	q, ok := h.question(w, r, "question_id")
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		h.rd.render(w, r, http.StatusOK, "add_choice.html", page{Question: q})
		return
	}

	if _, err := h.svc.AddChoice(r.Context(), q.ID, r.PostFormValue("choice")); err != nil {
		if errors.Is(err, polls.ErrInvalidInput) {
			h.rd.render(w, r, http.StatusBadRequest, "add_choice.html", page{Question: q, Error: "Choice text is required."})
			return
		}
		h.fail(w, r, err)
		return
	}
	h.refresh(w, r, q.ID, "add_choice.html", "Choice added.")
}

func (h *PollsHandler) UpVote(w http.ResponseWriter, r *http.Request) {
	q, ok := h.question(w, r, "question_id")
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		h.rd.render(w, r, http.StatusOK, "up_vote.html", page{Question: q})
		return
	}

	if err := h.svc.UpVote(r.Context(), formID(r, "choice")); err != nil {
		if errors.Is(err, polls.ErrNotFound) {
			h.rd.render(w, r, http.StatusNotFound, "up_vote.html", page{Question: q, Error: msgUnknownChoice})
			return
		}
		h.fail(w, r, err)
		return
	}
	h.refresh(w, r, q.ID, "up_vote.html", "")
}

func (h *PollsHandler) QuestionUpdate(w http.ResponseWriter, r *http.Request) {
	q, ok := h.question(w, r, "question_id")
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		h.rd.render(w, r, http.StatusOK, "question_update.html", page{Question: q})
		return
	}

	if err := h.svc.UpdateQuestionText(r.Context(), q.ID, r.PostFormValue("qtext")); err != nil {
		if errors.Is(err, polls.ErrInvalidInput) {
			h.rd.render(w, r, http.StatusBadRequest, "question_update.html", page{Question: q, Error: "Question text is required."})
			return
		}
		h.fail(w, r, err)
		return
	}
	h.refresh(w, r, q.ID, "question_update.html", "Question updated.")
}

func (h *PollsHandler) DelChoice(w http.ResponseWriter, r *http.Request) {
	q, ok := h.question(w, r, "question_id")
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		h.rd.render(w, r, http.StatusOK, "del_choice.html", page{Question: q})
		return
	}

	if cid := formID(r, "choice"); cid > 0 {
		if err := h.svc.DeleteChoice(r.Context(), cid); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	h.refresh(w, r, q.ID, "del_choice.html", "Choice deleted.")
}

// refresh reloads the question after a write and re-renders the page.
func (h *PollsHandler) refresh(w http.ResponseWriter, r *http.Request, id int64, name, msg string) {
	q, err := h.svc.Results(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.rd.render(w, r, http.StatusOK, name, page{Question: q, Message: msg})
}

func (h *PollsHandler) Manage(w http.ResponseWriter, r *http.Request) {
	qs, err := h.svc.ListQuestions(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.rd.render(w, r, http.StatusOK, "manage.html", page{Questions: qs})
}

// Ajax handles the manage page's background requests. It acknowledges every
// request, including deletes of questions that no longer exist.
func (h *PollsHandler) Ajax(w http.ResponseWriter, r *http.Request) {
	if r.PostFormValue("request_type") == "delete_question" {
		if id := formID(r, "question"); id > 0 {
			if err := h.svc.DeleteQuestion(r.Context(), id); err != nil {
				logger.Error("ajax delete question", slog.Int64("question_id", id), slog.Any("err", err))
			}
		}
	}
	writeJSON(w, map[string]string{"status": "success"}, http.StatusOK)
}
