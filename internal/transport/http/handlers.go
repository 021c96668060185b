package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"quiz-link-service/internal/domain"
)

// questionView is a student-safe question: the correct letter never appears
// in this shape.
type questionView struct {
	Number  int      `json:"questionNumber"`
	Text    string   `json:"questionText"`
	Options []string `json:"options"`
}

type fetchResponse struct {
	QuizID    string           `json:"quizId"`
	Questions []questionView   `json:"questions"`
	Usage     domain.LinkUsage `json:"usage"`
}

func (h *Handler) fetchByLink(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	key, usage, err := h.service.FetchByLink(r.Context(), token)
	if err != nil {
		writeDomainError(w, err, usage)
		return
	}

	questions := make([]questionView, 0, len(key.Questions))
	for _, q := range key.Questions {
		questions = append(questions, questionView{Number: q.Number, Text: q.Text, Options: q.Options})
	}
	writeJSON(w, http.StatusOK, fetchResponse{QuizID: key.QuizID, Questions: questions, Usage: usage})
}

type linkSubmitRequest struct {
	Name           string                 `json:"name"`
	Class          string                 `json:"class"`
	Section        string                 `json:"section"`
	Answers        []domain.StudentAnswer `json:"answers"`
	TotalTimeSpent string                 `json:"totalTimeSpent"`
}

type linkSubmitResponse struct {
	SubmissionID   string             `json:"submissionId"`
	Report         domain.GradeReport `json:"report"`
	RemainingSlots int                `json:"remainingSlots"`
	Recorded       bool               `json:"recorded"`
}

func (h *Handler) submitViaLink(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req linkSubmitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name is required"})
		return
	}

	student := domain.StudentIdentity{Name: req.Name, Class: req.Class, Section: req.Section}
	sub, usage, recorded, err := h.service.SubmitViaLink(r.Context(), token, student, req.Answers, req.TotalTimeSpent)
	if err != nil {
		writeDomainError(w, err, usage)
		return
	}

	writeJSON(w, http.StatusOK, linkSubmitResponse{
		SubmissionID:   sub.ID,
		Report:         sub.Report,
		RemainingSlots: usage.Remaining,
		Recorded:       recorded,
	})
}

type directSubmitRequest struct {
	StudentName    string                 `json:"studentName"`
	StudentEmail   string                 `json:"studentEmail"`
	QuizName       string                 `json:"quizName"`
	Answers        []domain.StudentAnswer `json:"answers"`
	TotalTimeSpent string                 `json:"totalTimeSpent"`
}

type directSubmitResponse struct {
	Message      string  `json:"message"`
	SubmissionID string  `json:"submissionId"`
	Score        float64 `json:"score"`
	Recorded     bool    `json:"recorded"`
}

func (h *Handler) submitDirect(w http.ResponseWriter, r *http.Request) {
	var req directSubmitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.StudentName) == "" || strings.TrimSpace(req.QuizName) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "studentName and quizName are required"})
		return
	}

	student := domain.StudentIdentity{Name: req.StudentName, Email: req.StudentEmail}
	sub, recorded, err := h.service.SubmitDirect(r.Context(), req.QuizName, r.Header.Get("X-Owner-ID"), student, req.Answers, req.TotalTimeSpent)
	if err != nil {
		writeDomainError(w, err, domain.LinkUsage{})
		return
	}

	writeJSON(w, http.StatusOK, directSubmitResponse{
		Message:      "submission received",
		SubmissionID: sub.ID,
		Score:        sub.Report.Percentage,
		Recorded:     recorded,
	})
}

type createLinkRequest struct {
	QuizID   string `json:"quizId"`
	Capacity int    `json:"capacity"`
}

type createLinkResponse struct {
	Token    string `json:"token"`
	URL      string `json:"url"`
	QuizID   string `json:"quizId"`
	Capacity int    `json:"capacity"`
}

func (h *Handler) createLink(w http.ResponseWriter, r *http.Request) {
	ownerID := r.Header.Get("X-Owner-ID")
	if ownerID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "X-Owner-ID header is required"})
		return
	}

	var req createLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	capacity := h.planCapacity(r.Header.Get("X-Owner-Plan"), req.Capacity)
	link, err := h.service.CreateLink(r.Context(), req.QuizID, ownerID, capacity)
	if err != nil {
		writeDomainError(w, err, domain.LinkUsage{})
		return
	}

	h.log.Info("admin created link",
		zap.String("owner", ownerID),
		zap.String("quiz", req.QuizID),
		zap.Int("capacity", capacity))
	writeJSON(w, http.StatusCreated, createLinkResponse{
		Token:    link.Token(),
		URL:      strings.TrimRight(h.baseURL, "/") + "/quiz/link/" + link.Token(),
		QuizID:   req.QuizID,
		Capacity: capacity,
	})
}

// planCapacity derives the effective seat count from the admin's plan: an
// unset request takes the plan maximum, and no request may exceed it.
func (h *Handler) planCapacity(plan string, requested int) int {
	if plan == "" {
		plan = h.defaultPlan
	}
	limit, ok := h.plans[plan]
	if !ok {
		limit = h.plans[h.defaultPlan]
	}
	if requested <= 0 || (limit > 0 && requested > limit) {
		return limit
	}
	return requested
}

func (h *Handler) linkUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.service.LinkUsage(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeDomainError(w, err, usage)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

func (h *Handler) quizAggregates(w http.ResponseWriter, r *http.Request) {
	aggs, err := h.service.QuizAggregates(r.Context(), r.Header.Get("X-Owner-ID"))
	if err != nil {
		writeDomainError(w, err, domain.LinkUsage{})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"quizzes": aggs})
}

func (h *Handler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 50)

	subs, err := h.service.Submissions(r.Context(), quizID, r.Header.Get("X-Owner-ID"), page, pageSize)
	if err != nil {
		writeDomainError(w, err, domain.LinkUsage{})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"quizId":      quizID,
		"page":        page,
		"pageSize":    pageSize,
		"submissions": subs,
	})
}

func (h *Handler) getSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.Submission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, domain.LinkUsage{})
		return
	}
	writeJSON(w, http.StatusOK, sub)
}
