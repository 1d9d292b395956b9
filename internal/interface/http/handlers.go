package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/course-hub/course-market-hub/internal/application/command"
	"github.com/course-hub/course-market-hub/internal/application/query"
	"github.com/course-hub/course-market-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// API HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// Handler bundles the application command and query handlers behind HTTP.
type Handler struct {
	registerStudent      *command.RegisterStudentHandler
	creditBalance        *command.CreditBalanceHandler
	purchaseCourse       *command.PurchaseCourseHandler
	createCourse         *command.CreateCourseHandler
	setAvailability      *command.SetAvailabilityHandler
	createLesson         *command.CreateLessonHandler
	listAvailableCourses *query.ListAvailableCoursesHandler
	listCourses          *query.ListCoursesHandler
	getCourse            *query.GetCourseHandler
	getBalance           *query.GetBalanceHandler
	listGroups           *query.ListGroupsHandler
	getMembership        *query.GetMembershipHandler
	log                  *zap.Logger
}

// HandlerDeps lists the application handlers the API depends on.
type HandlerDeps struct {
	RegisterStudent      *command.RegisterStudentHandler
	CreditBalance        *command.CreditBalanceHandler
	PurchaseCourse       *command.PurchaseCourseHandler
	CreateCourse         *command.CreateCourseHandler
	SetAvailability      *command.SetAvailabilityHandler
	CreateLesson         *command.CreateLessonHandler
	ListAvailableCourses *query.ListAvailableCoursesHandler
	ListCourses          *query.ListCoursesHandler
	GetCourse            *query.GetCourseHandler
	GetBalance           *query.GetBalanceHandler
	ListGroups           *query.ListGroupsHandler
	GetMembership        *query.GetMembershipHandler
}

// NewHandler creates the API handler.
func NewHandler(deps HandlerDeps, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		registerStudent:      deps.RegisterStudent,
		creditBalance:        deps.CreditBalance,
		purchaseCourse:       deps.PurchaseCourse,
		createCourse:         deps.CreateCourse,
		setAvailability:      deps.SetAvailability,
		createLesson:         deps.CreateLesson,
		listAvailableCourses: deps.ListAvailableCourses,
		listCourses:          deps.ListCourses,
		getCourse:            deps.GetCourse,
		getBalance:           deps.GetBalance,
		listGroups:           deps.ListGroups,
		getMembership:        deps.GetMembership,
		log:                  log,
	}
}

// Health responds to liveness probes.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ──────────────────────────────────────────────────────────────────────────────
// Students
// ──────────────────────────────────────────────────────────────────────────────

type registerStudentRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// RegisterStudent handles POST /api/v1/students.
func (h *Handler) RegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req registerStudentRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.registerStudent.Handle(r.Context(), command.RegisterStudentCommand{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"student_id":       result.StudentID,
		"email":            result.Email,
		"starting_bonuses": result.StartingBonuses,
	})
}

// GetBalance handles GET /api/v1/students/{studentID}/balance.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	result, err := h.getBalance.Handle(r.Context(), query.GetBalanceQuery{
		StudentID: chi.URLParam(r, "studentID"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type creditBalanceRequest struct {
	Amount int `json:"amount"`
}

// CreditBalance handles POST /api/v1/students/{studentID}/balance/credit.
func (h *Handler) CreditBalance(w http.ResponseWriter, r *http.Request) {
	var req creditBalanceRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.creditBalance.Handle(r.Context(), command.CreditBalanceCommand{
		StudentID: chi.URLParam(r, "studentID"),
		Amount:    req.Amount,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"student_id": result.StudentID,
		"bonuses":    result.NewTotal,
	})
}

// ListAvailableCourses handles GET /api/v1/students/{studentID}/courses/available.
func (h *Handler) ListAvailableCourses(w http.ResponseWriter, r *http.Request) {
	result, err := h.listAvailableCourses.Handle(r.Context(), query.ListAvailableCoursesQuery{
		StudentID: chi.URLParam(r, "studentID"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type purchaseRequest struct {
	CourseID string `json:"course_id"`
}

// PurchaseCourse handles POST /api/v1/students/{studentID}/purchases.
func (h *Handler) PurchaseCourse(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.purchaseCourse.Handle(r.Context(), command.PurchaseCourseCommand{
		StudentID: chi.URLParam(r, "studentID"),
		CourseID:  req.CourseID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"subscription_id": result.SubscriptionID,
		"group_id":        result.GroupID,
		"group_title":     result.GroupTitle,
		"new_group":       result.NewGroupCreated,
		"price_paid":      result.PricePaid,
	})
}

// GetMembership handles GET /api/v1/students/{studentID}/courses/{courseID}/group.
func (h *Handler) GetMembership(w http.ResponseWriter, r *http.Request) {
	result, err := h.getMembership.Handle(r.Context(), query.GetMembershipQuery{
		StudentID: chi.URLParam(r, "studentID"),
		CourseID:  chi.URLParam(r, "courseID"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ──────────────────────────────────────────────────────────────────────────────
// Courses
// ──────────────────────────────────────────────────────────────────────────────

type createCourseRequest struct {
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	StartAt     time.Time `json:"start_at"`
	Price       int       `json:"price"`
	IsAvailable bool      `json:"is_available"`
}

// CreateCourse handles POST /api/v1/courses.
func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req createCourseRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.createCourse.Handle(r.Context(), command.CreateCourseCommand{
		Author:      req.Author,
		Title:       req.Title,
		StartAt:     req.StartAt,
		Price:       req.Price,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"course_id": result.CourseID})
}

// ListCourses handles GET /api/v1/courses.
func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	result, err := h.listCourses.Handle(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetCourse handles GET /api/v1/courses/{courseID}.
func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	result, err := h.getCourse.Handle(r.Context(), query.GetCourseQuery{
		CourseID:       chi.URLParam(r, "courseID"),
		IncludeLessons: r.URL.Query().Get("lessons") == "true",
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type setAvailabilityRequest struct {
	Available bool `json:"available"`
}

// SetAvailability handles PATCH /api/v1/courses/{courseID}/availability.
func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var req setAvailabilityRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.setAvailability.Handle(r.Context(), command.SetAvailabilityCommand{
		CourseID:  chi.URLParam(r, "courseID"),
		Available: req.Available,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": req.Available})
}

type createLessonRequest struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// CreateLesson handles POST /api/v1/courses/{courseID}/lessons.
func (h *Handler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	var req createLessonRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.createLesson.Handle(r.Context(), command.CreateLessonCommand{
		CourseID: chi.URLParam(r, "courseID"),
		Title:    req.Title,
		Link:     req.Link,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"lesson_id": result.LessonID})
}

// ListGroups handles GET /api/v1/courses/{courseID}/groups.
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	result, err := h.listGroups.Handle(r.Context(), query.ListGroupsQuery{
		CourseID: chi.URLParam(r, "courseID"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

// writeError maps domain errors to HTTP status codes.
//
//	validation                -> 400
//	not found                 -> 404
//	insufficient funds        -> 402
//	business conflict         -> 409 (duplicate purchase, closed course, no vacancy)
//	exhausted retry conflict  -> 503
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case shared.IsValidation(err):
		status = http.StatusBadRequest
	case shared.IsNotFound(err):
		status = http.StatusNotFound
	case shared.IsInsufficientFunds(err):
		status = http.StatusPaymentRequired
	case shared.IsRetryable(err):
		status = http.StatusServiceUnavailable
	case shared.IsConflict(err):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
