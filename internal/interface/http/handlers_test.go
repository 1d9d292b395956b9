package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/course-hub/course-market-hub/internal/application/command"
	"github.com/course-hub/course-market-hub/internal/application/query"
	"github.com/course-hub/course-market-hub/internal/domain/enrollment"
	"github.com/course-hub/course-market-hub/internal/infrastructure/persistence/memory"
	httpapi "github.com/course-hub/course-market-hub/internal/interface/http"
)

func newTestServer(t *testing.T, policy enrollment.Policy, startingBonuses int) *httptest.Server {
	t.Helper()

	store := memory.NewStore()
	svc := enrollment.NewService(store, enrollment.NewAllocator(policy), nil, nil)

	h := httpapi.NewHandler(httpapi.HandlerDeps{
		RegisterStudent:      command.NewRegisterStudentHandler(store, nil, startingBonuses),
		CreditBalance:        command.NewCreditBalanceHandler(store, nil),
		PurchaseCourse:       command.NewPurchaseCourseHandler(svc),
		CreateCourse:         command.NewCreateCourseHandler(store, nil, nil),
		SetAvailability:      command.NewSetAvailabilityHandler(store, nil, nil),
		CreateLesson:         command.NewCreateLessonHandler(store, nil),
		ListAvailableCourses: query.NewListAvailableCoursesHandler(store, store, policy),
		ListCourses:          query.NewListCoursesHandler(store, nil),
		GetCourse:            query.NewGetCourseHandler(store, nil),
		GetBalance:           query.NewGetBalanceHandler(store),
		ListGroups:           query.NewListGroupsHandler(store),
		GetMembership:        query.NewGetMembershipHandler(store),
	}, nil)

	srv := httptest.NewServer(httpapi.NewRouter(h, nil))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func registerStudent(t *testing.T, srv *httptest.Server, email string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/students", map[string]interface{}{
		"email":    email,
		"password": "secret-password",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return body["student_id"].(string)
}

func createCourse(t *testing.T, srv *httptest.Server, price int) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/courses", map[string]interface{}{
		"author":       "Анна Петрова",
		"title":        "Go с нуля",
		"price":        price,
		"is_available": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return body["course_id"].(string)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, enrollment.DefaultPolicy(), 1000)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestPurchaseFlow(t *testing.T) {
	srv := newTestServer(t, enrollment.DefaultPolicy(), 1000)

	studentID := registerStudent(t, srv, "ivan@example.com")
	courseID := createCourse(t, srv, 300)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/students/"+studentID+"/purchases",
		map[string]string{"course_id": courseID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["subscription_id"])
	assert.NotEmpty(t, body["group_id"])
	assert.Equal(t, true, body["new_group"])
	assert.Equal(t, float64(300), body["price_paid"])

	// Баланс уменьшился ровно на цену.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/students/"+studentID+"/balance", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(700), body["bonuses"])

	// Студент видит свою группу.
	resp, body = doJSON(t, http.MethodGet,
		srv.URL+"/api/v1/students/"+studentID+"/courses/"+courseID+"/group", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["group_id"])

	// Купленный курс пропал из витрины.
	resp, body = doJSON(t, http.MethodGet,
		srv.URL+"/api/v1/students/"+studentID+"/courses/available", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["courses"])
}

func TestPurchaseErrorStatuses(t *testing.T) {
	srv := newTestServer(t, enrollment.Policy{MaxGroupsPerCourse: 1, GroupCapacity: 1}, 100)

	studentID := registerStudent(t, srv, "ivan@example.com")
	courseID := createCourse(t, srv, 50)

	// Несуществующий курс -> 404.
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/students/"+studentID+"/purchases",
		map[string]string{"course_id": "ffffffff-0000-0000-0000-000000000000"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Дорогой курс -> 402.
	expensiveID := createCourse(t, srv, 100000)
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/students/"+studentID+"/purchases",
		map[string]string{"course_id": expensiveID})
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)

	// Успешная покупка, затем повторная -> 409.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/students/"+studentID+"/purchases",
		map[string]string{"course_id": courseID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/students/"+studentID+"/purchases",
		map[string]string{"course_id": courseID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Мест нет -> 409 для другого студента.
	otherID := registerStudent(t, srv, "petr@example.com")
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/students/"+otherID+"/purchases",
		map[string]string{"course_id": courseID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Пустое тело запроса -> 400.
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/students/"+studentID+"/purchases", bytes.NewReader(nil))
	require.NoError(t, err)
	rawResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer rawResp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, rawResp.StatusCode)
}

func TestUnavailableCourseReturnsConflict(t *testing.T) {
	srv := newTestServer(t, enrollment.DefaultPolicy(), 1000)

	studentID := registerStudent(t, srv, "ivan@example.com")
	courseID := createCourse(t, srv, 100)

	resp, _ := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/courses/"+courseID+"/availability",
		map[string]bool{"available": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/students/"+studentID+"/purchases",
		map[string]string{"course_id": courseID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRegisterDuplicateEmailReturnsConflict(t *testing.T) {
	srv := newTestServer(t, enrollment.DefaultPolicy(), 1000)
	registerStudent(t, srv, "ivan@example.com")

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/students", map[string]interface{}{
		"email":    "ivan@example.com",
		"password": "secret-password",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestListCoursesShowsWholeCatalog(t *testing.T) {
	srv := newTestServer(t, enrollment.DefaultPolicy(), 1000)

	courseID := createCourse(t, srv, 100)
	otherID := createCourse(t, srv, 200)

	resp, _ := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/courses/"+otherID+"/availability",
		map[string]bool{"available": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Каталог показывает и закрытые курсы, в отличие от витрины студента.
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/courses", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	courses := body["courses"].([]interface{})
	require.Len(t, courses, 2)

	seen := map[string]bool{}
	for _, c := range courses {
		entry := c.(map[string]interface{})
		seen[entry["id"].(string)] = entry["is_available"].(bool)
	}
	assert.True(t, seen[courseID])
	assert.False(t, seen[otherID])
}

func TestCourseCardAndGroups(t *testing.T) {
	srv := newTestServer(t, enrollment.Policy{MaxGroupsPerCourse: 2, GroupCapacity: 2}, 1000)
	courseID := createCourse(t, srv, 100)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/courses/"+courseID+"/lessons",
		map[string]string{"title": "Введение", "link": "https://example.com/1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/courses/"+courseID+"?lessons=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Go с нуля", body["title"])
	lessons := body["lessons"].([]interface{})
	assert.Len(t, lessons, 1)

	// Покупки открывают группы лениво.
	for i := 0; i < 3; i++ {
		sid := registerStudent(t, srv, fmt.Sprintf("s%d@example.com", i))
		resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/students/"+sid+"/purchases",
			map[string]string{"course_id": courseID})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/courses/"+courseID+"/groups", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	groups := body["groups"].([]interface{})
	require.Len(t, groups, 2)

	total := 0
	for _, g := range groups {
		total += int(g.(map[string]interface{})["members"].(float64))
	}
	assert.Equal(t, 3, total)
}
