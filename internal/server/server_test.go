package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gyma/internal/config"
	"gyma/internal/models"
	"gyma/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	goodToken = "good-token"
	callerUID = uint(7)
)

type harness struct {
	app         *fiber.App
	auth        *mockAuth
	persons     *mockPersons
	pictures    *mockPictures
	profiles    *mockProfiles
	friendships *mockFriendships
	feeds       *mockFeeds
	gymas       *mockGymas
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		auth:        &mockAuth{},
		persons:     &mockPersons{},
		pictures:    &mockPictures{},
		profiles:    &mockProfiles{},
		friendships: &mockFriendships{},
		feeds:       &mockFeeds{},
		gymas:       &mockGymas{},
	}
	s := &Server{
		config: &config.Config{AllowedOrigins: "http://localhost:5173"},
		svc: Services{
			Sessions:    stubSessions{goodToken: callerUID},
			Auth:        h.auth,
			Persons:     h.persons,
			Pictures:    h.pictures,
			Profiles:    h.profiles,
			Friendships: h.friendships,
			Feeds:       h.feeds,
			Gymas:       h.gymas,
		},
	}
	h.app = s.App()
	t.Cleanup(func() {
		h.auth.AssertExpectations(t)
		h.persons.AssertExpectations(t)
		h.pictures.AssertExpectations(t)
		h.profiles.AssertExpectations(t)
		h.friendships.AssertExpectations(t)
		h.feeds.AssertExpectations(t)
		h.gymas.AssertExpectations(t)
	})
	return h
}

type reqOpt func(*http.Request)

func withToken(token string) reqOpt {
	return func(r *http.Request) { r.Header.Set(fiber.HeaderAuthorization, token) }
}

func withHeader(k, v string) reqOpt {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func (h *harness) do(t *testing.T, method, path string, body any, opts ...reqOpt) (int, []byte) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for _, opt := range opts {
		opt(req)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decodeError(t *testing.T, body []byte) models.ErrorResponse {
	t.Helper()
	var out models.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func isCaller(v *uint) bool { return v != nil && *v == callerUID }

func TestRegister(t *testing.T) {
	h := newHarness(t)
	input := service.RegisterInput{Email: "a@example.com", Password: "Secret123", Password2: "Secret123"}
	h.auth.On("Register", mock.Anything, input).Return(&models.User{ID: 1, Email: "a@example.com"}, nil).Once()

	status, body := h.do(t, http.MethodPost, "/api/v1/user", input)
	assert.Equal(t, http.StatusCreated, status)
	assert.Contains(t, string(body), `"email":"a@example.com"`)

	bad := service.RegisterInput{Email: "nope"}
	h.auth.On("Register", mock.Anything, bad).Return(nil, models.NewValidationError("Invalid email")).Once()
	status, body = h.do(t, http.MethodPost, "/api/v1/user", bad)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, decodeError(t, body).Code)

	status, _ = h.do(t, http.MethodPost, "/api/v1/user", "{")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLoginLogoutVerify(t *testing.T) {
	h := newHarness(t)
	input := service.LoginInput{Email: "a@example.com", Password: "Secret123", TrustDevice: true}
	h.auth.On("Login", mock.Anything, input).Return(&service.LoginResult{SessionToken: "tok", DeviceTrusted: true}, nil).Once()

	status, body := h.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"a@example.com","password":"Secret123","trustDevice":true}`)
	assert.Equal(t, http.StatusOK, status)
	var res map[string]any
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "tok", res["session_token"])
	assert.Equal(t, true, res["device_trusted"])
	assert.Nil(t, res["myProfileDTO"])

	h.auth.On("Login", mock.Anything, mock.Anything).
		Return(nil, models.NewForbiddenError("Email not verified").WithReason(models.ReasonEmailUnverified)).Once()
	status, body = h.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"b@example.com","password":"x"}`)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, models.ReasonEmailUnverified, decodeError(t, body).Reason)

	status, _ = h.do(t, http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	h.auth.On("Logout", mock.Anything, goodToken).Return(nil).Once()
	status, _ = h.do(t, http.MethodPost, "/api/v1/auth/logout", nil, withToken(goodToken))
	assert.Equal(t, http.StatusOK, status)

	h.auth.On("Verify", mock.Anything, "abc").Return(&models.User{ID: 1}, nil).Once()
	status, _ = h.do(t, http.MethodGet, "/api/v1/auth/verify/abc", nil)
	assert.Equal(t, http.StatusOK, status)

	h.auth.On("ResendVerification", mock.Anything, "a@example.com").
		Return(models.NewConflictError("Already verified").WithReason(models.ReasonAlreadyVerified)).Once()
	status, _ = h.do(t, http.MethodPost, "/api/v1/auth/resend_verification_mail", map[string]string{"email": "a@example.com"})
	assert.Equal(t, http.StatusConflict, status)
}

func TestPersonUpsertAndMe(t *testing.T) {
	h := newHarness(t)
	input := service.PersonInput{FirstName: "Anna", LastName: "Berg", GymaShare: "pub"}
	person := &models.Person{ProfileURL: "annaberg", FirstName: "Anna", LastName: "Berg"}
	h.persons.On("Upsert", mock.Anything, callerUID, input).Return(person, true, nil).Once()
	h.persons.On("Upsert", mock.Anything, callerUID, input).Return(person, false, nil).Once()

	status, body := h.do(t, http.MethodPost, "/api/v1/person", input, withToken(goodToken))
	assert.Equal(t, http.StatusCreated, status)
	assert.Contains(t, string(body), `"profile_url":"annaberg"`)

	status, _ = h.do(t, http.MethodPost, "/api/v1/person", input, withToken(goodToken))
	assert.Equal(t, http.StatusOK, status)

	status, _ = h.do(t, http.MethodPost, "/api/v1/person", input)
	assert.Equal(t, http.StatusUnauthorized, status)

	h.profiles.On("Me", mock.Anything, callerUID).Return(nil, models.NewProfileNotFoundError()).Once()
	status, body = h.do(t, http.MethodGet, "/api/v1/person/me", nil, withToken(goodToken))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, models.ReasonProfileNotFound, decodeError(t, body).Reason)
}

func TestUploadPicture(t *testing.T) {
	h := newHarness(t)
	h.pictures.On("UploadProfilePicture", mock.Anything, callerUID, mock.MatchedBy(func(in service.PictureInput) bool {
		return in.Filename == "me.png" && string(in.Content) == "png-bytes"
	})).Return(&models.Person{ProfileURL: "me", PfPathL: "images/large/x.jpg"}, nil).Once()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "me.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	status, body := h.do(t, http.MethodPost, "/api/v1/person/picture", buf.String(),
		withToken(goodToken), withHeader(fiber.HeaderContentType, w.FormDataContentType()))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "images/large/x.jpg")

	status, body = h.do(t, http.MethodPost, "/api/v1/person/picture", nil, withToken(goodToken))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, decodeError(t, body).Code)
}

func TestProfileView(t *testing.T) {
	h := newHarness(t)
	h.profiles.On("View", mock.Anything, (*uint)(nil), "anna").
		Return(&models.Profile{Person: &models.Person{ProfileURL: "anna"}}, nil).Once()
	h.profiles.On("View", mock.Anything, mock.MatchedBy(isCaller), "anna").
		Return(&models.Profile{Person: &models.Person{ProfileURL: "anna"}, FriendshipStatus: models.ViewerStatusAccepted}, nil).Once()
	h.profiles.On("View", mock.Anything, mock.MatchedBy(isCaller), "blocker").
		Return(nil, models.NewProfileNotFoundError()).Once()

	status, body := h.do(t, http.MethodGet, "/api/v1/profile/anna", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.NotContains(t, string(body), "friendship_status")

	status, body = h.do(t, http.MethodGet, "/api/v1/profile/anna", nil, withToken(goodToken))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"friendship_status":"accepted"`)

	status, body = h.do(t, http.MethodGet, "/api/v1/profile/blocker", nil, withToken(goodToken))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, models.ReasonProfileNotFound, decodeError(t, body).Reason)
}

func TestFriendshipRoutes(t *testing.T) {
	h := newHarness(t)
	routes := map[string]string{
		"request":    "Request",
		"accept":     "Accept",
		"block":      "Block",
		"unblock":    "Unblock",
		"disconnect": "Remove",
	}
	for _, op := range routes {
		h.friendships.On(op, mock.Anything, callerUID, "ben").
			Return(&service.FriendshipResult{Op: service.FriendshipOp(op), Changed: true}, nil).Twice()
	}

	for path := range routes {
		for _, method := range []string{http.MethodGet, http.MethodPost} {
			status, body := h.do(t, method, "/api/v1/profile/"+path+"/ben", nil, withToken(goodToken))
			assert.Equal(t, http.StatusOK, status, method+" "+path)
			assert.Contains(t, string(body), `"changed":true`)
		}
	}

	status, _ := h.do(t, http.MethodGet, "/api/v1/profile/request/ben", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	h.friendships.On("Accept", mock.Anything, callerUID, "carl").
		Return(nil, models.NewConflictError("No pending request").WithReason(models.ReasonNotPending)).Once()
	status, body := h.do(t, http.MethodGet, "/api/v1/profile/accept/carl", nil, withToken(goodToken))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, models.ReasonNotPending, decodeError(t, body).Reason)
}

func TestSearch(t *testing.T) {
	h := newHarness(t)
	h.profiles.On("Search", mock.Anything, (*uint)(nil), "anna").
		Return([]models.PersonSummary{{ProfileURL: "annaberg"}}, nil).Once()

	status, body := h.do(t, http.MethodGet, "/api/v1/search?q=%20anna%20", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "annaberg")
}

func TestFeeds(t *testing.T) {
	h := newHarness(t)
	entry := models.FeedEntry{GymaID: 9}
	h.feeds.On("Mine", mock.Anything, callerUID, []uint{3, 4}).Return([]models.FeedEntry{entry}, nil).Once()
	h.feeds.On("Gymbros", mock.Anything, callerUID, []uint(nil)).Return(nil, nil).Once()
	h.feeds.On("Public", mock.Anything, mock.MatchedBy(isCaller), []uint(nil)).Return([]models.FeedEntry{entry}, nil).Once()
	h.feeds.On("PublicAnonymous", mock.Anything, []uint{1}).Return([]models.FeedEntry{entry}, nil).Once()
	h.feeds.On("Profile", mock.Anything, (*uint)(nil), "anna", []uint(nil)).
		Return(nil, models.NewForbiddenError("Friends only").WithReason(models.ReasonFriendsOnly)).Once()

	status, body := h.do(t, http.MethodGet, "/api/v1/mine", nil, withToken(goodToken), withHeader("Gymakeys", "3, 4,"))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"gyma_id":9`)

	status, body = h.do(t, http.MethodGet, "/api/v1/gymbro", nil, withToken(goodToken))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "[]", string(body))

	status, _ = h.do(t, http.MethodGet, "/api/v1/pub", nil, withToken(goodToken))
	assert.Equal(t, http.StatusOK, status)

	status, _ = h.do(t, http.MethodGet, "/api/v1/pub/anonymous", nil, withHeader("Gymakeys", "1"))
	assert.Equal(t, http.StatusOK, status)

	status, body = h.do(t, http.MethodGet, "/api/v1/profile/anna/gyma", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, models.ReasonFriendsOnly, decodeError(t, body).Reason)

	status, _ = h.do(t, http.MethodGet, "/api/v1/pub", nil, withHeader("Gymakeys", "1,x"))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = h.do(t, http.MethodGet, "/api/v1/mine", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestGymaRoutes(t *testing.T) {
	h := newHarness(t)
	h.gymas.On("Start", mock.Anything, goodToken).Return(&models.Gyma{ID: 5}, nil).Once()
	h.gymas.On("End", mock.Anything, goodToken).
		Return(nil, models.NewNotFoundError("Gyma", "current").WithReason(models.ReasonGymaNotStarted)).Once()
	exercise := service.ExerciseInput{Name: "Squat", Type: "gains"}
	h.gymas.On("AddExercise", mock.Anything, goodToken, exercise).Return(&models.Exercise{ID: 1, Name: "Squat"}, nil).Once()
	h.gymas.On("Delete", mock.Anything, callerUID, uint(5)).Return(nil).Once()

	status, body := h.do(t, http.MethodPost, "/api/v1/gyma/start", nil, withToken(goodToken))
	assert.Equal(t, http.StatusCreated, status)
	assert.Contains(t, string(body), `"gyma_id":5`)

	status, body = h.do(t, http.MethodPut, "/api/v1/gyma/end", nil, withToken(goodToken))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, models.ReasonGymaNotStarted, decodeError(t, body).Reason)

	status, _ = h.do(t, http.MethodPost, "/api/v1/gyma/exercise", `{"exercise_name":"Squat","exercise_type":"gains"}`, withToken(goodToken))
	assert.Equal(t, http.StatusCreated, status)

	status, _ = h.do(t, http.MethodDelete, "/api/v1/gyma/abc", nil, withToken(goodToken))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = h.do(t, http.MethodDelete, "/api/v1/gyma/5", nil, withToken(goodToken))
	assert.Equal(t, http.StatusNoContent, status)
}

func TestUnknownRouteAndMetrics(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(t, http.MethodGet, "/api/v1/nothing", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, models.CodeNotFound, decodeError(t, body).Code)

	status, _ = h.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = h.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestReadinessCheck(t *testing.T) {
	app := fiber.New()
	unready := &Server{config: &config.Config{}}
	app.Get("/unready", unready.ReadinessCheck)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	ready := &Server{config: &config.Config{}, db: db, redis: rdb}
	app.Get("/ready", ready.ReadinessCheck)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/unready", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
