package handler

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"taskmanager/internal/auth/avatar"
	"taskmanager/internal/auth/service"
	userstore "taskmanager/internal/auth/store/user"
	jwttoken "taskmanager/internal/jwt_token"
	taskstore "taskmanager/internal/task/store"
	id "taskmanager/pkg/domain"
	"taskmanager/pkg/platform/middleware/auth"
)

// UserHandlerSuite drives the /users routes over the in-memory wiring.
type UserHandlerSuite struct {
	suite.Suite
	users  *userstore.InMemoryUserStore
	router chi.Router
}

func TestUserHandlerSuite(t *testing.T) {
	suite.Run(t, new(UserHandlerSuite))
}

func (s *UserHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.users = userstore.New()
	tasks := taskstore.New()

	svc, err := service.New(s.users,
		service.NewInMemoryTx(service.AccountStores{Users: s.users, Tasks: tasks}),
		jwttoken.NewJWTService("handler-test-key"),
		service.WithBcryptCost(bcrypt.MinCost),
		service.WithLogger(logger),
	)
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	New(svc, logger, auth.RequireAuth(svc, logger)).Register(s.router)
}

type authResponse struct {
	User struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
	Token string `json:"token"`
}

func (s *UserHandlerSuite) request(method, target, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *UserHandlerSuite) jsonRequest(method, target, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	return s.request(method, target, token, reader, "application/json")
}

func (s *UserHandlerSuite) signup() authResponse {
	rec := s.jsonRequest(http.MethodPost, "/users", "",
		`{"name":"Rachhen","email":"rachhen@example.com","password":"MyPass@#@#"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var resp authResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (s *UserHandlerSuite) TestSignupNewUser() {
	resp := s.signup()
	s.NotEmpty(resp.Token)
	s.Equal("Rachhen", resp.User.Name)

	userID, err := id.ParseUserID(resp.User.ID)
	s.Require().NoError(err)
	stored, err := s.users.FindByID(s.T().Context(), userID)
	s.Require().NoError(err)
	s.NotEqual("MyPass@#@#", stored.PasswordHash)

	rec := s.jsonRequest(http.MethodPost, "/users", "",
		`{"name":"Again","email":"rachhen@example.com","password":"MyPass@#@#"}`)
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *UserHandlerSuite) TestSignupResponseHidesSecrets() {
	rec := s.jsonRequest(http.MethodPost, "/users", "",
		`{"name":"Rachhen","email":"rachhen@example.com","password":"MyPass@#@#"}`)
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.NotContains(rec.Body.String(), "password_hash")
	s.NotContains(rec.Body.String(), "tokens")
}

func (s *UserHandlerSuite) TestLoginExistingUser() {
	signed := s.signup()

	rec := s.jsonRequest(http.MethodPost, "/users/login", "",
		`{"email":"rachhen@example.com","password":"MyPass@#@#"}`)
	s.Require().Equal(http.StatusOK, rec.Code)
	var resp authResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(signed.User.ID, resp.User.ID)

	me := s.jsonRequest(http.MethodGet, "/users/me", resp.Token, "")
	s.Require().Equal(http.StatusOK, me.Code)
	s.Contains(me.Body.String(), signed.User.ID)
}

func (s *UserHandlerSuite) TestLoginNonExistentUser() {
	rec := s.jsonRequest(http.MethodPost, "/users/login", "",
		`{"email":"notuser@example.com","password":"notpasswes@##"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.JSONEq(`{"error":"invalid_credentials","error_description":"invalid credentials"}`, rec.Body.String())

	_, err := s.users.FindByEmail(s.T().Context(), "notuser@example.com")
	s.Error(err)
}

func (s *UserHandlerSuite) TestProfileRequiresAuth() {
	rec := s.jsonRequest(http.MethodGet, "/users/me", "", "")
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.JSONEq(`{"error":"unauthorized","error_description":"Please authenticate."}`, rec.Body.String())
}

func (s *UserHandlerSuite) TestDeleteAccount() {
	signed := s.signup()

	s.Run("unauthenticated delete leaves record", func() {
		rec := s.jsonRequest(http.MethodDelete, "/users/me", "", "")
		s.Equal(http.StatusUnauthorized, rec.Code)
		userID, _ := id.ParseUserID(signed.User.ID)
		_, err := s.users.FindByID(s.T().Context(), userID)
		s.NoError(err)
	})

	s.Run("authenticated delete removes user and token", func() {
		rec := s.jsonRequest(http.MethodDelete, "/users/me", signed.Token, "")
		s.Require().Equal(http.StatusOK, rec.Code)

		userID, _ := id.ParseUserID(signed.User.ID)
		_, err := s.users.FindByID(s.T().Context(), userID)
		s.Error(err)

		again := s.jsonRequest(http.MethodGet, "/users/me", signed.Token, "")
		s.Equal(http.StatusUnauthorized, again.Code)
	})
}

func (s *UserHandlerSuite) TestUpdateProfile() {
	signed := s.signup()

	s.Run("valid fields", func() {
		rec := s.jsonRequest(http.MethodPatch, "/users/me", signed.Token, `{"name":"Jess"}`)
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), `"name":"Jess"`)
	})

	s.Run("invalid field", func() {
		rec := s.jsonRequest(http.MethodPatch, "/users/me", signed.Token, `{"location":"Siem Reap"}`)
		s.Equal(http.StatusBadRequest, rec.Code)

		me := s.jsonRequest(http.MethodGet, "/users/me", signed.Token, "")
		s.NotContains(me.Body.String(), "Siem Reap")
		s.Contains(me.Body.String(), `"name":"Jess"`)
	})
}

func (s *UserHandlerSuite) TestLogout() {
	signed := s.signup()
	rec := s.jsonRequest(http.MethodPost, "/users/login", "",
		`{"email":"rachhen@example.com","password":"MyPass@#@#"}`)
	var second authResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &second))

	s.Equal(http.StatusOK, s.jsonRequest(http.MethodPost, "/users/logout", signed.Token, "").Code)
	s.Equal(http.StatusUnauthorized, s.jsonRequest(http.MethodGet, "/users/me", signed.Token, "").Code)
	s.Equal(http.StatusOK, s.jsonRequest(http.MethodGet, "/users/me", second.Token, "").Code)

	s.Equal(http.StatusOK, s.jsonRequest(http.MethodPost, "/users/logoutAll", second.Token, "").Code)
	s.Equal(http.StatusUnauthorized, s.jsonRequest(http.MethodGet, "/users/me", second.Token, "").Code)
}

func (s *UserHandlerSuite) TestAvatarLifecycle() {
	signed := s.signup()

	s.Equal(http.StatusNotFound, s.request(http.MethodGet, "/users/"+signed.User.ID+"/avatar", "", nil, "").Code)

	body, contentType := s.avatarForm("profile-pic.png", s.pngBytes())
	rec := s.request(http.MethodPost, "/users/me/avatar", signed.Token, body, contentType)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	got := s.request(http.MethodGet, "/users/"+signed.User.ID+"/avatar", "", nil, "")
	s.Require().Equal(http.StatusOK, got.Code)
	s.Equal("image/png", got.Header().Get("Content-Type"))
	img, err := png.Decode(got.Body)
	s.Require().NoError(err)
	s.Equal(avatar.Size, img.Bounds().Dx())

	s.Equal(http.StatusOK, s.request(http.MethodDelete, "/users/me/avatar", signed.Token, nil, "").Code)
	s.Equal(http.StatusNotFound, s.request(http.MethodGet, "/users/"+signed.User.ID+"/avatar", "", nil, "").Code)
}

func (s *UserHandlerSuite) TestAvatarRejectsNonImage() {
	signed := s.signup()
	body, contentType := s.avatarForm("notes.txt", []byte("plain text"))
	rec := s.request(http.MethodPost, "/users/me/avatar", signed.Token, body, contentType)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "Please upload an image")
}

func (s *UserHandlerSuite) pngBytes() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for x := 0; x < 40; x++ {
		img.Set(x, x%30, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	s.Require().NoError(png.Encode(&buf, img))
	return buf.Bytes()
}

func (s *UserHandlerSuite) avatarForm(filename string, data []byte) (io.Reader, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(avatar.FieldName, filename)
	s.Require().NoError(err)
	_, err = part.Write(data)
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())
	return &buf, mw.FormDataContentType()
}
