package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"taskmanager/internal/task/handler/mocks"
	"taskmanager/internal/task/models"
	id "taskmanager/pkg/domain"
	dErrors "taskmanager/pkg/domain-errors"
	"taskmanager/pkg/testutil"
)

type TaskHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	userID  id.UserID
}

func TestTaskHandlerSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerSuite))
}

func (s *TaskHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	s.service = mocks.NewMockService(ctrl)
	s.userID = id.NewUserID()

	authenticated := testutil.FakeAuth(func() id.UserID { return s.userID })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(s.service, logger, authenticated).Register(s.router)
}

func (s *TaskHandlerSuite) do(method, target, body string) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.NewJSONRequest(method, target, body))
}

func (s *TaskHandlerSuite) TestCreate() {
	s.Run("201 with task", func() {
		s.service.EXPECT().Create(gomock.Any(), s.userID, &models.CreateTaskRequest{Description: "Buy milk"}).
			Return(&models.Task{ID: id.NewTaskID(), OwnerID: s.userID, Description: "Buy milk"}, nil)

		rec := s.do(http.MethodPost, "/tasks", `{"description":" Buy milk "}`)
		s.Equal(http.StatusCreated, rec.Code)

		body := testutil.UnmarshalResponse[map[string]any](s.T(), rec)
		s.Equal("Buy milk", body["description"])
		s.Equal(s.userID.String(), body["owner"])
	})

	s.Run("400 without description", func() {
		rec := s.do(http.MethodPost, "/tasks", `{"completed":true}`)
		testutil.AssertStatusAndError(s.T(), rec, http.StatusBadRequest, "validation_error")
	})
}

func (s *TaskHandlerSuite) TestList() {
	s.Run("passes parsed filter", func() {
		s.service.EXPECT().List(gomock.Any(), s.userID, gomock.Any()).DoAndReturn(
			func(_ any, _ id.UserID, filter models.ListFilter) ([]*models.Task, error) {
				s.Equal(2, filter.Limit)
				s.Equal(models.SortDescription, filter.SortBy)
				s.True(filter.Desc)
				return []*models.Task{}, nil
			})

		rec := s.do(http.MethodGet, "/tasks?limit=2&sortBy=description:desc", "")
		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`[]`, rec.Body.String())
	})

	s.Run("rejects bad sort", func() {
		rec := s.do(http.MethodGet, "/tasks?sortBy=owner", "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *TaskHandlerSuite) TestGet() {
	taskID := id.NewTaskID()

	s.Run("404 for foreign task", func() {
		s.service.EXPECT().Get(gomock.Any(), s.userID, taskID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "task not found"))

		rec := s.do(http.MethodGet, "/tasks/"+taskID.String(), "")
		testutil.AssertStatusAndError(s.T(), rec, http.StatusNotFound, "not_found")
	})

	s.Run("404 for malformed id", func() {
		rec := s.do(http.MethodGet, "/tasks/not-a-uuid", "")
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *TaskHandlerSuite) TestUpdateUnsupportedField() {
	taskID := id.NewTaskID()
	s.service.EXPECT().Update(gomock.Any(), s.userID, taskID, gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeValidation, "unsupported field: owner"))

	rec := s.do(http.MethodPatch, "/tasks/"+taskID.String(), `{"owner":"x"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.JSONEq(`{"error":"validation_error","error_description":"unsupported field: owner"}`, rec.Body.String())
}

func (s *TaskHandlerSuite) TestDelete() {
	taskID := id.NewTaskID()
	s.service.EXPECT().Delete(gomock.Any(), s.userID, taskID).
		Return(&models.Task{ID: taskID, OwnerID: s.userID, Description: "Buy milk"}, nil)

	rec := s.do(http.MethodDelete, "/tasks/"+taskID.String(), "")
	s.Equal(http.StatusOK, rec.Code)
}
