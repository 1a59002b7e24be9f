package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /health)
	GetHealth(ctx echo.Context) error
	// (GET /users)
	ListUsers(ctx echo.Context) error
	// (POST /users)
	CreateUser(ctx echo.Context) error
	// (DELETE /users/{id})
	DeleteUser(ctx echo.Context, id string) error
	// (GET /users/{id}/questions)
	ListUserQuestions(ctx echo.Context, id string) error
	// (GET /questions)
	ListQuestions(ctx echo.Context) error
	// (POST /questions)
	CreateQuestion(ctx echo.Context) error
	// (POST /questions/ask)
	AskQuestion(ctx echo.Context) error
	// (GET /questions/pending)
	ListPendingQuestions(ctx echo.Context) error
	// (GET /questions/{id}/answer)
	GetLatestAnswer(ctx echo.Context, id string) error
	// (POST /answers)
	CreateAnswer(ctx echo.Context) error
	// (GET /agents)
	ListAgents(ctx echo.Context) error
	// (POST /agents)
	CreateAgent(ctx echo.Context) error
	// (PUT /agents/{id})
	UpdateAgent(ctx echo.Context, id string) error
	// (DELETE /agents/{id})
	DeleteAgent(ctx echo.Context, id string) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func (w *ServerInterfaceWrapper) GetHealth(ctx echo.Context) error {
	return w.Handler.GetHealth(ctx)
}

func (w *ServerInterfaceWrapper) ListUsers(ctx echo.Context) error {
	return w.Handler.ListUsers(ctx)
}

func (w *ServerInterfaceWrapper) CreateUser(ctx echo.Context) error {
	return w.Handler.CreateUser(ctx)
}

func (w *ServerInterfaceWrapper) DeleteUser(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.DeleteUser(ctx, id)
}

func (w *ServerInterfaceWrapper) ListUserQuestions(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.ListUserQuestions(ctx, id)
}

func (w *ServerInterfaceWrapper) ListQuestions(ctx echo.Context) error {
	return w.Handler.ListQuestions(ctx)
}

func (w *ServerInterfaceWrapper) CreateQuestion(ctx echo.Context) error {
	return w.Handler.CreateQuestion(ctx)
}

func (w *ServerInterfaceWrapper) AskQuestion(ctx echo.Context) error {
	return w.Handler.AskQuestion(ctx)
}

func (w *ServerInterfaceWrapper) ListPendingQuestions(ctx echo.Context) error {
	return w.Handler.ListPendingQuestions(ctx)
}

func (w *ServerInterfaceWrapper) GetLatestAnswer(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetLatestAnswer(ctx, id)
}

func (w *ServerInterfaceWrapper) CreateAnswer(ctx echo.Context) error {
	return w.Handler.CreateAnswer(ctx)
}

func (w *ServerInterfaceWrapper) ListAgents(ctx echo.Context) error {
	return w.Handler.ListAgents(ctx)
}

func (w *ServerInterfaceWrapper) CreateAgent(ctx echo.Context) error {
	return w.Handler.CreateAgent(ctx)
}

func (w *ServerInterfaceWrapper) UpdateAgent(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.UpdateAgent(ctx, id)
}

func (w *ServerInterfaceWrapper) DeleteAgent(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.DeleteAgent(ctx, id)
}

// bindID binds the required "id" path parameter.
func bindID(ctx echo.Context) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", ctx.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter id: %s", err))
	}
	return id, nil
}

// EchoRouter is satisfied by both *echo.Echo and *echo.Group.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

// RegisterHandlersWithBaseURL registers the handlers under baseURL.
func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	wrapper := ServerInterfaceWrapper{Handler: si}

	router.GET(baseURL+"/health", wrapper.GetHealth)
	router.GET(baseURL+"/users", wrapper.ListUsers)
	router.POST(baseURL+"/users", wrapper.CreateUser)
	router.DELETE(baseURL+"/users/:id", wrapper.DeleteUser)
	router.GET(baseURL+"/users/:id/questions", wrapper.ListUserQuestions)
	router.GET(baseURL+"/questions", wrapper.ListQuestions)
	router.POST(baseURL+"/questions", wrapper.CreateQuestion)
	router.POST(baseURL+"/questions/ask", wrapper.AskQuestion)
	router.GET(baseURL+"/questions/pending", wrapper.ListPendingQuestions)
	router.GET(baseURL+"/questions/:id/answer", wrapper.GetLatestAnswer)
	router.POST(baseURL+"/answers", wrapper.CreateAnswer)
	router.GET(baseURL+"/agents", wrapper.ListAgents)
	router.POST(baseURL+"/agents", wrapper.CreateAgent)
	router.PUT(baseURL+"/agents/:id", wrapper.UpdateAgent)
	router.DELETE(baseURL+"/agents/:id", wrapper.DeleteAgent)
}
