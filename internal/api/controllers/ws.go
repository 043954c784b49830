package controllers

import (
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/datallboy/gotube/internal/app"
	"github.com/datallboy/gotube/internal/ws"
)

type WSController struct {
	App    *app.Context
	Hub    *ws.Hub
	Router *ws.Router
}

// Handle upgrades the request into a persistent session and blocks for its
// lifetime.
func (ctrl *WSController) Handle(c *echo.Context) error {
	clientID := c.Param("client_id")
	if clientID == "" {
		return c.String(http.StatusBadRequest, "Missing client id")
	}

	return ctrl.Hub.Serve(c.Response(), c.Request(), clientID, ctrl.Router)
}
