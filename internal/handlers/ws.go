package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/taskflow-dev/taskflow/internal/authz"
	"github.com/taskflow-dev/taskflow/internal/models"
	"github.com/taskflow-dev/taskflow/internal/utils"
	"github.com/taskflow-dev/taskflow/internal/ws"
	"gorm.io/gorm"
)

type WSHandler struct {
	DB             *gorm.DB
	Hub            *ws.Hub
	AllowedOrigins []string
}

// Board opens a websocket stream of refresh events for one project
// board. Membership is checked before the upgrade.
func (h *WSHandler) Board(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var project models.Project

	if err := h.DB.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
		} else {
			logrus.Errorf("Failed to fetch project %d: %v", projectID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve project"})
		}
		return
	}

	role, err := authz.Membership(h.DB, userID, project.ID)

	if err != nil || !authz.Can(role, authz.ActionViewProject) {
		ctx.JSON(http.StatusForbidden, gin.H{"message": "Unauthorized"})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range h.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)

	if err != nil {
		logrus.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	conn.SetReadLimit(ws.MaxMessageSize)

	if err := conn.SetReadDeadline(time.Now().Add(ws.PongWait)); err != nil {
		logrus.Errorf("Failed to set initial read deadline: %v", err)
		conn.Close()
		return
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(ws.PongWait))
	})

	h.Hub.Register(project.ID, conn)

	defer func() {
		h.Hub.Unregister(project.ID, conn)
		conn.Close()

		logrus.Infof("WebSocket connection closed for project %d", project.ID)
	}()

	if err := conn.SetWriteDeadline(time.Now().Add(ws.WriteWait)); err != nil {
		logrus.Errorf("Failed to set write deadline for welcome message: %v", err)
		return
	}

	err = conn.WriteJSON(map[string]interface{}{
		"type":       "connected",
		"project_id": project.ID,
	})

	if err != nil {
		logrus.Errorf("Failed to send welcome message: %v", err)
		return
	}

	ticker := time.NewTicker(ws.PingPeriod)
	defer ticker.Stop()

	go func() {
		for range ticker.C {
			if err := conn.SetWriteDeadline(time.Now().Add(ws.WriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(ws.PongWait)); err != nil {
			break
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.Errorf("WebSocket error for project %d: %v", project.ID, err)
			}
			break
		}
	}
}
