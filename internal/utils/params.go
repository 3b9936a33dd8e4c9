package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

func idParam(ctx *gin.Context, name string) (uint, error) {
	raw := ctx.Param(name)

	if raw == "" {
		return 0, errors.New(name + " not found")
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil {
		return 0, errors.New("invalid " + name)
	}

	return uint(id), nil
}

func GetProjectID(ctx *gin.Context) (uint, error) {
	return idParam(ctx, "project_id")
}

func GetTaskID(ctx *gin.Context) (uint, error) {
	return idParam(ctx, "task_id")
}

func GetUserID(ctx *gin.Context) (uint, error) {
	return idParam(ctx, "user_id")
}
