package controllers

import (
	"errors"
	"net/http"

	"annex-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LessonController struct {
	Lessons repository.LessonRepository
	Logger  *zap.Logger
}

func NewLessonController(lessons repository.LessonRepository, logger *zap.Logger) *LessonController {
	return &LessonController{Lessons: lessons, Logger: logger}
}

func (lc *LessonController) ListLessons(c *gin.Context) {
	lessons, err := lc.Lessons.ListApproved(c.Request.Context())
	if err != nil {
		lc.Logger.Error("failed to list lessons", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list lessons"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lessons": lessons})
}

func (lc *LessonController) GetLesson(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
		return
	}

	lesson, err := lc.Lessons.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrLessonNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "lesson not found"})
			return
		}
		lc.Logger.Error("failed to fetch lesson", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch lesson"})
		return
	}

	c.JSON(http.StatusOK, lesson)
}
