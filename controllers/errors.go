package controllers

import (
	"errors"
	"log"
	"net/http"

	svc "SupportChat/pkg/services"

	"github.com/gin-gonic/gin"
)

// GenericErrorMessage is what the visitor sees for any storage failure.
const GenericErrorMessage = "There is a connection issue. Please contact our team for assistance."

func respondError(c *gin.Context, tag string, err error) {
	switch {
	case errors.Is(err, svc.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"msg": "Please enter a valid email address"})
	case errors.Is(err, svc.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"msg": "conversation not found"})
	case errors.Is(err, svc.ErrInvalidRole), errors.Is(err, svc.ErrEmptyContent):
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
	default:
		log.Printf("[%s] %v", tag, err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": GenericErrorMessage})
	}
}
