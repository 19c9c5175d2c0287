package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope of every API response.
type Response struct {
	Success    bool          `json:"success"`
	Data       any           `json:"data,omitempty"`
	Error      string        `json:"error,omitempty"`
	Code       string        `json:"code,omitempty"`
	Message    string        `json:"message,omitempty"`
	Details    []FieldDetail `json:"details,omitempty"`
	Pagination *Pagination   `json:"pagination,omitempty"`
	TraceID    string        `json:"traceId,omitempty"`
}

// OK writes a 200 envelope around data.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// Created writes a 201 envelope around data.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// Paged writes a 200 envelope around one page of a listing.
func Paged(c *gin.Context, data any, p Pagination) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Pagination: &p})
}

// Message writes a 200 envelope carrying only a message.
func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message})
}
