package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"NOT_FOUND", http.StatusNotFound},
		{"VALIDATION_ERROR", http.StatusBadRequest},
		{"INVALID_STATUS", http.StatusBadRequest},
		{"INVALID_CUSTOMER", http.StatusBadRequest},
		{"INVALID_DOCUMENT_TYPE", http.StatusBadRequest},
		{"INVALID_STATE", http.StatusUnprocessableEntity},
		{"INVALID_TRANSITION", http.StatusUnprocessableEntity},
		{"FORBIDDEN", http.StatusForbidden},
		{"CONCURRENCY_CONFLICT", http.StatusConflict},
		{"DUPLICATE_IMPORT", http.StatusConflict},
		{"IMPORT_FAILED", http.StatusBadRequest},
		{"STORAGE_UNAVAILABLE", http.StatusServiceUnavailable},
		{"TOKEN_EXPIRED", http.StatusUnauthorized},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID("NOT_FOUND", "Document not found", "req-1")
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.Equal(t, &ErrorInfo{Code: "NOT_FOUND", Message: "Document not found", RequestID: "req-1"}, resp.Error)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2}, 41, 2, 20)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	empty := NewSuccessResponseWithMeta(nil, 0, 1, 0)
	assert.Equal(t, 0, empty.Meta.TotalPages)
}
