package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"github.com/gin-gonic/gin"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", fmt.Errorf("part P9: %w", entity.ErrNotFound), CodeNotFound},
		{"transition", &entity.TransitionError{Op: "start", Status: entity.WOStatusDraft}, CodeInvalidTransition},
		{"stock", fmt.Errorf("wo: %w", &entity.StockError{PartID: "P1", Requested: 3, Available: 1}), CodeInsufficientStock},
		{"duplicate", fmt.Errorf("vehicle V1: %w", entity.ErrDuplicateActiveOrder), CodeDuplicateOrder},
		{"consumed", fmt.Errorf("work order WO1: %w", entity.ErrPartsAlreadyConsumed), CodeAlreadyConsumed},
		{"configuration", fmt.Errorf("%w: bad rate", entity.ErrConfiguration), CodeConfiguration},
		{"other", errors.New("connection reset"), CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.code {
				t.Errorf("ErrorCode() = %d, want %d", got, tt.code)
			}
		})
	}
}

func TestHandleError_StatusFromCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		err    error
		status int
	}{
		{entity.ErrNotFound, http.StatusNotFound},
		{entity.ErrInvalidTransition, http.StatusConflict},
		{entity.ErrInsufficientStock, http.StatusConflict},
		{entity.ErrDuplicateActiveOrder, http.StatusConflict},
		{entity.ErrPartsAlreadyConsumed, http.StatusConflict},
		{entity.ErrConfiguration, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		HandleError(c, tt.err)
		if w.Code != tt.status {
			t.Errorf("%v: status = %d, want %d", tt.err, w.Code, tt.status)
		}
		var resp Response
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Code != ErrorCode(tt.err) || resp.Message == "" {
			t.Errorf("%v: unexpected body %s", tt.err, w.Body.String())
		}
	}
}

func TestNewPagination(t *testing.T) {
	p := newPagination(2, 20, 41)
	if p.TotalPages != 3 || p.Total != 41 || p.Page != 2 {
		t.Errorf("unexpected pagination %+v", p)
	}
	if p := newPagination(1, 20, 0); p.TotalPages != 0 {
		t.Errorf("empty list should have 0 pages, got %d", p.TotalPages)
	}
}

func TestGetPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=3&page_size=500", nil)

	page, size := GetPagination(c)
	if page != 3 || size != 20 {
		t.Errorf("GetPagination() = %d, %d; want 3, 20", page, size)
	}
}
