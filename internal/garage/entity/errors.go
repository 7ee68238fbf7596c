package entity

import (
	"errors"
	"fmt"
)

// 领域错误
var (
	ErrInvalidTransition    = errors.New("invalid work order transition")
	ErrNotFound             = errors.New("record not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrConfiguration        = errors.New("invalid configuration")
	ErrDuplicateActiveOrder = errors.New("vehicle already has an active work order")
	ErrPartsAlreadyConsumed = errors.New("work order parts already consumed")
)

// TransitionError 工单状态机守卫失败
type TransitionError struct {
	Op     string
	Status WOStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s work order in status %s", e.Op, e.Status)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// StockError 库存不足
type StockError struct {
	PartID    string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for part %s: requested %d, available %d", e.PartID, e.Requested, e.Available)
}

func (e *StockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
