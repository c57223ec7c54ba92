package prompt

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/iap/internal/domain"
)

// Static — PurchasePrompt с заранее заданным выбором.
// Используется в тестах и в headless-режиме сервиса, где диалог
// показать некому: по умолчанию покупка без авторизации отменяется.
type Static struct {
	mu     sync.Mutex
	Choice domain.PromptChoice
	Err    error

	AskCalls int
}

// NewStatic возвращает prompt с фиксированным выбором.
func NewStatic(choice domain.PromptChoice) *Static {
	return &Static{Choice: choice}
}

// AskUnauthenticatedPurchase возвращает настроенный выбор и считает вызовы.
func (s *Static) AskUnauthenticatedPurchase(ctx context.Context, product domain.Product) (domain.PromptChoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AskCalls++
	if s.Err != nil {
		return "", s.Err
	}
	return s.Choice, nil
}

var _ domain.PurchasePrompt = (*Static)(nil)
