package service

import "errors"

var (
	// ErrInvalidInput обязательное поле пусто или значение вне набора
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden действие недоступно роли текущей сессии
	ErrForbidden = errors.New("action not allowed for role")
	// ErrInvalidState действие не соответствует текущему состоянию сессии
	ErrInvalidState = errors.New("invalid state")
)
