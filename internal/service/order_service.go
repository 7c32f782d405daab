package service

import (
	"context"
	"time"

	"github.com/Akaza561/med-bridge/internal/domain"
	"github.com/Akaza561/med-bridge/internal/repository"
	"github.com/Akaza561/med-bridge/internal/session"
	"github.com/Akaza561/med-bridge/internal/token"
)

// OrderService оформление покупки (User) и клейма пожертвования (NGO).
// Заказ — снимок записи на момент открытия чекаута; сама запись уходит
// со склада в момент подтверждения.
type OrderService struct {
	stock    repository.StockRepository
	orders   repository.OrderRepository
	sessions *session.Manager
	tokens   *token.Generator
	now      func() time.Time
}

func NewOrderService(stock repository.StockRepository, orders repository.OrderRepository, sessions *session.Manager, tokens *token.Generator) *OrderService {
	return &OrderService{stock: stock, orders: orders, sessions: sessions, tokens: tokens, now: time.Now}
}

func canOrder(role domain.Role) bool {
	return role == domain.RoleUser || role == domain.RoleNGO
}

// OpenCheckout снимает запись в слот чекаута. Снимок берётся из кэша
// сессии, поэтому подтверждение сработает даже если запись тем временем
// ушла со склада.
func (s *OrderService) OpenCheckout(ctx context.Context, profile domain.UserProfile, id string) (session.State, error) {
	if !canOrder(profile.Role) {
		return session.State{}, ErrForbidden
	}
	state, err := s.sessions.Get(profile.Username)
	if err != nil {
		return session.State{}, err
	}
	recs := state.Stock
	if len(recs) == 0 {
		recs, err = s.stock.List(ctx)
		if err != nil {
			return state, err
		}
		if state, err = s.sessions.Dispatch(profile.Username, session.StockLoaded{Stock: recs}); err != nil {
			return state, err
		}
	}
	for _, r := range recs {
		if r.ID == id {
			rec := r
			return s.sessions.Dispatch(profile.Username, session.OpenDialog{Slot: session.SlotCheckout, Record: &rec})
		}
	}
	return state, repository.ErrNotFound
}

// CheckoutDetails поля формы оформления
type CheckoutDetails struct {
	ReceiverName  string
	Address       string
	PaymentMethod string
}

// Confirm подтверждает чекаут: синтезирует заказ, убирает единицу со
// склада (повторное удаление — безвредный no-op), закрывает чекаут и
// открывает итог. Роль NGO всегда получает метод "Donation Claim",
// что бы ни пришло в форме.
func (s *OrderService) Confirm(ctx context.Context, profile domain.UserProfile, details CheckoutDetails) (session.State, error) {
	if !canOrder(profile.Role) {
		return session.State{}, ErrForbidden
	}
	state, err := s.sessions.Get(profile.Username)
	if err != nil {
		return session.State{}, err
	}
	item := state.Dialogs.Checkout
	if item == nil {
		return state, ErrInvalidState
	}
	if details.ReceiverName == "" || details.Address == "" {
		return state, ErrInvalidInput
	}

	method := details.PaymentMethod
	if profile.Role == domain.RoleNGO {
		method = domain.PaymentDonationClaim
	} else if !domain.ValidPaymentMethod(method) {
		return state, ErrInvalidInput
	}

	order := domain.Order{
		OrderID:       s.tokens.Next("ORD"),
		MedicineName:  item.MedicineName,
		Status:        domain.OrderStatusInProgress,
		Date:          s.now().Format("1/2/2006"),
		ReceiverName:  details.ReceiverName,
		Address:       details.Address,
		PaymentMethod: method,
	}
	if len(item.ImageURLs) > 0 {
		order.ImageURL = item.ImageURLs[0]
	}

	if _, err := s.orders.Add(ctx, profile.Username, order); err != nil {
		return state, err
	}
	updated, err := s.stock.Remove(ctx, item.ID)
	if err != nil {
		return state, err
	}

	notice := "Purchase successful!"
	if profile.Role == domain.RoleNGO {
		notice = "Donation Claimed!"
	}
	return s.sessions.Dispatch(profile.Username, session.OrderPlaced{
		Order:  order,
		Stock:  updated,
		Notice: notice,
	})
}

// List заказы сессии, новые в начале
func (s *OrderService) List(ctx context.Context, profile domain.UserProfile) ([]domain.Order, error) {
	if !canOrder(profile.Role) {
		return nil, ErrForbidden
	}
	return s.orders.List(ctx, profile.Username)
}
