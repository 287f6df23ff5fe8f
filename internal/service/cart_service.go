package service

import (
	"context"
	"errors"
	"time"

	"github.com/devdazzlee/southen-sweet-sub000/internal/cache"
	"github.com/devdazzlee/southen-sweet-sub000/internal/domain"
	"github.com/devdazzlee/southen-sweet-sub000/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CartService owns the canonical cart state per session and mediates every
// mutation the storefront exposes. Mutations are independent of any network
// round trip; only discount state (handled elsewhere) depends on one.
type CartService struct {
	repo   repository.CartRepository
	cache  cache.CartCache
	logger *zap.SugaredLogger
	sfg    singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, logger *zap.SugaredLogger) *CartService {
	return &CartService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {

		cart, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warnw("cache get error", "error", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, sessionID)
		if errGet != nil && errors.Is(errGet, repository.ErrCartNotFound) { // not found cart return empty cart
			return &domain.Cart{
				SessionID: sessionID,
				Items:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet // err from repo is not cache miss, return it
		}

		// set cache
		go func() {
			errSet := s.cache.Set(context.Background(), sessionID, cart)
			if errSet != nil {
				s.logger.Warnw("cache set error", "error", errSet)
			}
		}()

		return cart, nil // cart was not in cache, return it from repo
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

func (s *CartService) AddItem(ctx context.Context, sessionID string, item domain.CartItem) error {
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	errAdd := s.repo.AddItem(ctx, sessionID, item)
	if errAdd != nil {
		s.logger.Errorw("repo add item error", "error", errAdd)
		return errAdd
	}

	s.invalidateCache(sessionID)
	return nil
}

// ChangeQuantity stores the new quantity, clamped to a minimum of 1. There
// is no client-side cap against stock; that is enforced at order submission.
func (s *CartService) ChangeQuantity(ctx context.Context, sessionID, productID string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	errUpdate := s.repo.UpdateItemQuantity(ctx, sessionID, productID, quantity)
	if errUpdate != nil {
		s.logger.Errorw("repo update item quantity error", "error", errUpdate)
		return errUpdate
	}

	s.invalidateCache(sessionID)
	return nil
}

// SetItemSelected toggles one item's selection flag. A missing product ID is
// a silent no-op.
func (s *CartService) SetItemSelected(ctx context.Context, sessionID, productID string, selected bool) error {
	errSet := s.repo.SetItemSelected(ctx, sessionID, productID, selected)
	if errSet != nil {
		if errors.Is(errSet, repository.ErrItemNotFound) {
			return nil
		}
		s.logger.Errorw("repo set item selected error", "error", errSet)
		return errSet
	}

	s.invalidateCache(sessionID)
	return nil
}

// SelectAll sets the selection flag on every item uniformly.
func (s *CartService) SelectAll(ctx context.Context, sessionID string, selected bool) error {
	errSelect := s.repo.SelectAll(ctx, sessionID, selected)
	if errSelect != nil {
		if errors.Is(errSelect, repository.ErrCartNotFound) {
			return nil
		}
		s.logger.Errorw("repo select all error", "error", errSelect)
		return errSelect
	}

	s.invalidateCache(sessionID)
	return nil
}

// RemoveItem removes the matching entry. Idempotent if the ID is absent.
func (s *CartService) RemoveItem(ctx context.Context, sessionID, productID string) error {
	errRemove := s.repo.RemoveItem(ctx, sessionID, productID)
	if errRemove != nil {
		if errors.Is(errRemove, repository.ErrCartNotFound) {
			return nil
		}
		s.logger.Errorw("repo remove item error", "error", errRemove)
		return errRemove
	}

	s.invalidateCache(sessionID)
	return nil
}

// DeleteSelected removes every entry with the selection flag set. The
// calling UI is responsible for confirming destructive actions.
func (s *CartService) DeleteSelected(ctx context.Context, sessionID string) error {
	errRemove := s.repo.RemoveSelected(ctx, sessionID)
	if errRemove != nil {
		if errors.Is(errRemove, repository.ErrCartNotFound) {
			return nil
		}
		s.logger.Errorw("repo remove selected error", "error", errRemove)
		return errRemove
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	errDelete := s.repo.DeleteCart(ctx, sessionID)
	if errDelete != nil {
		if errors.Is(errDelete, repository.ErrCartNotFound) {
			return nil
		}
		s.logger.Errorw("repo delete cart error", "error", errDelete)
		return errDelete
	}

	s.invalidateCache(sessionID)
	return nil
}

// Totals recomputes the checkout breakdown for the session's current items.
func (s *CartService) Totals(ctx context.Context, sessionID string, shipping domain.ShippingOption, discount *domain.Discount, opts domain.TotalsOptions) (domain.Totals, error) {
	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return domain.Totals{}, err
	}
	return domain.ComputeTotals(cart.Items, shipping, discount, opts), nil
}

func (s *CartService) invalidateCache(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	errInvalidate := s.cache.Delete(ctx, sessionID)
	if errInvalidate != nil {
		s.logger.Warnw("cache invalidate error", "error", errInvalidate)
	}
}
