package repository

import (
	"context"
	"sync"
	"time"

	"github.com/zahran001/e-commerce/cart-service/internal/domain"
)

// MemoryRepository implements CartRepository with in-memory storage. It keeps
// the same semantics as the postgres implementation (atomic accumulate,
// header cascade) and backs unit tests and local runs without a database.
type MemoryRepository struct {
	mu           sync.RWMutex
	headers      map[string]*domain.CartHeader // userID -> header
	lines        map[int64][]domain.CartLine   // headerID -> lines
	nextHeaderID int64
	nextLineID   int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		headers: make(map[string]*domain.CartHeader),
		lines:   make(map[int64][]domain.CartLine),
	}
}

func (m *MemoryRepository) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	header, ok := m.headers[userID]
	if !ok {
		return nil, ErrCartNotFound
	}
	return m.snapshot(header), nil
}

func (m *MemoryRepository) UpsertItem(_ context.Context, userID string, productID int64, quantity int) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	header, ok := m.headers[userID]
	if !ok {
		m.nextHeaderID++
		header = &domain.CartHeader{
			ID:        m.nextHeaderID,
			UserID:    userID,
			CreatedAt: now,
		}
		m.headers[userID] = header
	}
	header.UpdatedAt = now

	lines := m.lines[header.ID]
	merged := false
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		m.nextLineID++
		lines = append(lines, domain.CartLine{
			ID:        m.nextLineID,
			HeaderID:  header.ID,
			ProductID: productID,
			Quantity:  quantity,
		})
	}
	m.lines[header.ID] = lines

	return m.snapshot(header), nil
}

func (m *MemoryRepository) RemoveLine(_ context.Context, lineID int64) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for headerID, lines := range m.lines {
		for i, line := range lines {
			if line.ID != lineID {
				continue
			}
			owner := ""
			for userID, header := range m.headers {
				if header.ID == headerID {
					owner = userID
					break
				}
			}
			lines = append(lines[:i], lines[i+1:]...)
			if len(lines) == 0 {
				delete(m.lines, headerID)
				delete(m.headers, owner)
			} else {
				m.lines[headerID] = lines
			}
			return owner, true, nil
		}
	}
	return "", false, nil
}

func (m *MemoryRepository) SetCoupon(_ context.Context, userID, couponCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	header, ok := m.headers[userID]
	if !ok {
		return ErrCartNotFound
	}
	header.CouponCode = couponCode
	header.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepository) Close() error {
	return nil
}

// snapshot copies the aggregate so callers never alias internal state.
func (m *MemoryRepository) snapshot(header *domain.CartHeader) *domain.Cart {
	cart := &domain.Cart{Header: *header}
	cart.Lines = append(cart.Lines, m.lines[header.ID]...)
	return cart
}
