package review

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/paging"
)

type mockCatalog map[int64]*catalog.Coffee

func (m mockCatalog) Coffee(_ context.Context, id int64) (*catalog.Coffee, error) {
	c, ok := m[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return c, nil
}

type mockReviewRepo struct {
	reviews []*Review
	updates []Update
}

func (m *mockReviewRepo) Create(_ context.Context, r *Review) error {
	for _, existing := range m.reviews {
		if existing.UserID == r.UserID && existing.CoffeeID == r.CoffeeID {
			return ErrAlreadyReviewed
		}
	}
	r.ID = int64(len(m.reviews) + 1)
	m.reviews = append(m.reviews, r)
	return nil
}

func (m *mockReviewRepo) find(id, userID int64) *Review {
	for _, r := range m.reviews {
		if r.ID == id && r.UserID == userID {
			return r
		}
	}
	return nil
}

func (m *mockReviewRepo) Update(_ context.Context, id, userID int64, u Update) error {
	r := m.find(id, userID)
	if r == nil {
		return ErrNotFound
	}
	m.updates = append(m.updates, u)
	if u.Rating != nil {
		r.Rating = *u.Rating
	}
	if u.Comment != nil {
		r.Comment = u.Comment
	}
	return nil
}

func (m *mockReviewRepo) Delete(_ context.Context, id, userID int64) error {
	for i, r := range m.reviews {
		if r.ID == id && r.UserID == userID {
			m.reviews = append(m.reviews[:i], m.reviews[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockReviewRepo) Get(_ context.Context, id int64) (*Review, error) {
	for _, r := range m.reviews {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockReviewRepo) ListByCoffee(_ context.Context, coffeeID int64, _ paging.Page) ([]Review, error) {
	var out []Review
	for _, r := range m.reviews {
		if r.CoffeeID == coffeeID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockReviewRepo) ListByUser(_ context.Context, userID int64, _ paging.Page) ([]Review, error) {
	var out []Review
	for _, r := range m.reviews {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func testCatalog() mockCatalog {
	return mockCatalog{
		1: {ID: 1, Name: "Cappuccino", Price: decimal.RequireFromString("4.00"), IsAvailable: true},
	}
}

func ptr[T any](v T) *T { return &v }

func TestService_Create(t *testing.T) {
	repo := &mockReviewRepo{}
	svc := NewService(repo, testCatalog())

	r, err := svc.Create(context.Background(), &Review{UserID: 1, CoffeeID: 1, Rating: 5, Comment: ptr("Great")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.ID)

	_, err = svc.Create(context.Background(), &Review{UserID: 1, CoffeeID: 1, Rating: 3})
	require.ErrorIs(t, err, ErrAlreadyReviewed)

	_, err = svc.Create(context.Background(), &Review{UserID: 1, CoffeeID: 2, Rating: 3})
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestService_ByCoffee(t *testing.T) {
	repo := &mockReviewRepo{}
	svc := NewService(repo, testCatalog())
	_, err := svc.Create(context.Background(), &Review{UserID: 1, CoffeeID: 1, Rating: 4})
	require.NoError(t, err)

	c, reviews, err := svc.ByCoffee(context.Background(), 1, paging.New(0, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, "Cappuccino", c.Name)
	assert.Len(t, reviews, 1)

	_, _, err = svc.ByCoffee(context.Background(), 9, paging.New(0, 0, 10))
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestService_Update(t *testing.T) {
	repo := &mockReviewRepo{}
	svc := NewService(repo, testCatalog())
	created, err := svc.Create(context.Background(), &Review{UserID: 1, CoffeeID: 1, Rating: 2})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.ID, 1, Update{})
	require.ErrorIs(t, err, ErrNothingToUpdate)
	assert.Empty(t, repo.updates)

	_, err = svc.Update(context.Background(), created.ID, 2, Update{Rating: ptr(5)})
	require.ErrorIs(t, err, ErrNotFound)

	updated, err := svc.Update(context.Background(), created.ID, 1, Update{Rating: ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)
}

func TestService_Delete(t *testing.T) {
	repo := &mockReviewRepo{}
	svc := NewService(repo, testCatalog())
	created, err := svc.Create(context.Background(), &Review{UserID: 1, CoffeeID: 1, Rating: 2})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(context.Background(), created.ID, 2), ErrNotFound)
	require.NoError(t, svc.Delete(context.Background(), created.ID, 1))

	list, err := svc.ByUser(context.Background(), 1, paging.New(0, 0, 10))
	require.NoError(t, err)
	assert.Empty(t, list)
}
