package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/favorite"
	"github.com/xenking/coffee-shop/internal/domain/order"
	"github.com/xenking/coffee-shop/internal/domain/pricing"
	"github.com/xenking/coffee-shop/internal/domain/review"
	"github.com/xenking/coffee-shop/internal/domain/user"
	"github.com/xenking/coffee-shop/internal/storage/postgres"
)

const seedPassword = "password123"

type categorySeed struct {
	name        string
	description string
}

type coffeeSeed struct {
	name        string
	category    string
	description string
	price       string
}

type userSeed struct {
	email    string
	username string
}

type orderSeed struct {
	user   int
	status order.Status
	items  []itemSeed
}

type itemSeed struct {
	coffee   int
	quantity int
	size     pricing.CupSize
	sugar    pricing.SugarLevel
}

type favoriteSeed struct {
	user, coffee int
	size         pricing.CupSize
	sugar        pricing.SugarLevel
}

type reviewSeed struct {
	user, coffee int
	order        int // index into orders, -1 for none
	rating       int
	comment      string
}

var categories = []categorySeed{
	{"Coffee", "Classic brewed coffee varieties"},
	{"Cappuccino", "Espresso with steamed milk foam"},
	{"Espresso", "Strong concentrated coffee shots"},
	{"Latte", "Espresso with steamed milk"},
	{"Tea", "Various tea selections"},
}

var coffees = []coffeeSeed{
	{"House Blend", "Coffee", "Our signature medium roast blend", "3.50"},
	{"Dark Roast", "Coffee", "Bold and rich dark roast", "3.75"},
	{"Colombian Supreme", "Coffee", "Premium Colombian beans", "4.25"},
	{"French Vanilla", "Coffee", "Smooth vanilla flavored coffee", "4.00"},
	{"Classic Cappuccino", "Cappuccino", "Traditional Italian cappuccino", "4.50"},
	{"Caramel Cappuccino", "Cappuccino", "Sweet caramel infused cappuccino", "5.00"},
	{"Mocha Cappuccino", "Cappuccino", "Chocolate and espresso blend", "5.25"},
	{"Single Espresso", "Espresso", "One shot of pure espresso", "2.50"},
	{"Double Espresso", "Espresso", "Two shots of intense espresso", "3.50"},
	{"Americano", "Espresso", "Espresso with hot water", "3.75"},
	{"Macchiato", "Espresso", "Espresso with a dollop of foam", "3.25"},
	{"Caffè Latte", "Latte", "Classic espresso and steamed milk", "4.75"},
	{"Vanilla Latte", "Latte", "Latte with vanilla syrup", "5.25"},
	{"Hazelnut Latte", "Latte", "Nutty hazelnut flavored latte", "5.25"},
	{"Caramel Latte", "Latte", "Sweet caramel latte", "5.50"},
	{"Green Tea", "Tea", "Refreshing green tea", "2.75"},
	{"Earl Grey", "Tea", "Classic black tea with bergamot", "2.75"},
	{"Chamomile", "Tea", "Soothing herbal tea", "3.00"},
	{"Chai Latte", "Tea", "Spiced tea with steamed milk", "4.50"},
}

var users = []userSeed{
	{"john.doe@example.com", "johndoe"},
	{"jane.smith@example.com", "janesmith"},
	{"bob.wilson@example.com", "bobwilson"},
	{"alice.brown@example.com", "alicebrown"},
	{"charlie.davis@example.com", "charliedavis"},
}

var orders = []orderSeed{
	{0, order.StatusCompleted, []itemSeed{{0, 2, pricing.CupMedium, pricing.SugarLow}, {4, 1, pricing.CupLarge, pricing.SugarMedium}}},
	{1, order.StatusCompleted, []itemSeed{{11, 1, pricing.CupSmall, pricing.SugarNone}}},
	{0, order.StatusCompleted, []itemSeed{{2, 3, pricing.CupMedium, pricing.SugarMedium}, {8, 2, pricing.CupSmall, pricing.SugarNone}}},
	{2, order.StatusPreparing, []itemSeed{{5, 2, pricing.CupLarge, pricing.SugarHigh}}},
	{3, order.StatusReady, []itemSeed{{12, 1, pricing.CupMedium, pricing.SugarLow}, {15, 1, pricing.CupMedium, pricing.SugarNone}}},
	{1, order.StatusCompleted, []itemSeed{{6, 1, pricing.CupLarge, pricing.SugarMedium}, {13, 1, pricing.CupMedium, pricing.SugarLow}}},
	{4, order.StatusCompleted, []itemSeed{{1, 2, pricing.CupSmall, pricing.SugarNone}}},
}

var favorites = []favoriteSeed{
	{0, 0, pricing.CupMedium, pricing.SugarLow},
	{0, 4, pricing.CupLarge, pricing.SugarMedium},
	{1, 11, pricing.CupMedium, pricing.SugarNone},
	{1, 12, pricing.CupLarge, pricing.SugarLow},
	{2, 5, pricing.CupLarge, pricing.SugarHigh},
	{3, 13, pricing.CupMedium, pricing.SugarLow},
	{4, 1, pricing.CupSmall, pricing.SugarNone},
}

var reviews = []reviewSeed{
	{0, 0, 0, 5, "Excellent house blend! Perfect for my morning routine."},
	{0, 4, 0, 4, "Great cappuccino, very smooth and creamy."},
	{1, 11, 1, 5, "Best latte in town! The milk is perfectly steamed."},
	{0, 2, 2, 5, "Colombian Supreme lives up to its name. Rich and flavorful!"},
	{0, 8, 2, 4, "Strong espresso, just what I needed."},
	{2, 5, 3, 4, "Love the caramel flavor, not too sweet."},
	{1, 6, 5, 5, "Mocha cappuccino is divine! Perfect chocolate balance."},
	{1, 13, 5, 4, "Hazelnut latte is delicious and aromatic."},
	{4, 1, 6, 5, "Dark roast is bold and satisfying. My favorite!"},
	{3, 12, -1, 5, "Classic latte done right. Smooth and creamy."},
	{2, 9, -1, 3, "Good americano, but could be stronger."},
	{4, 15, -1, 4, "Earl Grey is refreshing and well-balanced."},
	{3, 14, -1, 5, "Vanilla latte is my go-to drink. Always consistent!"},
	{2, 7, -1, 4, "Single espresso packs a punch. Great quality beans."},
	{4, 3, -1, 4, "French Vanilla is smooth and not overly sweet."},
	{1, 16, -1, 5, "Green tea is fresh and calming. Perfect afternoon drink."},
	{0, 10, -1, 4, "Macchiato has the perfect espresso to foam ratio."},
	{3, 18, -1, 5, "Chai latte is perfectly spiced and warming."},
}

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully", slog.String("password", seedPassword))
}

func run(ctx context.Context, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL, postgres.PoolConfig{})
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("clearing existing data")
	if err := postgres.Truncate(ctx, pool); err != nil {
		return err
	}

	s, err := newSeeder(pool)
	if err != nil {
		return err
	}
	return s.seed(ctx)
}

type seeder struct {
	catalog   *postgres.CatalogRepository
	users     *user.Service
	orders    *order.Service
	favorites *favorite.Service
	reviews   *review.Service

	coffeeIDs []int64
	userIDs   []int64
	orderIDs  []int64
}

func newSeeder(pool *pgxpool.Pool) (*seeder, error) {
	catalogRepo := postgres.NewCatalogRepository(pool)

	// Only used to satisfy the user service; seeded sessions are discarded.
	tokens, err := user.NewTokens("seed-db", 0)
	if err != nil {
		return nil, err
	}
	orderService, err := order.NewService(postgres.NewOrderRepository(pool), catalogRepo)
	if err != nil {
		return nil, errors.Wrap(err, "create order service")
	}

	return &seeder{
		catalog:   catalogRepo,
		users:     user.NewService(postgres.NewUserRepository(pool), user.BcryptHasher{}, tokens),
		orders:    orderService,
		favorites: favorite.NewService(postgres.NewFavoriteRepository(pool), catalogRepo),
		reviews:   review.NewService(postgres.NewReviewRepository(pool), catalogRepo),
	}, nil
}

func (s *seeder) seed(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"catalog", s.seedCatalog},
		{"users", s.seedUsers},
		{"orders", s.seedOrders},
		{"favorites", s.seedFavorites},
		{"reviews", s.seedReviews},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return errors.Wrapf(err, "seed %s", step.name)
		}
	}
	return nil
}

func (s *seeder) seedCatalog(ctx context.Context) error {
	categoryIDs := make(map[string]int64, len(categories))
	for _, c := range categories {
		cat := &catalog.Category{Name: c.name, Description: c.description}
		if err := s.catalog.UpsertCategory(ctx, cat); err != nil {
			return err
		}
		categoryIDs[c.name] = cat.ID
		slog.Info("upserted category", slog.String("name", c.name))
	}

	for _, c := range coffees {
		categoryID := categoryIDs[c.category]
		coffee := &catalog.Coffee{
			Name:        c.name,
			Description: c.description,
			Price:       decimal.RequireFromString(c.price),
			CategoryID:  &categoryID,
			IsAvailable: true,
		}
		if err := s.catalog.UpsertCoffee(ctx, coffee); err != nil {
			return err
		}
		s.coffeeIDs = append(s.coffeeIDs, coffee.ID)
		slog.Info("upserted coffee", slog.String("name", c.name), slog.String("price", c.price))
	}
	return nil
}

func (s *seeder) seedUsers(ctx context.Context) error {
	for _, u := range users {
		sess, err := s.users.Register(ctx, user.RegisterRequest{
			Email:    u.email,
			Username: u.username,
			Password: seedPassword,
		})
		if err != nil {
			return errors.Wrapf(err, "register %s", u.username)
		}
		s.userIDs = append(s.userIDs, sess.User.ID)
		slog.Info("registered user", slog.String("username", u.username), slog.String("email", u.email))
	}
	return nil
}

func (s *seeder) seedOrders(ctx context.Context) error {
	for _, o := range orders {
		items := make([]pricing.LineItem, len(o.items))
		for i, it := range o.items {
			items[i] = pricing.LineItem{
				CoffeeID:   s.coffeeIDs[it.coffee],
				Quantity:   it.quantity,
				CupSize:    it.size,
				SugarLevel: it.sugar,
			}
		}

		p, err := s.orders.PlaceOrder(ctx, s.userIDs[o.user], items)
		if err != nil {
			return err
		}
		if err := s.orders.SetStatus(ctx, p.Order.ID, o.status); err != nil {
			return err
		}
		s.orderIDs = append(s.orderIDs, p.Order.ID)
		slog.Info("placed order",
			slog.String("number", p.Order.Number),
			slog.String("status", string(o.status)),
			slog.String("final_price", p.Order.FinalPrice.StringFixed(2)),
		)
	}
	return nil
}

func (s *seeder) seedFavorites(ctx context.Context) error {
	for _, f := range favorites {
		if err := s.favorites.Add(ctx, &favorite.Favorite{
			UserID:         s.userIDs[f.user],
			CoffeeID:       s.coffeeIDs[f.coffee],
			PreferredSize:  f.size,
			PreferredSugar: f.sugar,
		}); err != nil {
			return err
		}
	}
	slog.Info("added favorites", slog.Int("count", len(favorites)))
	return nil
}

func (s *seeder) seedReviews(ctx context.Context) error {
	for _, r := range reviews {
		rv := &review.Review{
			UserID:   s.userIDs[r.user],
			CoffeeID: s.coffeeIDs[r.coffee],
			Rating:   r.rating,
			Comment:  &r.comment,
		}
		if r.order >= 0 {
			rv.OrderID = &s.orderIDs[r.order]
		}
		if _, err := s.reviews.Create(ctx, rv); err != nil {
			return err
		}
	}
	slog.Info("added reviews", slog.Int("count", len(reviews)))
	return nil
}
