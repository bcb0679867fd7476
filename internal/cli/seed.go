package cli

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/asaidimu/go-listquery/core/schema"
	"github.com/asaidimu/go-listquery/utils"
	"github.com/google/uuid"
)

// seedNamespace scopes the name-based UUIDs of demo records.
var seedNamespace = uuid.MustParse("6f1c2a0e-58b4-4d0c-9c1e-3b7d2f0a9e41")

var seedEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type demoProduct struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Brand       string    `json:"brand"`
	InStock     bool      `json:"inStock"`
	CreatedAt   time.Time `json:"createdAt"`
	SupplierID  string    `json:"supplierId"`
}

type demoOrder struct {
	ID        string    `json:"id"`
	Reference string    `json:"reference"`
	Status    string    `json:"status"`
	Total     float64   `json:"total"`
	CreatedAt time.Time `json:"createdAt"`
	UserID    string    `json:"userId"`
}

type demoUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

var (
	categories = []string{"shirts", "shoes", "hats", "bags"}
	brands     = []string{"acme", "globex", "initech", "umbrella"}
	adjectives = []string{"Classic", "Slim", "Rugged", "Soft", "Vintage"}
	statuses   = []string{"pending", "paid", "shipped", "cancelled"}
	roles      = []string{"customer", "customer", "customer", "staff", "admin"}
	firstNames = []string{"Amani", "Baraka", "Chiku", "Dalia", "Eshe", "Femi"}
)

func demoUserID(i int) string {
	return uuid.NewSHA1(seedNamespace, []byte(fmt.Sprintf("user-%d", i))).String()
}

// SeedDocuments returns n deterministic demo records for each resource of the
// built-in catalog. The same n always yields the same records.
func SeedDocuments(n int) (map[string][]schema.Document, error) {
	rng := rand.New(rand.NewPCG(uint64(n), 0x5eed))
	out := map[string][]schema.Document{}

	add := func(resource string, record any) error {
		doc, err := utils.EncodeRecord(record)
		if err != nil {
			return fmt.Errorf("failed to encode %s record: %w", resource, err)
		}
		out[resource] = append(out[resource], schema.Document(doc))
		return nil
	}

	for i := 1; i <= n; i++ {
		category := categories[rng.IntN(len(categories))]
		p := demoProduct{
			ID:          fmt.Sprintf("%024x", i),
			Name:        fmt.Sprintf("%s %s #%d", adjectives[rng.IntN(len(adjectives))], category, i),
			Description: fmt.Sprintf("A %s from the %s range", category, brands[i%len(brands)]),
			Price:       float64(rng.IntN(20000)) / 100,
			Category:    category,
			Brand:       brands[i%len(brands)],
			InStock:     rng.IntN(3) > 0,
			CreatedAt:   seedEpoch.Add(time.Duration(i) * 6 * time.Hour),
			SupplierID:  fmt.Sprintf("%024x", 0xa000+i%5),
		}
		if err := add("products", p); err != nil {
			return nil, err
		}
	}

	for i := 1; i <= n; i++ {
		first := firstNames[i%len(firstNames)]
		u := demoUser{
			ID:        demoUserID(i),
			Name:      fmt.Sprintf("%s %03d", first, i),
			Email:     fmt.Sprintf("%s.%03d@example.com", first, i),
			Role:      roles[rng.IntN(len(roles))],
			Active:    rng.IntN(4) > 0,
			CreatedAt: seedEpoch.Add(time.Duration(i) * 24 * time.Hour),
		}
		if err := add("users", u); err != nil {
			return nil, err
		}
	}

	for i := 1; i <= n; i++ {
		o := demoOrder{
			ID:        uuid.NewSHA1(seedNamespace, []byte(fmt.Sprintf("order-%d", i))).String(),
			Reference: fmt.Sprintf("ORD-%05d", i),
			Status:    statuses[rng.IntN(len(statuses))],
			Total:     float64(rng.IntN(50000)) / 100,
			CreatedAt: seedEpoch.Add(time.Duration(i) * 3 * time.Hour),
			UserID:    demoUserID(1 + rng.IntN(n)),
		}
		if err := add("orders", o); err != nil {
			return nil, err
		}
	}
	return out, nil
}
