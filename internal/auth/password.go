package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// Hasher binds the bcrypt cost and keeps a dummy hash at the same cost, so a
// login for an unknown email costs as much as one for a known email.
type Hasher struct {
	cost      int
	dummyOnce sync.Once
	dummy     string
}

// NewHasher builds a hasher; out of range costs fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Cost returns the configured bcrypt cost.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash hashes plain with the configured cost.
func (h *Hasher) Hash(plain string) (string, error) {
	return HashPassword(plain, h.cost)
}

// Compare verifies plain against hashed.
func (h *Hasher) Compare(hashed, plain string) error {
	return ComparePassword(hashed, plain)
}

// CompareDummy runs a comparison whose result is discarded.
func (h *Hasher) CompareDummy(plain string) {
	h.dummyOnce.Do(func() {
		hashed, err := HashPassword("incident-service-dummy-password", h.cost)
		if err == nil {
			h.dummy = hashed
		}
	})
	if h.dummy == "" {
		return
	}
	_ = ComparePassword(h.dummy, plain)
}
