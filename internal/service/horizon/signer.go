package horizon

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"LumenTrade/internal/domain/models"
	"LumenTrade/internal/domain/repository"
)

// Signer holds the ed25519 key used to sign manage-offer envelopes. The seed
// never leaves this package.
type Signer struct {
	key ed25519.PrivateKey
}

// NewSigner derives the keypair from a 32-byte hex-encoded seed.
func NewSigner(seedHex string) (*Signer, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("decode signing seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("signing seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &Signer{key: ed25519.NewKeyFromSeed(seed)}, nil
}

// PublicKeyHex returns the account public key in hex.
func (s *Signer) PublicKeyHex() string {
	return hex.EncodeToString(s.key.Public().(ed25519.PublicKey))
}

// manageOfferPayload is the canonical serialization that gets signed. Field
// order is fixed by the struct; the ledger verifies the signature over these
// exact bytes.
type manageOfferPayload struct {
	Selling  string `json:"selling"`
	Buying   string `json:"buying"`
	Side     string `json:"side"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
	OfferID  int64  `json:"offer_id"`
	IssuedAt int64  `json:"issued_at"`
}

// Builder implements repository.EnvelopeBuilder over the signer.
type Builder struct {
	signer *Signer
	now    func() time.Time
}

func NewBuilder(signer *Signer) *Builder {
	return &Builder{signer: signer, now: time.Now}
}

// BuildManageOffer serializes and signs the intent. The envelope is
// base64(payload) + "." + base64(signature), opaque to everything upstream.
func (b *Builder) BuildManageOffer(intent models.OrderIntent) (repository.SignedEnvelope, error) {
	if intent.Quantity.Sign() <= 0 || intent.Price.Sign() <= 0 {
		return repository.SignedEnvelope{}, fmt.Errorf("non-positive quantity or price in order intent")
	}

	payload := manageOfferPayload{
		Selling:  intent.Pair.Base.String(),
		Buying:   intent.Pair.Counter.String(),
		Side:     string(intent.Side),
		Quantity: intent.Quantity.String(),
		Price:    intent.Price.String(),
		OfferID:  intent.OfferID,
		IssuedAt: b.now().Unix(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return repository.SignedEnvelope{}, fmt.Errorf("marshal offer payload: %w", err)
	}

	sig := ed25519.Sign(b.signer.key, raw)
	env := base64.StdEncoding.EncodeToString(raw) + "." + base64.StdEncoding.EncodeToString(sig)
	return repository.SignedEnvelope{Base64: env}, nil
}
