package api

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/danielpatrickdp/breeding-verifier/internal/dna"
	"github.com/danielpatrickdp/breeding-verifier/internal/host"
)

// Default parent ids substituted when a request omits them or sends zero.
const (
	DefaultParentAID = 1
	DefaultParentBID = 2
)

// #region request
// AgentInput is one trait vector as posted by clients. ID is ignored on the child.
type AgentInput struct {
	Traits     []int   `json:"traits" validate:"required,len=8,dive,trait"`
	Generation *int64  `json:"generation" validate:"required,gte=0,lte=4294967295"`
	ID         *uint64 `json:"id,omitempty"`
}

// ProveRequest is the body of POST /api/zk/prove.
type ProveRequest struct {
	ParentA *AgentInput `json:"parentA" validate:"required"`
	ParentB *AgentInput `json:"parentB" validate:"required"`
	Child   *AgentInput `json:"child" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// trait values live in 0..100 at intake even though the wire form holds a byte
	if err := v.RegisterValidation("trait", validTrait); err != nil {
		panic(fmt.Sprintf("register trait validation: %v", err))
	}
	return v
}

func validTrait(fl validator.FieldLevel) bool {
	n := fl.Field().Int()
	return n >= 0 && n <= dna.TraitMax
}

// Validate checks the request against the intake rules.
func (r *ProveRequest) Validate() error {
	return validate.Struct(r)
}

// HostRequest converts a validated request, applying default parent ids.
func (r *ProveRequest) HostRequest() (host.Request, error) {
	a, err := r.ParentA.vector()
	if err != nil {
		return host.Request{}, fmt.Errorf("parentA: %w", err)
	}
	b, err := r.ParentB.vector()
	if err != nil {
		return host.Request{}, fmt.Errorf("parentB: %w", err)
	}
	c, err := r.Child.vector()
	if err != nil {
		return host.Request{}, fmt.Errorf("child: %w", err)
	}
	return host.Request{
		ParentA:   a,
		ParentB:   b,
		Child:     c,
		ParentAID: r.ParentA.id(DefaultParentAID),
		ParentBID: r.ParentB.id(DefaultParentBID),
	}, nil
}

func (a *AgentInput) vector() (dna.TraitVector, error) {
	return dna.FromInts(a.Traits, uint32(*a.Generation))
}

func (a *AgentInput) id(fallback uint64) uint64 {
	if a.ID == nil || *a.ID == 0 {
		return fallback
	}
	return *a.ID
}

// expectedShape is returned with every 400 so clients can correct the body.
var expectedShape = map[string]any{
	"parentA": map[string]string{"traits": "number[8] (0-100)", "generation": "number", "id": "number"},
	"parentB": map[string]string{"traits": "number[8] (0-100)", "generation": "number", "id": "number"},
	"child":   map[string]string{"traits": "number[8] (0-100)", "generation": "number"},
}

// #endregion request

// #region response
// ProofBody is the proof as returned over HTTP. Byte fields are 0x-prefixed hex.
type ProofBody struct {
	ID              string `json:"id,omitempty"`
	Seal            string `json:"seal"`
	Journal         string `json:"journal"`
	Commitment      string `json:"commitment"`
	IsValid         bool   `json:"isValid"`
	ParentAID       uint64 `json:"parentAId"`
	ParentBID       uint64 `json:"parentBId"`
	ChildGeneration uint32 `json:"childGeneration"`
	MutationCount   uint8  `json:"mutationCount"`
}

// PublicOutputs restates what the public record discloses.
type PublicOutputs struct {
	ChildCommitment string    `json:"childCommitment"`
	ParentIDs       [2]uint64 `json:"parentIds"`
	Generation      uint32    `json:"generation"`
	BreedingValid   bool      `json:"breedingValid"`
}

// ProveResponse is the 200 body of POST /api/zk/prove.
type ProveResponse struct {
	Success       bool          `json:"success"`
	Proof         ProofBody     `json:"proof"`
	PublicOutputs PublicOutputs `json:"publicOutputs"`
	PrivateInputs []string      `json:"privateInputs"`
}

// privateInputs names what stays hidden behind the commitment.
var privateInputs = []string{
	"Exact trait values of Parent A",
	"Exact trait values of Parent B",
	"Exact trait values of Child",
	"Which parent contributed which traits",
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error    string `json:"error"`
	Details  string `json:"details,omitempty"`
	Expected any    `json:"expected,omitempty"`
}

// #endregion response
