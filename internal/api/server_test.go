package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/breeding-verifier/internal/host"
	"github.com/danielpatrickdp/breeding-verifier/internal/journal"
	"github.com/danielpatrickdp/breeding-verifier/internal/prover"
	"github.com/danielpatrickdp/breeding-verifier/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// #region helpers
const scenarioABody = `{
	"parentA": {"traits": [85, 78, 72, 80, 60, 75, 82, 70], "generation": 0, "id": 7},
	"parentB": {"traits": [92, 87, 85, 88, 65, 94, 85, 75], "generation": 0, "id": 9},
	"child":   {"traits": [88, 82, 78, 84, 62, 84, 83, 72], "generation": 1}
}`

func newTestServer(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	p := host.New(prover.NewLocal(nil, nil), host.WithRecorder(s), host.WithLockedMemory(false))
	return NewServer(p, s, nil, 0).Router(""), s
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/zk/prove", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func decodeHex(t *testing.T, s string) []byte {
	t.Helper()
	require.True(t, strings.HasPrefix(s, "0x"))
	b, err := hex.DecodeString(s[2:])
	require.NoError(t, err)
	return b
}

// #endregion helpers

func TestProve_ScenarioA(t *testing.T) {
	r, s := newTestServer(t)

	w := post(r, scenarioABody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ProveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.Proof.IsValid)
	assert.Equal(t, uint64(7), resp.Proof.ParentAID)
	assert.Equal(t, uint64(9), resp.Proof.ParentBID)
	assert.Equal(t, uint32(1), resp.Proof.ChildGeneration)
	assert.Equal(t, uint8(0), resp.Proof.MutationCount)
	assert.Equal(t, resp.Proof.Commitment, resp.PublicOutputs.ChildCommitment)
	assert.Equal(t, [2]uint64{7, 9}, resp.PublicOutputs.ParentIDs)
	assert.Len(t, resp.PrivateInputs, 4)

	jrnl := decodeHex(t, resp.Proof.Journal)
	rec, err := journal.Decode(jrnl)
	require.NoError(t, err)
	assert.Equal(t, resp.Proof.Commitment, rec.CommitmentHex())

	seal, err := prover.ParseMockSeal(decodeHex(t, resp.Proof.Seal))
	require.NoError(t, err)
	assert.Equal(t, prover.JournalDigest(jrnl), seal.JournalDigest)

	require.NotEmpty(t, resp.Proof.ID)
	rows, err := s.ListProofsWithProvenance(10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "api", rows[0].TriggerType)
	assert.Equal(t, "valid", rows[0].Decision)
	assert.Equal(t, "0 mutations", rows[0].Reason)
}

func TestProve_DefaultParentIDs(t *testing.T) {
	r, _ := newTestServer(t)
	body := `{
		"parentA": {"traits": [50,50,50,50,50,50,50,50], "generation": 2, "id": 0},
		"parentB": {"traits": [50,50,50,50,50,50,50,50], "generation": 3},
		"child":   {"traits": [50,50,50,50,50,50,50,50], "generation": 4}
	}`

	w := post(r, body)
	require.Equal(t, http.StatusOK, w.Code)
	var resp ProveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint64(DefaultParentAID), resp.Proof.ParentAID)
	assert.Equal(t, uint64(DefaultParentBID), resp.Proof.ParentBID)
	assert.True(t, resp.Proof.IsValid)
}

func TestProve_InvalidBreedingIs200(t *testing.T) {
	r, _ := newTestServer(t)
	body := strings.Replace(scenarioABody, `"generation": 1`, `"generation": 0`, 1)

	w := post(r, body)
	require.Equal(t, http.StatusOK, w.Code)
	var resp ProveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Proof.IsValid)
	assert.False(t, resp.PublicOutputs.BreedingValid)
}

func TestProve_IntakeValidation(t *testing.T) {
	r, _ := newTestServer(t)

	cases := map[string]string{
		"not json":          `{`,
		"missing child":     `{"parentA": {"traits": [1,2,3,4,5,6,7,8], "generation": 0}, "parentB": {"traits": [1,2,3,4,5,6,7,8], "generation": 0}}`,
		"seven traits":      strings.Replace(scenarioABody, `[88, 82, 78, 84, 62, 84, 83, 72]`, `[88, 82, 78, 84, 62, 84, 83]`, 1),
		"trait above 100":   strings.Replace(scenarioABody, `[88, 82`, `[150, 82`, 1),
		"negative trait":    strings.Replace(scenarioABody, `[88, 82`, `[-1, 82`, 1),
		"fractional trait":  strings.Replace(scenarioABody, `[88, 82`, `[88.5, 82`, 1),
		"negative gen":      strings.Replace(scenarioABody, `"generation": 1`, `"generation": -1`, 1),
		"missing gen":       strings.Replace(scenarioABody, `, "generation": 1`, ``, 1),
		"generation string": strings.Replace(scenarioABody, `"generation": 1`, `"generation": "1"`, 1),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := post(r, body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "Invalid input format", resp.Error)
			assert.NotNil(t, resp.Expected)
		})
	}
}

func TestProve_BackendError(t *testing.T) {
	backend := prover.BackendFunc(func(ctx context.Context, in []byte) (prover.Receipt, error) {
		return prover.Receipt{}, errors.New("prover offline")
	})
	p := host.New(backend, host.WithLockedMemory(false))
	r := NewServer(p, nil, nil, 0).Router("")

	w := post(r, scenarioABody)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to generate proof", resp.Error)
	assert.Contains(t, resp.Details, "prover offline")
}

func TestGetProof(t *testing.T) {
	r, _ := newTestServer(t)

	w := post(r, scenarioABody)
	require.Equal(t, http.StatusOK, w.Code)
	var created ProveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = get(r, "/api/proofs/"+created.Proof.ID)
	require.Equal(t, http.StatusOK, w.Code)
	var got ProofBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, created.Proof, got)

	w = get(r, "/api/proofs/does-not-exist")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	r, _ := newTestServer(t)

	w := get(r, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	post(r, scenarioABody)
	w = get(r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "breeder_proofs_total")
}
