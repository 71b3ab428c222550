package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"robostock-backend/internal/inventory/access"
	"robostock-backend/internal/platform/apperr"
	"robostock-backend/internal/platform/auth"
)

type stubParser map[string]access.Actor

func (p stubParser) ParseToken(_ context.Context, tok string) (*access.Actor, error) {
	a, ok := p[tok]
	if !ok {
		return nil, apperr.Unauthorized("bad token")
	}
	return &a, nil
}

// ownLinker maps every account to a fixed beneficiary id.
type ownLinker map[string]int64

func (l ownLinker) EnsureForAccount(_ context.Context, a access.Actor) (int64, error) {
	return l[a.AccountID], nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *memStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, st := newTestService()
	r := gin.New()
	r.Use(auth.Authenticate(stubParser{
		"staff": staff,
		"user":  {AccountID: "ravi", Role: access.RoleUser},
	}))
	RegisterRoutes(r, svc, access.NewGate(ownLinker{"ravi": 11}), nil)
	return r, st
}

func call(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) apperr.Code {
	t.Helper()
	var body struct {
		Error apperr.Error `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return body.Error.Code
}

func TestCheckoutEndpoint(t *testing.T) {
	r, st := newTestRouter(t)

	w := call(r, http.MethodPost, "/components/1/checkout", "staff", `{"beneficiary_id":10,"quantity":2}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("staff checkout = %d %s", w.Code, w.Body.String())
	}
	var tx TransactionResponse
	_ = json.Unmarshal(w.Body.Bytes(), &tx)
	if tx.BeneficiaryID != 10 || w.Header().Get("Location") != "/transactions/"+tx.TransactionULID {
		t.Fatalf("tx = %+v location=%q", tx, w.Header().Get("Location"))
	}

	// 本人利用は beneficiary_id 省略で自分のレコードになる
	w = call(r, http.MethodPost, "/components/1/checkout", "user", `{"quantity":1}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("self checkout = %d %s", w.Code, w.Body.String())
	}
	_ = json.Unmarshal(w.Body.Bytes(), &tx)
	if tx.BeneficiaryID != 11 {
		t.Fatalf("self checkout went to %d", tx.BeneficiaryID)
	}

	cases := []struct {
		name   string
		token  string
		body   string
		status int
		code   apperr.Code
	}{
		{"self for someone else", "user", `{"beneficiary_id":10,"quantity":1}`, http.StatusForbidden, apperr.CodeForbidden},
		{"anonymous", "", `{"quantity":1}`, http.StatusUnauthorized, apperr.CodeUnauthorized},
		{"fractional quantity", "staff", `{"beneficiary_id":10,"quantity":1.5}`, http.StatusBadRequest, apperr.CodeInvalidQuantity},
		{"string quantity", "staff", `{"beneficiary_id":10,"quantity":"two"}`, http.StatusBadRequest, apperr.CodeInvalidQuantity},
		{"zero quantity", "staff", `{"beneficiary_id":10,"quantity":0}`, http.StatusBadRequest, apperr.CodeInvalidQuantity},
		{"too many", "staff", `{"beneficiary_id":10,"quantity":50}`, http.StatusConflict, apperr.CodeInsufficientStock},
		{"staff without target", "staff", `{"quantity":1}`, http.StatusBadRequest, apperr.CodeInvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := call(r, http.MethodPost, "/components/1/checkout", tc.token, tc.body)
			if w.Code != tc.status || errCode(t, w) != tc.code {
				t.Fatalf("got %d %s", w.Code, w.Body.String())
			}
		})
	}
	if got := st.quantity(1); got != 2 {
		t.Fatalf("quantity = %d, want 2", got)
	}
}

func TestReturnEndpointIsStaffOnly(t *testing.T) {
	r, st := newTestRouter(t)
	w := call(r, http.MethodPost, "/components/1/checkout", "user", `{"quantity":2}`)
	var tx TransactionResponse
	_ = json.Unmarshal(w.Body.Bytes(), &tx)

	if w := call(r, http.MethodPost, "/transactions/"+tx.TransactionULID+"/return", "user", ""); w.Code != http.StatusForbidden {
		t.Fatalf("user return = %d", w.Code)
	}
	if w := call(r, http.MethodPost, "/transactions/"+tx.TransactionULID+"/return", "staff", ""); w.Code != http.StatusOK {
		t.Fatalf("staff return = %d %s", w.Code, w.Body.String())
	}
	w = call(r, http.MethodPost, "/transactions/"+tx.TransactionULID+"/return", "staff", "")
	if w.Code != http.StatusConflict || errCode(t, w) != apperr.CodeAlreadyReturned {
		t.Fatalf("second return = %d %s", w.Code, w.Body.String())
	}
	if got := st.quantity(1); got != 5 {
		t.Fatalf("quantity = %d", got)
	}
}

func TestTransactionVisibility(t *testing.T) {
	r, _ := newTestRouter(t)
	w := call(r, http.MethodPost, "/components/1/checkout", "staff", `{"beneficiary_id":10,"quantity":1}`)
	var other TransactionResponse
	_ = json.Unmarshal(w.Body.Bytes(), &other)
	w = call(r, http.MethodPost, "/components/1/checkout", "user", `{"quantity":1}`)
	var mine TransactionResponse
	_ = json.Unmarshal(w.Body.Bytes(), &mine)

	if w := call(r, http.MethodGet, "/transactions/"+mine.TransactionULID, "user", ""); w.Code != http.StatusOK {
		t.Fatalf("own tx = %d", w.Code)
	}
	if w := call(r, http.MethodGet, "/transactions/"+other.TransactionULID, "user", ""); w.Code != http.StatusForbidden {
		t.Fatalf("foreign tx = %d", w.Code)
	}
	if w := call(r, http.MethodGet, "/beneficiaries/10/transactions", "user", ""); w.Code != http.StatusForbidden {
		t.Fatalf("foreign history = %d", w.Code)
	}
	w = call(r, http.MethodGet, "/beneficiaries/11/transactions?status=open", "user", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), mine.TransactionULID) {
		t.Fatalf("own history = %d %s", w.Code, w.Body.String())
	}
	if w := call(r, http.MethodGet, "/beneficiaries/999/transactions", "staff", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing beneficiary history = %d", w.Code)
	}
	w = call(r, http.MethodGet, "/components/1/transactions/open", "user", "")
	var open struct {
		Items []TransactionResponse `json:"items"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &open)
	if w.Code != http.StatusOK || len(open.Items) != 2 {
		t.Fatalf("open = %d %+v", w.Code, open)
	}
}
