package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/MikeMC777/printshop-orders/internal/apperr"
	"github.com/MikeMC777/printshop-orders/internal/httpx"
	prod "github.com/MikeMC777/printshop-orders/internal/product"
)

const staffKey = "catalog-key"

//
// ===== IN-MEMORY STUB REPO (implements product.Repository) =====
//

type stubRepo struct {
	items     map[string]*prod.Product
	lastQuery prod.Query
}

func newStubRepo() *stubRepo {
	return &stubRepo{items: make(map[string]*prod.Product)}
}

func (s *stubRepo) List(ctx context.Context, q prod.Query) ([]prod.Product, error) {
	s.lastQuery = q
	out := make([]prod.Product, 0, len(s.items))
	for _, v := range s.items {
		if v.Status == prod.StatusDeleted || (q.ActiveOnly && v.Status != prod.StatusActive) {
			continue
		}
		if q.Q != "" && !containsFold(v.Name, q.Q) && !containsFold(v.Description, q.Q) {
			continue
		}
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	start := q.Offset
	if start > len(out) {
		return []prod.Product{}, nil
	}
	end := start + q.Limit
	if end > len(out) || q.Limit <= 0 {
		end = len(out)
	}
	return out[start:end], nil
}

func (s *stubRepo) GetByID(ctx context.Context, id string) (*prod.Product, error) {
	p, ok := s.items[id]
	if !ok || p.Status == prod.StatusDeleted {
		return nil, fmt.Errorf("%w: %s", apperr.ErrProductNotFound, id)
	}
	cp := *p
	return &cp, nil
}

func (s *stubRepo) Create(ctx context.Context, p *prod.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = prod.StatusActive
	}
	cp := *p
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	s.items[p.ID] = &cp
	return nil
}

func (s *stubRepo) Update(ctx context.Context, id string, p prod.Patch) (*prod.Product, error) {
	cur, ok := s.items[id]
	if !ok || cur.Status == prod.StatusDeleted {
		return nil, fmt.Errorf("%w: %s", apperr.ErrProductNotFound, id)
	}
	if p.Name != nil {
		cur.Name = *p.Name
	}
	if p.Description != nil {
		cur.Description = *p.Description
	}
	if p.Price != nil {
		cur.Price = *p.Price
	}
	if p.Stock != nil {
		cur.Stock = *p.Stock
	}
	if p.Status != nil {
		cur.Status = *p.Status
	}
	cur.UpdatedAt = time.Now().UTC()
	cp := *cur
	return &cp, nil
}

func (s *stubRepo) Delete(ctx context.Context, id string) (bool, error) {
	p, ok := s.items[id]
	if !ok || p.Status == prod.StatusDeleted {
		return false, nil
	}
	p.Status = prod.StatusDeleted
	return true, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (s *stubRepo) seed(id, name, desc, price string, stock int) {
	_ = s.Create(context.Background(), &prod.Product{
		ID:          id,
		Name:        name,
		Description: desc,
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
	})
}

//
// ===== TEST ROUTER =====
//

func newTestRouter(t *testing.T, repo prod.Repository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hash, err := bcrypt.GenerateFromPassword([]byte(staffKey), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return newRouter(repo, httpx.NewAuthenticator(string(hash)), zap.NewNop())
}

func send(r *gin.Engine, method, path, body string, staff bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if staff {
		req.Header.Set(httpx.HeaderAPIKey, staffKey)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

//
// ===== TESTS =====
//

// /products paginates only; the text query never reaches the repo.
func TestListProducts_PaginationOnly_NoSearch(t *testing.T) {
	repo := newStubRepo()
	for i := 1; i <= 3; i++ {
		repo.seed(fmt.Sprintf("%d", i), fmt.Sprintf("Prod %d", i), "desc", "10.00", 5)
	}
	r := newTestRouter(t, repo)

	w := send(r, http.MethodGet, "/products?limit=2&offset=1&q=prod", "", false)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got prod.ListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(got.Items) != 2 || got.Limit != 2 || got.Offset != 1 {
		t.Fatalf("unexpected page: %+v", got)
	}
	if repo.lastQuery.Q != "" {
		t.Fatalf("listOnlyHandler must not search; Q=%q", repo.lastQuery.Q)
	}
	if !repo.lastQuery.ActiveOnly {
		t.Fatalf("public listing must hide drafts")
	}
}

// /products/search requires q of at least two characters.
func TestSearchProducts_RequiresQAndFilters(t *testing.T) {
	repo := newStubRepo()
	repo.seed("a", "Photo mug", "ceramic", "12.50", 5)
	repo.seed("b", "Poster", "satin paper", "18.90", 3)
	r := newTestRouter(t, repo)

	for _, path := range []string{"/products/search", "/products/search?q=m", "/products/search?q=%20m%20"} {
		if w := send(r, http.MethodGet, path, "", false); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, w.Code)
		}
	}

	w := send(r, http.MethodGet, "/products/search?q=MUG&limit=10", "", false)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got prod.ListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Q != "MUG" || len(got.Items) != 1 || got.Items[0].ID != "a" {
		t.Fatalf("unexpected result: q=%q items=%+v", got.Q, got.Items)
	}
}

func TestGetProduct_OK_And_NotFound(t *testing.T) {
	repo := newStubRepo()
	repo.seed("x", "Canvas print", "", "59.00", 7)
	r := newTestRouter(t, repo)

	if w := send(r, http.MethodGet, "/products/x", "", false); w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if w := send(r, http.MethodGet, "/products/nope", "", false); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestCreateProduct_Valid_And_Invalid(t *testing.T) {
	repo := newStubRepo()
	r := newTestRouter(t, repo)

	valid := `{"name":"Sticker sheet","description":"vinyl","price":"6.75","stock":10,"categories":["Stickers","stickers"]}`
	if w := send(r, http.MethodPost, "/products", valid, false); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", w.Code)
	}

	w := send(r, http.MethodPost, "/products", valid, true)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var created prod.Product
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.ID == "" || !created.Price.Equal(decimal.RequireFromString("6.75")) || len(created.Categories) != 1 {
		t.Fatalf("unexpected product: %+v", created)
	}

	for name, body := range map[string]string{
		"missing name and price": `{"description":"x","stock":1}`,
		"negative stock":         `{"name":"Bad","price":"1.00","stock":-1}`,
		"price not a number":     `{"name":"Bad","price":"cheap"}`,
		"deleted status":         `{"name":"Bad","price":"1.00","status":"deleted"}`,
	} {
		if w := send(r, http.MethodPost, "/products", body, true); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d body=%s", name, w.Code, w.Body.String())
		}
	}
}

// PUT is partial: omitted price keeps its value.
func TestUpdateProduct_Partial_WithAndWithoutPrice(t *testing.T) {
	repo := newStubRepo()
	repo.seed("p", "Mug", "", "10.00", 5)
	r := newTestRouter(t, repo)

	if w := send(r, http.MethodPut, "/products/p", `{"name":"Mug 2"}`, true); w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	got, _ := repo.GetByID(context.Background(), "p")
	if got.Name != "Mug 2" || !got.Price.Equal(decimal.RequireFromString("10")) || got.Stock != 5 {
		t.Fatalf("update without price not respected: %+v", got)
	}

	if w := send(r, http.MethodPut, "/products/p", `{"price":"12.50","stock":0}`, true); w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	got, _ = repo.GetByID(context.Background(), "p")
	if !got.Price.Equal(decimal.RequireFromString("12.50")) || got.Stock != 0 {
		t.Fatalf("update with price not applied: %+v", got)
	}

	if w := send(r, http.MethodPut, "/products/p", `{"stock":-3}`, true); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative stock, got %d body=%s", w.Code, w.Body.String())
	}
	if w := send(r, http.MethodPut, "/products/nope", `{"stock":1}`, true); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestDeleteProduct_OK_And_NotFound(t *testing.T) {
	repo := newStubRepo()
	repo.seed("del", "X", "", "1.00", 1)
	r := newTestRouter(t, repo)

	if w := send(r, http.MethodDelete, "/products/del", "", true); w.Code != http.StatusNoContent {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if w := send(r, http.MethodGet, "/products/del", "", false); w.Code != http.StatusNotFound {
		t.Fatalf("deleted product still visible: %d", w.Code)
	}
	if w := send(r, http.MethodDelete, "/products/del", "", true); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestWrites_CustomerForbidden(t *testing.T) {
	repo := newStubRepo()
	repo.seed("p", "Mug", "", "10.00", 5)
	r := newTestRouter(t, repo)

	req := httptest.NewRequest(http.MethodDelete, "/products/p", nil)
	req.Header.Set(httpx.HeaderUserID, "u-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a customer, got %d", w.Code)
	}
}
