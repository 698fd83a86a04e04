package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saintdannyyy/shelta/internal/auth"
	"github.com/saintdannyyy/shelta/internal/config"
	"github.com/saintdannyyy/shelta/internal/db"
	"github.com/saintdannyyy/shelta/internal/realtime"
	"github.com/saintdannyyy/shelta/internal/repository"
)

func testConfig(t *testing.T) config.Config {
	return config.Config{
		HTTPAddr:        ":0",
		JWTSecret:       "test-secret",
		JWTIssuer:       "test-issuer",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		ExportDir:       t.TempDir(),
		AffordableMax:   75,
		StretchingMax:   90,
		LoanRatePercent: 15,
	}
}

func TestSignupLoginBrowseFlow(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()

	cfg := testConfig(t)
	store := repository.NewStore(pool)
	server := NewServer(cfg, store, realtime.NewFeed(nil))
	app := httptest.NewServer(server.Router())
	defer app.Close()

	stamp := time.Now().Format("150405.000000")

	// Landlord signs up and lists a property.
	resp := doReq(t, http.MethodPost, app.URL+"/auth/signup", "", map[string]interface{}{
		"role":            "landlord",
		"email":           "landlord." + stamp + "@example.local",
		"password":        "dev-password",
		"confirmPassword": "dev-password",
		"firstName":       "Ama",
		"lastName":        "Mensah",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("landlord signup: expected 201, got %d", resp.StatusCode)
	}
	var landlordAuth struct {
		AccessToken string `json:"accessToken"`
		Home        string `json:"home"`
	}
	decodeBody(t, resp, &landlordAuth)
	if landlordAuth.Home != "/dashboard/landlord" {
		t.Fatalf("expected landlord home, got %s", landlordAuth.Home)
	}

	resp = doReq(t, http.MethodPost, app.URL+"/properties", landlordAuth.AccessToken, map[string]interface{}{
		"address":    "12 Oxford St, Osu " + stamp,
		"bedrooms":   2,
		"bathrooms":  1,
		"rentAmount": 900,
		"qolScore":   80,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create property: expected 201, got %d", resp.StatusCode)
	}

	// Tenant with a declared budget signs up.
	incomeMax := int64(1200)
	resp = doReq(t, http.MethodPost, app.URL+"/auth/signup", "", map[string]interface{}{
		"role":            "tenant",
		"email":           "tenant." + stamp + "@example.local",
		"password":        "dev-password",
		"confirmPassword": "dev-password",
		"firstName":       "Kofi",
		"lastName":        "Asante",
		"incomeMin":       600,
		"incomeMax":       incomeMax,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("tenant signup: expected 201, got %d", resp.StatusCode)
	}
	var tenantAuth struct {
		AccessToken string `json:"accessToken"`
	}
	decodeBody(t, resp, &tenantAuth)

	// Tenant browses: the 900-rent unit against a 1200 budget sits at 75%,
	// the top of the affordable band.
	resp = doReq(t, http.MethodGet, app.URL+"/properties?search=Osu+"+stamp, tenantAuth.AccessToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("browse: expected 200, got %d", resp.StatusCode)
	}
	var listings []struct {
		RentAmount    int64  `json:"rentAmount"`
		AffordPercent *int   `json:"affordPercent"`
		AffordVerdict string `json:"affordVerdict"`
	}
	decodeBody(t, resp, &listings)
	if len(listings) != 1 {
		t.Fatalf("expected one listing, got %d", len(listings))
	}
	if listings[0].AffordPercent == nil || *listings[0].AffordPercent != 75 {
		t.Fatalf("expected afford percent 75, got %+v", listings[0].AffordPercent)
	}
	if listings[0].AffordVerdict != "affordable" {
		t.Fatalf("expected affordable verdict, got %s", listings[0].AffordVerdict)
	}

	// Tenant cannot use landlord routes; the response carries the tenant's
	// own dashboard path.
	resp = doReq(t, http.MethodPost, app.URL+"/properties", tenantAuth.AccessToken, map[string]interface{}{
		"address":    "nope",
		"rentAmount": 100,
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("role gate: expected 403, got %d", resp.StatusCode)
	}
	var gate struct {
		Redirect string `json:"redirect"`
	}
	decodeBody(t, resp, &gate)
	if gate.Redirect != "/dashboard/tenant" {
		t.Fatalf("expected tenant redirect, got %s", gate.Redirect)
	}

	// Loan estimate is pure math behind the tenant gate.
	resp = doReq(t, http.MethodPost, app.URL+"/loans/estimate", tenantAuth.AccessToken, map[string]interface{}{
		"loanAmount":      1000,
		"interestPercent": 15,
		"termMonths":      6,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("estimate: expected 200, got %d", resp.StatusCode)
	}
	var estimate struct {
		Interest       float64 `json:"interest"`
		TotalRepayable float64 `json:"totalRepayable"`
		MonthlyPayment float64 `json:"monthlyPayment"`
	}
	decodeBody(t, resp, &estimate)
	if estimate.Interest != 150 || estimate.TotalRepayable != 1150 {
		t.Fatalf("expected flat interest 150 on 1000, got %+v", estimate)
	}

	resp = doReq(t, http.MethodPost, app.URL+"/loans/estimate", tenantAuth.AccessToken, map[string]interface{}{
		"loanAmount":      1000,
		"interestPercent": 15,
		"termMonths":      0,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("zero term: expected 400, got %d", resp.StatusCode)
	}

	// Without redis the change stream is down, not broken.
	resp = doReq(t, http.MethodGet, app.URL+"/events/properties", tenantAuth.AccessToken, nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("events without redis: expected 503, got %d", resp.StatusCode)
	}
}

func TestSignupRejectsForeignRoleFields(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()

	cfg := testConfig(t)
	store := repository.NewStore(pool)
	server := NewServer(cfg, store, realtime.NewFeed(nil))
	app := httptest.NewServer(server.Router())
	defer app.Close()

	stamp := time.Now().Format("150405.000000")

	// A landlord payload carrying the tenant step's income fields.
	resp := doReq(t, http.MethodPost, app.URL+"/auth/signup", "", map[string]interface{}{
		"role":            "landlord",
		"email":           "foreign1." + stamp + "@example.local",
		"password":        "dev-password",
		"confirmPassword": "dev-password",
		"firstName":       "Ama",
		"lastName":        "Mensah",
		"incomeMin":       500,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("landlord with income fields: expected 400, got %d", resp.StatusCode)
	}

	// A tenant payload carrying the provider step's business fields.
	resp = doReq(t, http.MethodPost, app.URL+"/auth/signup", "", map[string]interface{}{
		"role":            "tenant",
		"email":           "foreign2." + stamp + "@example.local",
		"password":        "dev-password",
		"confirmPassword": "dev-password",
		"firstName":       "Kofi",
		"lastName":        "Asante",
		"businessName":    "Kofi Fixes",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("tenant with provider fields: expected 400, got %d", resp.StatusCode)
	}

	// A provider signup creates the account and its marketplace profile
	// together.
	resp = doReq(t, http.MethodPost, app.URL+"/auth/signup", "", map[string]interface{}{
		"role":            "provider",
		"email":           "provider." + stamp + "@example.local",
		"password":        "dev-password",
		"confirmPassword": "dev-password",
		"firstName":       "Yaw",
		"lastName":        "Darko",
		"businessName":    "Darko Plumbing " + stamp,
		"skills":          []string{"plumbing"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("provider signup: expected 201, got %d", resp.StatusCode)
	}
	var providerAuth struct {
		AccessToken string `json:"accessToken"`
	}
	decodeBody(t, resp, &providerAuth)

	resp = doReq(t, http.MethodGet, app.URL+"/providers?search=Darko+Plumbing+"+stamp, providerAuth.AccessToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list providers: expected 200, got %d", resp.StatusCode)
	}
	var providers []struct {
		Name string `json:"name"`
	}
	decodeBody(t, resp, &providers)
	if len(providers) != 1 {
		t.Fatalf("expected the new provider profile, got %d results", len(providers))
	}
}

func TestUpdateMeIncomeValidation(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()

	cfg := testConfig(t)
	store := repository.NewStore(pool)
	server := NewServer(cfg, store, realtime.NewFeed(nil))
	app := httptest.NewServer(server.Router())
	defer app.Close()

	stamp := time.Now().Format("150405.000000")

	resp := doReq(t, http.MethodPost, app.URL+"/auth/signup", "", map[string]interface{}{
		"role":            "tenant",
		"email":           "income." + stamp + "@example.local",
		"password":        "dev-password",
		"confirmPassword": "dev-password",
		"firstName":       "Efua",
		"lastName":        "Owusu",
		"incomeMin":       600,
		"incomeMax":       1200,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("tenant signup: expected 201, got %d", resp.StatusCode)
	}
	var tenantAuth struct {
		AccessToken string `json:"accessToken"`
	}
	decodeBody(t, resp, &tenantAuth)

	// Inverted range is rejected outright.
	resp = doReq(t, http.MethodPatch, app.URL+"/auth/me", tenantAuth.AccessToken, map[string]interface{}{
		"incomeMin": 2000,
		"incomeMax": 1000,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("inverted range: expected 400, got %d", resp.StatusCode)
	}

	// Partial update checked against the stored other bound: min 1500 over
	// the existing max of 1200.
	resp = doReq(t, http.MethodPatch, app.URL+"/auth/me", tenantAuth.AccessToken, map[string]interface{}{
		"incomeMin": 1500,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("partial inverted range: expected 400, got %d", resp.StatusCode)
	}

	resp = doReq(t, http.MethodPost, app.URL+"/auth/signup", "", map[string]interface{}{
		"role":            "landlord",
		"email":           "noinc." + stamp + "@example.local",
		"password":        "dev-password",
		"confirmPassword": "dev-password",
		"firstName":       "Ama",
		"lastName":        "Mensah",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("landlord signup: expected 201, got %d", resp.StatusCode)
	}
	var landlordAuth struct {
		AccessToken string `json:"accessToken"`
	}
	decodeBody(t, resp, &landlordAuth)

	// Income range stays tenant-only after signup too.
	resp = doReq(t, http.MethodPatch, app.URL+"/auth/me", landlordAuth.AccessToken, map[string]interface{}{
		"incomeMin": 500,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("landlord income update: expected 400, got %d", resp.StatusCode)
	}
}

func TestLoanStatusNotFound(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()

	cfg := testConfig(t)
	store := repository.NewStore(pool)
	server := NewServer(cfg, store, realtime.NewFeed(nil))
	app := httptest.NewServer(server.Router())
	defer app.Close()

	stamp := time.Now().Format("150405.000000")

	resp := doReq(t, http.MethodPost, app.URL+"/auth/signup", "", map[string]interface{}{
		"role":            "agent",
		"email":           "agent." + stamp + "@example.local",
		"password":        "dev-password",
		"confirmPassword": "dev-password",
		"firstName":       "Akua",
		"lastName":        "Addo",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("agent signup: expected 201, got %d", resp.StatusCode)
	}
	var agentAuth struct {
		AccessToken string `json:"accessToken"`
	}
	decodeBody(t, resp, &agentAuth)

	resp = doReq(t, http.MethodPatch, app.URL+"/loans/00000000-0000-0000-0000-000000000000/status", agentAuth.AccessToken, map[string]interface{}{
		"status": "approved",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("nonexistent loan: expected 404, got %d", resp.StatusCode)
	}
	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &body)
	if body.Error != "loan_not_found" {
		t.Fatalf("expected loan_not_found, got %s", body.Error)
	}
}

func TestRefreshAndLogout(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()

	cfg := testConfig(t)
	store := repository.NewStore(pool)
	server := NewServer(cfg, store, realtime.NewFeed(nil))
	app := httptest.NewServer(server.Router())
	defer app.Close()

	stamp := time.Now().Format("150405.000000")
	email := "refresh." + stamp + "@example.local"

	resp := doReq(t, http.MethodPost, app.URL+"/auth/signup", "", map[string]interface{}{
		"role":            "tenant",
		"email":           email,
		"password":        "dev-password",
		"confirmPassword": "dev-password",
		"firstName":       "Efua",
		"lastName":        "Owusu",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d", resp.StatusCode)
	}
	var signup struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	decodeBody(t, resp, &signup)

	// Rotate the refresh token.
	resp = doReq(t, http.MethodPost, app.URL+"/auth/refresh", "", map[string]interface{}{
		"refreshToken": signup.RefreshToken,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d", resp.StatusCode)
	}

	// The old token is single-use.
	resp = doReq(t, http.MethodPost, app.URL+"/auth/refresh", "", map[string]interface{}{
		"refreshToken": signup.RefreshToken,
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("replayed refresh: expected 401, got %d", resp.StatusCode)
	}

	resp = doReq(t, http.MethodPost, app.URL+"/auth/logout", signup.AccessToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}
}

func TestAuthMiddlewareRejections(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()

	cfg := testConfig(t)
	store := repository.NewStore(pool)
	server := NewServer(cfg, store, realtime.NewFeed(nil))
	app := httptest.NewServer(server.Router())
	defer app.Close()

	resp := doReq(t, http.MethodGet, app.URL+"/auth/me", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", resp.StatusCode)
	}

	resp = doReq(t, http.MethodGet, app.URL+"/auth/me", "not-a-jwt", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", resp.StatusCode)
	}

	// A valid token for a deleted profile bounces to login.
	orphan := mustToken(t, cfg, "00000000-0000-0000-0000-000000000000", "tenant")
	resp = doReq(t, http.MethodGet, app.URL+"/auth/me", orphan, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("orphan token: expected 401, got %d", resp.StatusCode)
	}
	var body struct {
		Error    string `json:"error"`
		Redirect string `json:"redirect"`
	}
	decodeBody(t, resp, &body)
	if body.Error != "profile_missing" || body.Redirect != "/login" {
		t.Fatalf("expected login redirect, got %+v", body)
	}
}

func openTestDB(t *testing.T) *pgxpool.Pool {
	url := os.Getenv("SHELTA_TEST_DB")
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		t.Skip("SHELTA_TEST_DB or DATABASE_URL not set")
		return nil
	}
	pool, err := db.NewPool(context.Background(), url)
	if err != nil {
		t.Skipf("db unavailable: %v", err)
		return nil
	}
	return pool
}

func mustToken(t *testing.T, cfg config.Config, userID, role string) string {
	token, err := auth.NewAccessToken(cfg.JWTSecret, cfg.JWTIssuer, 10*time.Minute, auth.Claims{
		UserID: userID,
		Role:   role,
	})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	return token
}

func doReq(t *testing.T, method, url, token string, body interface{}) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode error: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("http error: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode error: %v", err)
	}
}
