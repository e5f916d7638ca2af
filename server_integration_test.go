package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"livrocaixa/models"

	"github.com/gin-gonic/gin"
)

// browser drives the router like a cookie-aware HTTP client, so session state
// carries across requests the way it does for a real user.
type browser struct {
	t       *testing.T
	engine  *gin.Engine
	cookies map[string]string
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for name, value := range b.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	w := httptest.NewRecorder()
	b.engine.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
		} else {
			b.cookies[c.Name] = c.Value
		}
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, path, nil)
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	return b.do(http.MethodPost, path, form)
}

func fmtUint(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func newTestServer(t *testing.T) (*app, *browser) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	a := newTestApp(t)
	stepClock(a)
	r := gin.New()
	r.LoadHTMLGlob("templates/*.html")
	a.setupRoutes(r)
	return a, &browser{t: t, engine: r, cookies: map[string]string{}}
}

func registerAndLogin(t *testing.T, b *browser, username, password string) {
	t.Helper()
	w := b.post("/register", url.Values{
		"username":         {username},
		"password":         {password},
		"confirm_password": {password},
	})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Fatalf("register: got %d -> %q, want 302 -> /login", w.Code, w.Header().Get("Location"))
	}
	w = b.post("/login", url.Values{"username": {username}, "password": {password}})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
		t.Fatalf("login: got %d -> %q, want 302 -> /", w.Code, w.Header().Get("Location"))
	}
}

func TestLoginRequiredRedirect(t *testing.T) {
	_, b := newTestServer(t)
	w := b.get("/novo")
	if w.Code != http.StatusFound {
		t.Fatalf("got status %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login?next=%2Fnovo" {
		t.Fatalf("got redirect %q, want /login?next=%%2Fnovo", loc)
	}
}

func TestWrongPassword(t *testing.T) {
	_, b := newTestServer(t)
	registerAndLogin(t, b, "joao", "senha123")
	b.get("/logout")

	w := b.post("/login", url.Values{"username": {"joao"}, "password": {"errada"}})
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Usuário ou senha incorretos.") {
		t.Fatalf("login page missing failure message, body: %s", w.Body.String())
	}
}

func TestRegisterPasswordLengthCountsCharacters(t *testing.T) {
	a, b := newTestServer(t)

	// five characters even though every one is two bytes in UTF-8
	w := b.post("/register", url.Values{
		"username":         {"joana"},
		"password":         {"ááááá"},
		"confirm_password": {"ááááá"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200 re-render", w.Code)
	}
	if !strings.Contains(w.Body.String(), "A senha deve ter pelo menos 6 caracteres.") {
		t.Fatalf("missing short-password error, body: %s", w.Body.String())
	}
	var count int64
	a.db.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Fatalf("short password created a user, count=%d", count)
	}

	w = b.post("/register", url.Values{
		"username":         {"joana"},
		"password":         {"áááááá"},
		"confirm_password": {"áááááá"},
	})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Fatalf("six-character password: got %d -> %q, want 302 -> /login", w.Code, w.Header().Get("Location"))
	}
}

func TestNotFoundShowsPendingFlash(t *testing.T) {
	_, b := newTestServer(t)

	// queues the login-required flash without following the redirect
	if w := b.get("/novo"); w.Code != http.StatusFound {
		t.Fatalf("got status %d, want 302", w.Code)
	}
	w := b.get("/rota-inexistente")
	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Por favor, faça login para acessar esta página.") {
		t.Fatalf("404 page swallowed the pending flash, body: %s", w.Body.String())
	}
}

func TestFullFlow(t *testing.T) {
	a, b := newTestServer(t)
	registerAndLogin(t, b, "maria", "senha123")

	// save a balance on a brand new account
	w := b.post("/salvar", url.Values{
		"account_mode":        {"new"},
		"codigo_conta":        {"caixa"},
		"descricao":           {"Caixa loja"},
		"amount":              {"1.234,56"},
		"balance_description": {"abertura"},
	})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
		t.Fatalf("salvar: got %d -> %q, want 302 -> /", w.Code, w.Header().Get("Location"))
	}

	var account models.Account
	if err := a.db.Where("code = ?", "CAIXA").First(&account).Error; err != nil {
		t.Fatalf("account CAIXA not persisted: %v", err)
	}
	var balance models.Balance
	if err := a.db.Where("account_id = ?", account.ID).First(&balance).Error; err != nil {
		t.Fatalf("balance not persisted: %v", err)
	}
	if got := balance.Value.StringFixed(2); got != "1234.56" {
		t.Fatalf("got stored value %s, want 1234.56", got)
	}

	w = b.get("/")
	body := w.Body.String()
	if !strings.Contains(body, "salvo com sucesso para a conta CAIXA") {
		t.Fatalf("listing missing success flash, body: %s", body)
	}
	if !strings.Contains(body, "R$ 1.234,56") {
		t.Fatalf("listing missing formatted balance, body: %s", body)
	}

	// append to the existing account from the listing
	w = b.post("/adicionar_saldo", url.Values{
		"conta_id": {fmtUint(account.ID)},
		"amount":   {"-50,00"},
	})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
		t.Fatalf("adicionar_saldo: got %d -> %q, want 302 -> /", w.Code, w.Header().Get("Location"))
	}
	body = b.get("/").Body.String()
	if !strings.Contains(body, "R$ -50,00") {
		t.Fatalf("listing missing new current balance, body: %s", body)
	}
	if !strings.Contains(body, "R$ 1.234,56") {
		t.Fatalf("listing missing previous balance, body: %s", body)
	}

	// per-account history page
	body = b.get("/conta/" + fmtUint(account.ID)).Body.String()
	if !strings.Contains(body, "CAIXA") || !strings.Contains(body, "R$ -50,00") {
		t.Fatalf("account page missing entries, body: %s", body)
	}

	// a missing account is a 404
	if w := b.get("/conta/9999"); w.Code != http.StatusNotFound {
		t.Fatalf("got status %d for unknown account, want 404", w.Code)
	}
}

func TestSalvarInvalidCreatesNothing(t *testing.T) {
	a, b := newTestServer(t)
	registerAndLogin(t, b, "maria", "senha123")

	w := b.post("/salvar", url.Values{
		"account_mode": {"new"},
		"codigo_conta": {"tem espaço"},
		"descricao":    {"Conta"},
		"amount":       {"abc"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200 re-render", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Código deve conter apenas letras, números, hífen e underscore.") {
		t.Fatalf("form missing code error, body: %s", body)
	}
	if !strings.Contains(body, "Valor deve conter números.") {
		t.Fatalf("form missing amount error, body: %s", body)
	}
	// submitted values come back prefilled
	if !strings.Contains(body, "tem espaço") {
		t.Fatalf("form lost submitted code, body: %s", body)
	}

	var accounts int64
	a.db.Model(&models.Account{}).Count(&accounts)
	var balances int64
	a.db.Model(&models.Balance{}).Count(&balances)
	if accounts != 0 || balances != 0 {
		t.Fatalf("invalid submit persisted rows: accounts=%d balances=%d", accounts, balances)
	}
}

func TestAdminFlow(t *testing.T) {
	a, b := newTestServer(t)

	admin := models.User{
		Username:     "admin",
		PasswordHash: hashPassword("admin123"),
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := a.db.Create(&admin).Error; err != nil {
		t.Fatalf("seeding admin: %v", err)
	}
	registerAndLogin(t, b, "joao", "senha123")

	// a regular user is bounced off the admin area
	w := b.get("/admin/usuarios")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
		t.Fatalf("non-admin: got %d -> %q, want 302 -> /", w.Code, w.Header().Get("Location"))
	}

	b.get("/logout")
	w = b.post("/login", url.Values{"username": {"admin"}, "password": {"admin123"}})
	if w.Code != http.StatusFound {
		t.Fatalf("admin login: got status %d, want 302", w.Code)
	}

	body := b.get("/admin/usuarios").Body.String()
	if !strings.Contains(body, "joao") {
		t.Fatalf("user listing missing joao, body: %s", body)
	}

	var joao models.User
	if err := a.db.Where("username = ?", "joao").First(&joao).Error; err != nil {
		t.Fatalf("loading joao: %v", err)
	}

	b.post("/admin/promover_usuario", url.Values{"user_id": {fmtUint(joao.ID)}})
	if err := a.db.First(&joao, joao.ID).Error; err != nil {
		t.Fatalf("reloading joao: %v", err)
	}
	if !joao.IsAdmin() {
		t.Fatalf("joao not promoted, role %q", joao.Role)
	}

	// promoting twice is a no-op with a warning
	b.post("/admin/promover_usuario", url.Values{"user_id": {fmtUint(joao.ID)}})
	body = b.get("/admin/usuarios").Body.String()
	if !strings.Contains(body, "já é um administrador") {
		t.Fatalf("missing already-admin warning, body: %s", body)
	}

	// self-deletion is rejected
	b.post("/admin/excluir_usuario", url.Values{"user_id": {fmtUint(admin.ID)}})
	body = b.get("/admin/usuarios").Body.String()
	if !strings.Contains(body, "Você não pode excluir sua própria conta.") {
		t.Fatalf("missing self-delete rejection, body: %s", body)
	}

	b.post("/admin/excluir_usuario", url.Values{"user_id": {fmtUint(joao.ID)}})
	if err := a.db.First(&joao, joao.ID).Error; err == nil {
		t.Fatalf("joao still present after deletion")
	}
}
