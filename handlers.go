package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"livrocaixa/models"
	"livrocaixa/pkg/money"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const perPage = 20

// app bundles the shared dependencies behind the HTTP handlers.
type app struct {
	db       *gorm.DB
	log      *zap.Logger
	secret   []byte
	accounts *accountService
	balances *balanceService
}

func newApp(db *gorm.DB, log *zap.Logger, secret []byte) *app {
	return &app{
		db:       db,
		log:      log,
		secret:   secret,
		accounts: &accountService{db: db, log: log},
		balances: &balanceService{db: db, log: log, now: time.Now},
	}
}

func (a *app) setupRoutes(r *gin.Engine) {
	r.Use(gin.CustomRecovery(a.serverError))
	r.Use(a.sessions())

	r.GET("/login", a.loginForm)
	r.POST("/login", a.login)
	r.GET("/logout", a.logout)
	r.GET("/register", a.registerForm)
	r.POST("/register", a.register)

	auth := r.Group("", a.loginRequired())
	auth.GET("/", a.index)
	auth.GET("/novo", a.novo)
	auth.POST("/salvar", a.salvar)
	auth.POST("/adicionar_saldo", a.adicionarSaldo)
	auth.GET("/conta/:id", a.verConta)

	admin := r.Group("/admin", a.adminRequired())
	admin.GET("/usuarios", a.adminUsuarios)
	admin.POST("/promover_usuario", a.promoverUsuario)
	admin.POST("/excluir_usuario", a.excluirUsuario)

	r.NoRoute(a.notFound)
}

// render flushes pending flash messages into the view and saves the session
// cookie before the body is written.
func (a *app) render(c *gin.Context, status int, view string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	s := currentSession(c)
	data["Flashes"] = s.TakeFlashes()
	data["Username"] = s.Username()
	data["IsAdmin"] = s.Role() == models.RoleAdmin
	s.Save(c)
	c.HTML(status, view, data)
}

func (a *app) redirect(c *gin.Context, location string) {
	currentSession(c).Save(c)
	c.Redirect(http.StatusFound, location)
}

func (a *app) notFound(c *gin.Context) {
	a.render(c, http.StatusNotFound, "404.html", nil)
	c.Abort()
}

func (a *app) fail500(c *gin.Context, err error) {
	a.log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	a.render(c, http.StatusInternalServerError, "500.html", nil)
	c.Abort()
}

func (a *app) serverError(c *gin.Context, err any) {
	a.log.Error("panic recovered", zap.String("path", c.Request.URL.Path), zap.Any("error", err))
	c.HTML(http.StatusInternalServerError, "500.html", gin.H{"Flashes": []Flash{}})
	c.Abort()
}

func (a *app) loginForm(c *gin.Context) {
	if _, ok := currentSession(c).UserID(); ok {
		a.redirect(c, "/")
		return
	}
	a.render(c, http.StatusOK, "login.html", gin.H{"Next": c.Query("next")})
}

func (a *app) login(c *gin.Context) {
	s := currentSession(c)
	if _, ok := s.UserID(); ok {
		a.redirect(c, "/")
		return
	}
	username := strings.TrimSpace(c.PostForm("username"))
	password := strings.TrimSpace(c.PostForm("password"))

	user, ok := a.authenticate(username, password)
	if !ok {
		s.Flash("danger", "Usuário ou senha incorretos.")
		a.render(c, http.StatusOK, "login.html", gin.H{"Next": c.Query("next")})
		return
	}
	s.SignIn(user)
	s.Flash("success", "Login realizado com sucesso!")
	next := c.Query("next")
	if next == "" || !strings.HasPrefix(next, "/") {
		next = "/"
	}
	a.redirect(c, next)
}

func (a *app) logout(c *gin.Context) {
	s := currentSession(c)
	s.Clear()
	s.Flash("info", "Você foi desconectado com sucesso.")
	a.redirect(c, "/login")
}

func (a *app) registerForm(c *gin.Context) {
	if _, ok := currentSession(c).UserID(); ok {
		a.redirect(c, "/")
		return
	}
	a.render(c, http.StatusOK, "register.html", nil)
}

func (a *app) register(c *gin.Context) {
	s := currentSession(c)
	if _, ok := s.UserID(); ok {
		a.redirect(c, "/")
		return
	}

	username := strings.TrimSpace(c.PostForm("username"))
	password := strings.TrimSpace(c.PostForm("password"))
	confirm := strings.TrimSpace(c.PostForm("confirm_password"))

	var errs []string
	switch {
	case username == "":
		errs = append(errs, "O nome de usuário é obrigatório.")
	case utf8.RuneCountInString(username) < 3:
		errs = append(errs, "O nome de usuário deve ter pelo menos 3 caracteres.")
	default:
		var count int64
		if err := a.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			a.fail500(c, err)
			return
		}
		if count > 0 {
			errs = append(errs, "Este nome de usuário já está em uso.")
		}
	}
	switch {
	case password == "":
		errs = append(errs, "A senha é obrigatória.")
	case utf8.RuneCountInString(password) < 6:
		errs = append(errs, "A senha deve ter pelo menos 6 caracteres.")
	case password != confirm:
		errs = append(errs, "As senhas não coincidem.")
	}
	if len(errs) > 0 {
		for _, e := range errs {
			s.Flash("danger", e)
		}
		a.render(c, http.StatusOK, "register.html", nil)
		return
	}

	user := models.User{
		Username:     username,
		PasswordHash: hashPassword(password),
		Role:         models.RoleNormal,
		Active:       true,
	}
	if err := a.db.Create(&user).Error; err != nil {
		// Two registrations racing on the same name hit the unique index.
		if isUniqueConstraintError(err) {
			s.Flash("danger", "Este nome de usuário já está em uso.")
		} else {
			a.log.Error("user insert failed", zap.String("username", username), zap.Error(err))
			s.Flash("danger", "Erro interno ao criar a conta. Tente novamente.")
		}
		a.render(c, http.StatusOK, "register.html", nil)
		return
	}
	s.Flash("success", "Conta criada com sucesso! Faça login para continuar.")
	a.redirect(c, "/login")
}

// accountView is a listing row: a view model over the account with formatted
// balances, so the persisted entity is never mutated for display.
type accountView struct {
	models.Account
	CurrentBalance   string
	PreviousBalances string
}

func (a *app) index(c *gin.Context) {
	accounts, err := a.accounts.Active()
	if err != nil {
		a.fail500(c, err)
		return
	}

	views := make([]accountView, 0, len(accounts))
	for _, account := range accounts {
		view := accountView{
			Account:          account,
			CurrentBalance:   "R$ 0,00",
			PreviousBalances: "Nenhum registro anterior",
		}
		history, err := a.balances.History(account.ID)
		if err != nil {
			a.fail500(c, err)
			return
		}
		if len(history) > 0 {
			view.CurrentBalance = money.Format(history[0].Value)
			if len(history) > 1 {
				previous := make([]string, 0, len(history)-1)
				for _, entry := range history[1:] {
					previous = append(previous, money.Format(entry.Value))
				}
				view.PreviousBalances = strings.Join(previous, ", ")
			}
		}
		views = append(views, view)
	}
	a.render(c, http.StatusOK, "index.html", gin.H{"Accounts": views})
}

// oldForm carries submitted values back into the form after a failed save.
type oldForm struct {
	AccountMode        string
	AccountID          string
	Code               string
	Description        string
	Amount             string
	BalanceDescription string
}

func (a *app) novo(c *gin.Context) {
	accounts, err := a.accounts.Active()
	if err != nil {
		a.fail500(c, err)
		return
	}
	old := oldForm{AccountMode: "existing", AccountID: c.Query("conta_id")}
	a.render(c, http.StatusOK, "form.html", gin.H{"Accounts": accounts, "Old": old})
}

func (a *app) salvar(c *gin.Context) {
	s := currentSession(c)
	mode := c.DefaultPostForm("account_mode", "existing")
	accountID := c.PostForm("conta_id")
	rawCode := strings.TrimSpace(c.PostForm("codigo_conta"))
	rawDescription := strings.TrimSpace(c.PostForm("descricao"))
	rawAmount := strings.TrimSpace(c.PostForm("amount"))
	balanceDescription := strings.TrimSpace(c.PostForm("balance_description"))

	var errs []string
	var account *models.Account

	value, amountErr := validateAmount(rawAmount)
	if amountErr != "" {
		errs = append(errs, amountErr)
	}

	switch mode {
	case "existing":
		if accountID == "" {
			errs = append(errs, "Selecione uma conta existente.")
		} else if id, err := strconv.Atoi(accountID); err != nil {
			errs = append(errs, "ID de conta inválido.")
		} else if found, err := a.accounts.ActiveByID(uint(id)); err != nil {
			errs = append(errs, "Conta selecionada é inválida ou inativa.")
		} else {
			account = found
		}
	case "new":
		// One transaction around get-or-create: if anything on the form is
		// invalid, the rollback guarantees no account row survives.
		txErr := a.db.Transaction(func(tx *gorm.DB) error {
			created, accountErrs := a.accounts.GetOrCreate(tx, rawCode, rawDescription)
			errs = append(errs, accountErrs...)
			if len(errs) > 0 {
				return errAbortSave
			}
			account = created
			return nil
		})
		if txErr != nil && !errors.Is(txErr, errAbortSave) {
			a.log.Error("account creation commit failed", zap.String("code", rawCode), zap.Error(txErr))
			errs = append(errs, msgAccountInternal)
			account = nil
		}
	default:
		errs = append(errs, "Modo de seleção de conta inválido.")
	}

	if len(errs) > 0 {
		for _, e := range errs {
			s.Flash("danger", e)
		}
		accounts, err := a.accounts.Active()
		if err != nil {
			a.fail500(c, err)
			return
		}
		old := oldForm{
			AccountMode:        mode,
			AccountID:          accountID,
			Code:               rawCode,
			Description:        rawDescription,
			Amount:             rawAmount,
			BalanceDescription: balanceDescription,
		}
		a.render(c, http.StatusOK, "form.html", gin.H{"Accounts": accounts, "Old": old})
		return
	}

	ok, saveErrs := a.balances.Create(account, value, balanceDescription)
	if !ok {
		for _, e := range saveErrs {
			s.Flash("danger", e)
		}
		a.redirect(c, "/novo")
		return
	}
	s.Flash("success", fmt.Sprintf("Saldo de %s salvo com sucesso para a conta %s!", money.Format(value), account.Code))
	a.redirect(c, "/")
}

func (a *app) adicionarSaldo(c *gin.Context) {
	s := currentSession(c)
	accountID := c.PostForm("conta_id")
	rawAmount := strings.TrimSpace(c.PostForm("amount"))
	balanceDescription := strings.TrimSpace(c.PostForm("balance_description"))

	if accountID == "" {
		s.Flash("danger", "Erro: ID da conta não informado.")
		a.redirect(c, "/")
		return
	}
	id, err := strconv.Atoi(accountID)
	if err != nil {
		s.Flash("danger", "Erro: ID de conta inválido.")
		a.redirect(c, "/")
		return
	}
	account, err := a.accounts.ActiveByID(uint(id))
	if err != nil {
		s.Flash("danger", "Erro: Conta não encontrada ou inativa.")
		a.redirect(c, "/")
		return
	}
	value, amountErr := validateAmount(rawAmount)
	if amountErr != "" {
		s.Flash("danger", "Erro no valor: "+amountErr)
		a.redirect(c, "/")
		return
	}

	if ok, saveErrs := a.balances.Create(account, value, balanceDescription); !ok {
		for _, e := range saveErrs {
			s.Flash("danger", "Erro ao salvar: "+e)
		}
	} else {
		s.Flash("success", fmt.Sprintf("Novo saldo de %s adicionado com sucesso para a conta %s!", money.Format(value), account.Code))
	}
	a.redirect(c, "/")
}

// balanceView formats one history row for display.
type balanceView struct {
	Date        string
	Time        string
	Value       string
	Description string
}

func balanceViews(items []models.Balance) []balanceView {
	views := make([]balanceView, 0, len(items))
	for _, b := range items {
		views = append(views, balanceView{
			Date:        b.Date.Format("02/01/2006"),
			Time:        b.Time,
			Value:       money.Format(b.Value),
			Description: b.Description,
		})
	}
	return views
}

func (a *app) verConta(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		a.notFound(c)
		return
	}
	account, err := a.accounts.ActiveByID(uint(id))
	if err != nil {
		a.notFound(c)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pg, err := a.balances.AccountPage(account.ID, page, perPage)
	if err != nil {
		a.fail500(c, err)
		return
	}
	a.render(c, http.StatusOK, "account_detail.html", gin.H{
		"Account": account,
		"Page":    pg,
		"Entries": balanceViews(pg.Items),
	})
}

func (a *app) adminUsuarios(c *gin.Context) {
	var users []models.User
	if err := a.db.Order("username").Find(&users).Error; err != nil {
		a.fail500(c, err)
		return
	}
	sessionID, _ := currentSession(c).UserID()
	a.render(c, http.StatusOK, "admin_users.html", gin.H{"Users": users, "SessionUserID": sessionID})
}

func (a *app) promoverUsuario(c *gin.Context) {
	s := currentSession(c)
	rawID := c.PostForm("user_id")
	if rawID == "" {
		s.Flash("danger", "ID de usuário não fornecido.")
		a.redirect(c, "/admin/usuarios")
		return
	}
	id, err := strconv.Atoi(rawID)
	if err != nil {
		s.Flash("danger", "Usuário não encontrado.")
		a.redirect(c, "/admin/usuarios")
		return
	}
	var user models.User
	if err := a.db.First(&user, id).Error; err != nil {
		s.Flash("danger", "Usuário não encontrado.")
		a.redirect(c, "/admin/usuarios")
		return
	}
	if user.IsAdmin() {
		s.Flash("warning", fmt.Sprintf("O usuário %s já é um administrador.", user.Username))
		a.redirect(c, "/admin/usuarios")
		return
	}
	if err := a.db.Model(&user).Update("role", models.RoleAdmin).Error; err != nil {
		a.log.Error("user promotion failed", zap.Uint("user_id", user.ID), zap.Error(err))
		s.Flash("danger", "Ocorreu um erro ao promover o usuário. Tente novamente.")
		a.redirect(c, "/admin/usuarios")
		return
	}
	a.log.Info("user promoted to admin",
		zap.String("by", s.Username()),
		zap.String("username", user.Username))
	s.Flash("success", fmt.Sprintf("Usuário %s promovido a administrador com sucesso!", user.Username))
	a.redirect(c, "/admin/usuarios")
}

func (a *app) excluirUsuario(c *gin.Context) {
	s := currentSession(c)
	rawID := c.PostForm("user_id")
	if rawID == "" {
		s.Flash("danger", "ID de usuário não fornecido.")
		a.redirect(c, "/admin/usuarios")
		return
	}
	id, err := strconv.Atoi(rawID)
	if err != nil {
		s.Flash("danger", "Usuário não encontrado.")
		a.redirect(c, "/admin/usuarios")
		return
	}
	if sessionID, _ := s.UserID(); uint(id) == sessionID {
		s.Flash("danger", "Você não pode excluir sua própria conta.")
		a.redirect(c, "/admin/usuarios")
		return
	}
	var user models.User
	if err := a.db.First(&user, id).Error; err != nil {
		s.Flash("danger", "Usuário não encontrado.")
		a.redirect(c, "/admin/usuarios")
		return
	}
	if err := a.db.Delete(&user).Error; err != nil {
		a.log.Error("user deletion failed", zap.Uint("user_id", user.ID), zap.Error(err))
		s.Flash("danger", "Ocorreu um erro ao excluir o usuário.")
	} else {
		s.Flash("success", fmt.Sprintf("Usuário %s excluído com sucesso.", user.Username))
	}
	a.redirect(c, "/admin/usuarios")
}
