package main

import (
	"errors"
	"fmt"
	"time"

	"livrocaixa/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	msgAccountInternal = "Erro interno ao processar a conta."
	msgBalanceInternal = "Erro interno ao salvar o saldo."
)

// errAbortSave signals the surrounding transaction to roll back because input
// validation failed; nothing may be persisted in that case.
var errAbortSave = errors.New("validation failed")

// accountService owns account lookups and the get-or-create flow.
type accountService struct {
	db  *gorm.DB
	log *zap.Logger
}

// Active lists active accounts ordered by code.
func (s *accountService) Active() ([]models.Account, error) {
	var accounts []models.Account
	err := s.db.Where("active = ?", true).Order("code").Find(&accounts).Error
	return accounts, err
}

// ActiveByID fetches an account that exists and is still active.
func (s *accountService) ActiveByID(id uint) (*models.Account, error) {
	var account models.Account
	err := s.db.Where("id = ? AND active = ?", id, true).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetOrCreate validates the code and description, collecting every error
// before returning. A code that already exists is a duplicate error even when
// the description validated fine. The insert happens inside tx: it is visible
// to the rest of the transaction but not committed here, so the caller decides
// whether anything persists.
func (s *accountService) GetOrCreate(tx *gorm.DB, rawCode, rawDescription string) (*models.Account, []string) {
	var errs []string
	code, codeErr := validateAccountCode(rawCode)
	if codeErr != "" {
		errs = append(errs, codeErr)
	}
	description, descErr := validateDescription(rawDescription)
	if descErr != "" {
		errs = append(errs, descErr)
	}
	if len(errs) > 0 {
		return nil, errs
	}

	var existing models.Account
	err := tx.Where("code = ?", code).First(&existing).Error
	if err == nil {
		return nil, []string{fmt.Sprintf("Já existe uma conta com o código \"%s\".", code)}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Error("account lookup failed", zap.String("code", code), zap.Error(err))
		return nil, []string{msgAccountInternal}
	}

	account := models.Account{Code: code, Description: description, Active: true}
	if err := tx.Create(&account).Error; err != nil {
		// Two concurrent creates with the same code lose the race here.
		if isUniqueConstraintError(err) {
			return nil, []string{fmt.Sprintf("Já existe uma conta com o código \"%s\".", code)}
		}
		s.log.Error("account insert failed", zap.String("code", code), zap.Error(err))
		return nil, []string{msgAccountInternal}
	}
	return &account, nil
}

// balanceService appends and lists immutable balance entries.
type balanceService struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

// Create appends a balance entry stamped with the current wall-clock time at
// second precision. It commits in its own transaction, decoupled from any
// account creation that preceded it. The attempted value and account code are
// logged regardless of outcome.
func (s *balanceService) Create(account *models.Account, value decimal.Decimal, description string) (bool, []string) {
	now := s.now().Truncate(time.Second)
	entry := models.Balance{
		CreatedAt:   now,
		AccountID:   account.ID,
		Value:       value,
		Date:        time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		Time:        now.Format("15:04:05"),
		Description: description,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&entry).Error
	})
	if err != nil {
		s.log.Error("balance insert failed",
			zap.String("account_code", account.Code),
			zap.String("value", value.StringFixed(2)),
			zap.Error(err))
		return false, []string{msgBalanceInternal}
	}
	s.log.Info("balance recorded",
		zap.String("account_code", account.Code),
		zap.String("value", value.StringFixed(2)))
	return true, nil
}

// History returns every entry for one account, most recent first.
func (s *balanceService) History(accountID uint) ([]models.Balance, error) {
	var items []models.Balance
	err := s.db.Where("account_id = ?", accountID).
		Order("date DESC, time DESC, created_at DESC").
		Find(&items).Error
	return items, err
}

// Page is one fixed-size page of balance entries.
type Page struct {
	Items      []models.Balance
	Number     int
	PerPage    int
	Total      int64
	TotalPages int
}

func (p *Page) HasPrev() bool { return p.Number > 1 }
func (p *Page) HasNext() bool { return p.Number < p.TotalPages }
func (p *Page) Prev() int     { return p.Number - 1 }
func (p *Page) Next() int     { return p.Number + 1 }

// ListPage pages through balances of active accounts, most recent first.
func (s *balanceService) ListPage(page, perPage int) (*Page, error) {
	q := s.db.Model(&models.Balance{}).
		Joins("JOIN accounts ON accounts.id = balances.account_id").
		Where("accounts.active = ?", true)
	return s.paginate(q, page, perPage)
}

// AccountPage pages through one account's history, most recent first.
func (s *balanceService) AccountPage(accountID uint, page, perPage int) (*Page, error) {
	q := s.db.Model(&models.Balance{}).Where("account_id = ?", accountID)
	return s.paginate(q, page, perPage)
}

// paginate applies the shared ordering and page math. An out-of-range page
// yields an empty page, never an error.
func (s *balanceService) paginate(q *gorm.DB, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}
	var items []models.Balance
	err := q.Session(&gorm.Session{}).
		Order("date DESC, time DESC, created_at DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	return &Page{Items: items, Number: page, PerPage: perPage, Total: total, TotalPages: totalPages}, nil
}
