package model

import "github.com/shopspring/decimal"

// AccountType classifies an account by the institution product behind it.
type AccountType string

const (
	AccountTypeChecking  AccountType = "checking"
	AccountTypeSavings   AccountType = "savings"
	AccountTypeBrokerage AccountType = "brokerage"
	AccountTypeCard      AccountType = "card"
)

// Account is a bank or broker account owned by the user.
type Account struct {
	ID        string
	Name      string
	Type      AccountType
	SourceKey string          // institution key whose exports feed this account
	Balance   decimal.Decimal // cached, recomputed from the full transaction set
}

// Category is a spending category transactions are assigned to.
type Category struct {
	ID   string
	Name string
}

// CategoryInternalTransfer is the dedicated category for transfers between
// two accounts of the same owner.
const CategoryInternalTransfer = "internal-transfer"
