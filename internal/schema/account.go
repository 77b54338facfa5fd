package schema

// Account is the in-memory trading account. All mutation flows through
// AccountState events produced by the venue; Apply replays one onto the
// struct.
type Account struct {
	ID                 AccountID
	Currency           Currency
	Balance            Money
	BalanceStartDay    Money
	BalanceActivityDay Money
}

// NewAccount seeds an account with its starting capital.
func NewAccount(id AccountID, startingCapital Money) *Account {
	return &Account{
		ID:                 id,
		Currency:           startingCapital.Currency,
		Balance:            startingCapital,
		BalanceStartDay:    startingCapital,
		BalanceActivityDay: MoneyZero(startingCapital.Currency),
	}
}

// Apply replays an AccountState event onto the account.
func (a *Account) Apply(state AccountState) {
	if a == nil || state.AccountID != a.ID {
		return
	}
	a.Currency = state.Currency
	a.Balance = state.Balance
}
