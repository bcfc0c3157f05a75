package enums

// BalanceState classifies a client's current balance.
type BalanceState string

const (
	// BalanceCredit means the store owes the client (balance < 0).
	BalanceCredit BalanceState = "credit"
	// BalanceDue means the client owes the store (balance > 0).
	BalanceDue BalanceState = "due"
	// BalanceSettled means nothing is owed either way.
	BalanceSettled BalanceState = "settled"
)

var balanceLabels = map[BalanceState]string{
	BalanceCredit:  "Crédit",
	BalanceDue:     "À payer",
	BalanceSettled: "Soldé",
}

func (s BalanceState) String() string {
	return string(s)
}

// Label returns the text shown on statements and client screens.
func (s BalanceState) Label() string {
	return balanceLabels[s]
}
