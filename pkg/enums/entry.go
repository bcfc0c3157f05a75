package enums

import "fmt"

// EntryType distinguishes money owed from money received.
type EntryType string

const (
	EntryTypeDebt    EntryType = "debt"
	EntryTypePayment EntryType = "payment"
)

func (t EntryType) String() string {
	return string(t)
}

func (t EntryType) IsValid() bool {
	return t == EntryTypeDebt || t == EntryTypePayment
}

// ParseEntryType converts raw input into an EntryType.
func ParseEntryType(value string) (EntryType, error) {
	t := EntryType(value)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid entry type %q", value)
	}
	return t, nil
}

// EntryStatus is derived from paid versus total amount.
type EntryStatus string

const (
	EntryStatusUnpaid  EntryStatus = "unpaid"
	EntryStatusPartial EntryStatus = "partial"
	EntryStatusPaid    EntryStatus = "paid"
)

var validEntryStatuses = []EntryStatus{
	EntryStatusUnpaid,
	EntryStatusPartial,
	EntryStatusPaid,
}

func (s EntryStatus) String() string {
	return string(s)
}

func (s EntryStatus) IsValid() bool {
	for _, candidate := range validEntryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseEntryStatus converts raw input into an EntryStatus.
func ParseEntryStatus(value string) (EntryStatus, error) {
	s := EntryStatus(value)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid entry status %q", value)
	}
	return s, nil
}
