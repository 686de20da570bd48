// Package billing composes renewal payment quotes: convenience fees, EMI
// interest, promo discounts and GST.
package billing

import (
	"fmt"
	"strconv"

	"github.com/warp/renewal-engine/generic"
)

// =============================================================================
// PAYMENT METHOD
// =============================================================================

// Method is the closed set of payment methods. The numeric values are the
// selector numbers offered to users.
type Method int

const (
	MethodCard Method = iota + 1
	MethodUPI
	MethodNetBanking
	MethodBranch
	MethodEMI3
	MethodEMI6
)

// ParseMethod validates a 1-6 selector at the input boundary.
func ParseMethod(choice int) (Method, error) {
	m := Method(choice)
	if !m.Valid() {
		return 0, &generic.InvalidMethodError{Choice: choice}
	}
	return m, nil
}

// Methods lists every method in selector order.
func Methods() []Method {
	return []Method{MethodCard, MethodUPI, MethodNetBanking, MethodBranch, MethodEMI3, MethodEMI6}
}

func (m Method) Valid() bool { return m >= MethodCard && m <= MethodEMI6 }

// Code is the stable machine name used in JSON, logs and metric labels.
func (m Method) Code() string {
	switch m {
	case MethodCard:
		return "card"
	case MethodUPI:
		return "upi"
	case MethodNetBanking:
		return "netbanking"
	case MethodBranch:
		return "branch"
	case MethodEMI3:
		return "emi3"
	case MethodEMI6:
		return "emi6"
	default:
		return "unknown"
	}
}

func (m Method) Name() string {
	switch m {
	case MethodCard:
		return "Credit/Debit Card"
	case MethodUPI:
		return "UPI"
	case MethodNetBanking:
		return "NetBanking"
	case MethodBranch:
		return "Pay at Branch"
	case MethodEMI3:
		return "EMI (3 months)"
	case MethodEMI6:
		return "EMI (6 months)"
	default:
		return "Unknown"
	}
}

// Describe summarises the fee rule for menus.
func (m Method) Describe() string {
	switch m {
	case MethodCard:
		return "1.5% convenience fee, max Rs. 150"
	case MethodUPI:
		return "No convenience fee"
	case MethodNetBanking:
		return "Rs. 10 flat"
	case MethodBranch:
		return "Rs. 50 handling"
	case MethodEMI3, MethodEMI6:
		return "12% p.a. simple interest, pro-rated"
	default:
		return ""
	}
}

// EMIMonths is the financing term, zero for methods paid in full.
func (m Method) EMIMonths() int {
	switch m {
	case MethodEMI3:
		return 3
	case MethodEMI6:
		return 6
	default:
		return 0
	}
}

func (m Method) String() string { return m.Name() }

// MarshalText writes the method code so JSON and SQL carry stable names.
func (m Method) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("billing: cannot marshal method %d", int(m))
	}
	return []byte(m.Code()), nil
}

// UnmarshalText accepts a method code ("upi") or a selector ("2").
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethodCode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMethodCode resolves a code or a numeric selector.
func ParseMethodCode(s string) (Method, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return ParseMethod(n)
	}
	for _, m := range Methods() {
		if m.Code() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown method %q", generic.ErrInvalidMethod, s)
}
