package billing

import (
	"fmt"
	"sort"

	"canx-backend/internal/apperr"
	"canx-backend/internal/model"

	"github.com/shopspring/decimal"
)

// roundingTolerance absorbs the paise lost when discount and interest are
// rounded separately from the payment they apply to.
var roundingTolerance = decimal.New(1, -2)

type SettlementInput struct {
	Outstanding  decimal.Decimal
	Amount       decimal.Decimal
	DiscountRate decimal.Decimal
	InterestRate decimal.Decimal
}

type Settlement struct {
	Amount       decimal.Decimal
	CashDiscount decimal.Decimal
	Interest     decimal.Decimal
	// Credit is what the payment takes off the order balance.
	Credit decimal.Decimal
}

// Settle applies the discount and interest rates to a payment.
// Credit = Amount + CashDiscount - Interest and never exceeds Outstanding.
func Settle(in SettlementInput) (Settlement, error) {
	if !in.Amount.IsPositive() {
		return Settlement{}, apperr.Validation("payment amount must be positive")
	}

	s := Settlement{
		Amount:       in.Amount,
		CashDiscount: Percent(in.Amount, in.DiscountRate),
		Interest:     Percent(in.Amount, in.InterestRate),
	}
	s.Credit = credited(s.Amount, in.DiscountRate, in.InterestRate)

	over := s.Credit.Sub(in.Outstanding)
	switch {
	case !over.IsPositive():
	case over.LessThanOrEqual(roundingTolerance):
		if s.CashDiscount.GreaterThanOrEqual(over) {
			s.CashDiscount = s.CashDiscount.Sub(over)
		} else {
			s.Interest = s.Interest.Add(over)
		}
		s.Credit = in.Outstanding
	default:
		return Settlement{}, apperr.ErrOverpayment
	}

	return s, nil
}

func credited(amount, discountRate, interestRate decimal.Decimal) decimal.Decimal {
	return amount.Add(Percent(amount, discountRate)).Sub(Percent(amount, interestRate))
}

// PayoffAmount is the smallest payment that settles outstanding in full at the
// given rates. Amounts are in whole paise; a payment one paisa short of the
// result leaves a balance.
func PayoffAmount(outstanding, discountRate, interestRate decimal.Decimal) (decimal.Decimal, error) {
	if !outstanding.IsPositive() {
		return decimal.Zero, nil
	}
	factor := hundred.Add(discountRate).Sub(interestRate)
	if !factor.IsPositive() {
		return decimal.Zero, apperr.Validation("balance cannot be settled: interest %s%% consumes every payment", interestRate)
	}

	// Percent rounds each side on its own, so credit is not strictly monotonic
	// in the payment. Walk from the estimate to the first paisa that covers
	// the balance; the one below it falls short by at least a paisa.
	pay := outstanding.Mul(hundred).Div(factor).RoundCeil(2)
	for credited(pay, discountRate, interestRate).LessThan(outstanding) {
		pay = pay.Add(roundingTolerance)
	}
	for pay.GreaterThan(roundingTolerance) &&
		!credited(pay.Sub(roundingTolerance), discountRate, interestRate).LessThan(outstanding) {
		pay = pay.Sub(roundingTolerance)
	}

	st, err := Settle(SettlementInput{
		Outstanding:  outstanding,
		Amount:       pay,
		DiscountRate: discountRate,
		InterestRate: interestRate,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("settle payoff %s: %w", pay, err)
	}
	if !st.Credit.Equal(outstanding) {
		return decimal.Zero, fmt.Errorf("payoff %s credits %s of %s", pay, st.Credit, outstanding)
	}
	return pay, nil
}

// AllocateFIFO takes credit off line due amounts, earliest due date first.
// It returns whatever credit could not be placed.
func AllocateFIFO(lines []model.OrderProduct, credit decimal.Decimal) decimal.Decimal {
	idx := make([]int, len(lines))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return lines[idx[a]].DueDate.Before(lines[idx[b]].DueDate)
	})

	left := credit
	for _, i := range idx {
		if !left.IsPositive() {
			break
		}
		due := lines[i].DueAmount
		if !due.IsPositive() {
			continue
		}
		take := decimal.Min(due, left)
		lines[i].DueAmount = due.Sub(take)
		left = left.Sub(take)
	}

	return left
}

// DerivePaymentStatus computes the order payment status from its balance and payments.
func DerivePaymentStatus(remaining decimal.Decimal, approved, pending int) model.PaymentStatus {
	switch {
	case !remaining.IsPositive():
		return model.PaymentPaidInFull
	case approved > 0:
		return model.PaymentApproved
	case pending > 0:
		return model.PaymentPendingApproval
	default:
		return model.PaymentPending
	}
}

// Outstanding is the balance still owed on an order.
func Outstanding(o *model.Order) decimal.Decimal {
	return o.TotalAmount.Sub(o.AmountPaid).Sub(o.CashDiscount).Add(o.Interest)
}
