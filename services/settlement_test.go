package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiannys/buffet-restaurant/models"
	"gorm.io/gorm"
)

type settleFixture struct {
	*harness
	table   models.Table
	silver  models.Package
	cashier models.User
	session *models.Session
}

func newSettleFixture(t *testing.T) *settleFixture {
	h := newHarness(t)
	f := &settleFixture{harness: h}
	f.table = createTable(t, h.db, "T1")
	f.silver = createPackage(t, h.db, "Silver", "299", "149", 90, nil)
	f.cashier = createUser(t, h.db, "Cass", models.RoleCashier)
	f.session = startSession(t, h, f.table, f.silver, 2, 1)
	return f
}

func TestEndWithCashierSettlesSession(t *testing.T) {
	f := newSettleFixture(t)
	ctx := context.Background()

	result, err := f.sessions.End(ctx, f.session.ID, EndSessionInput{CashierID: &f.cashier.ID})
	require.NoError(t, err)
	require.NotNil(t, result.Receipt)

	r := result.Receipt
	assert.Equal(t, "RCP20261016000001", r.ReceiptNumber)
	assert.True(t, r.Subtotal.Equal(dec("747")))
	assert.True(t, r.ServiceCharge.Equal(dec("74.7")))
	assert.True(t, r.VAT.Equal(dec("57.52")))
	assert.True(t, r.GrandTotal.Equal(dec("879.22")), r.GrandTotal.String())
	assert.True(t, r.VATPercent.Equal(dec("7")))
	assert.True(t, r.ServiceChargePercent.Equal(dec("10")))
	assert.Nil(t, r.MemberID)
	assert.Zero(t, r.PointsEarned)

	require.NotNil(t, r.Session)
	assert.Equal(t, "T1", r.Session.Table.TableNumber)
	assert.Equal(t, "Silver", r.Session.Package.Name)
	require.NotNil(t, r.Cashier)
	assert.Equal(t, "Cass", r.Cashier.Name)
	require.Len(t, r.Payments, 1)
	assert.Equal(t, models.PaymentMethodCash, r.Payments[0].Method)
	assert.True(t, r.Payments[0].Amount.Equal(dec("879.22")))

	assert.Equal(t, models.SessionCompleted, result.Session.Status)
	assert.Equal(t, models.TableCleaning, reloadTable(t, f.db, f.table.ID).Status)
	assert.Contains(t, f.events.Types(), EventSessionSettled)
	assert.Contains(t, f.events.Types(), EventSessionEnded)
}

func TestSettleWithMemberRedeemsAndEarns(t *testing.T) {
	f := newSettleFixture(t)
	ctx := context.Background()
	member := createMember(t, f.db, "Mali", 500)

	receipt, err := f.settlement.Settle(ctx, f.session.ID, f.cashier.ID, SettleInput{
		MemberID:       &member.ID,
		PointsUsed:     100,
		DiscountAmount: dec("20"),
		DiscountReason: "birthday",
		Payments: []PaymentLine{
			{Method: "CARD", Amount: dec("500"), Reference: "AUTH123"},
			{Method: "CASH", Amount: dec("259.22")},
		},
	})
	require.NoError(t, err)

	// 879.219 - 20 - 100 = 759.219
	assert.True(t, receipt.GrandTotal.Equal(dec("759.22")), receipt.GrandTotal.String())
	assert.True(t, receipt.PointsValue.Equal(dec("100")))
	assert.Equal(t, 100, receipt.PointsUsed)
	assert.Equal(t, "birthday", receipt.DiscountReason)
	assert.Equal(t, 7, receipt.PointsEarned)
	require.NotNil(t, receipt.Member)
	assert.Equal(t, "Mali", receipt.Member.Name)
	require.Len(t, receipt.Payments, 2)
	assert.Equal(t, "CARD", receipt.Payments[0].Method)
	assert.Equal(t, "AUTH123", receipt.Payments[0].Reference)

	updated := reloadMember(t, f.db, member.ID)
	assert.Equal(t, 407, updated.TotalPoints)

	history, err := f.loyalty.History(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.PointsEarned, history[0].Type)
	assert.Equal(t, 7, history[0].Points)
	assert.Equal(t, 407, history[0].BalanceAfter)
	assert.Equal(t, receipt.ID, *history[0].ReceiptID)
	assert.Equal(t, models.PointsRedeemed, history[1].Type)
	assert.Equal(t, -100, history[1].Points)
	assert.Equal(t, 400, history[1].BalanceAfter)
	assert.Equal(t, receipt.ID, *history[1].ReceiptID)
	assert.Equal(t, updated.TotalPoints, history[0].BalanceAfter)

	// Settling does not end the session; ending with a cashier now conflicts
	_, err = f.sessions.End(ctx, f.session.ID, EndSessionInput{CashierID: &f.cashier.ID})
	assert.ErrorIs(t, err, ErrAlreadySettled)
	result, err := f.sessions.End(ctx, f.session.ID, EndSessionInput{})
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, result.Session.Status)

	fetched, err := f.settlement.GetReceiptBySession(ctx, f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, receipt.ID, fetched.ID)
}

func TestSettleInsufficientPointsAborts(t *testing.T) {
	f := newSettleFixture(t)
	ctx := context.Background()
	member := createMember(t, f.db, "Niran", 50)

	_, err := f.sessions.End(ctx, f.session.ID, EndSessionInput{
		CashierID:  &f.cashier.ID,
		Settlement: SettleInput{MemberID: &member.ID, PointsUsed: 100},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	var pointsErr *PointsError
	require.True(t, errors.As(err, &pointsErr))
	assert.Equal(t, 50, pointsErr.Available)
	assert.Equal(t, 100, pointsErr.Requested)

	assert.Equal(t, 50, reloadMember(t, f.db, member.ID).TotalPoints)
	session, err := f.sessions.Get(ctx, f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, session.Status)
	assert.Equal(t, models.TableOccupied, reloadTable(t, f.db, f.table.ID).Status)
}

func TestSettleIsAtomicWhenPaymentFails(t *testing.T) {
	f := newSettleFixture(t)
	ctx := context.Background()
	member := createMember(t, f.db, "Pim", 500)

	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:fail_payments", func(db *gorm.DB) {
		if db.Statement.Table == "payments" {
			db.AddError(fmt.Errorf("payments table unavailable"))
		}
	}))

	_, err := f.sessions.End(ctx, f.session.ID, EndSessionInput{
		CashierID:  &f.cashier.ID,
		Settlement: SettleInput{MemberID: &member.ID, PointsUsed: 100},
	})
	require.Error(t, err)

	assert.Equal(t, 500, reloadMember(t, f.db, member.ID).TotalPoints)

	var ledger, receipts int64
	f.db.Model(&models.MemberPoint{}).Where("type = ?", models.PointsRedeemed).Count(&ledger)
	f.db.Model(&models.Receipt{}).Count(&receipts)
	assert.Zero(t, ledger)
	assert.Zero(t, receipts)

	session, err := f.sessions.Get(ctx, f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, session.Status)
}

func TestSettleValidation(t *testing.T) {
	f := newSettleFixture(t)
	ctx := context.Background()

	cases := []SettleInput{
		{DiscountAmount: dec("-1")},
		{PointsUsed: -5},
		{PointsUsed: 10},
		{Payments: []PaymentLine{{Method: "", Amount: dec("10")}}},
		{Payments: []PaymentLine{{Method: "CASH", Amount: dec("-10")}}},
	}
	for i, in := range cases {
		_, err := f.settlement.Settle(ctx, f.session.ID, f.cashier.ID, in)
		assert.ErrorIs(t, err, ErrValidation, "case %d", i)
	}

	_, err := f.settlement.Settle(ctx, f.session.ID, 999, SettleInput{})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.settlement.Settle(ctx, f.session.ID, f.cashier.ID, SettleInput{MemberID: uintPtr(999)})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.settlement.Settle(ctx, "missing", f.cashier.ID, SettleInput{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.sessions.Cancel(ctx, f.session.ID, "test")
	require.NoError(t, err)
	_, err = f.settlement.Settle(ctx, f.session.ID, f.cashier.ID, SettleInput{})
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestOverDiscountIsNotFloored(t *testing.T) {
	f := newSettleFixture(t)
	member := createMember(t, f.db, "Ploy", 0)

	receipt, err := f.settlement.Settle(context.Background(), f.session.ID, f.cashier.ID, SettleInput{
		MemberID:       &member.ID,
		DiscountAmount: dec("1000"),
	})
	require.NoError(t, err)
	assert.True(t, receipt.GrandTotal.Equal(dec("-120.78")), receipt.GrandTotal.String())
	assert.Zero(t, receipt.PointsEarned)
	assert.Zero(t, reloadMember(t, f.db, member.ID).TotalPoints)
}

func TestReceiptNumbersAreSequential(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pkg := createPackage(t, h.db, "Silver", "299", "149", 90, nil)
	cashier := createUser(t, h.db, "Cass", models.RoleCashier)

	const n = 5
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = startSession(t, h, createTable(t, h.db, fmt.Sprintf("T%d", i)), pkg, 1, 0).ID
	}

	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			r, err := h.settlement.Settle(ctx, id, cashier.ID, SettleInput{})
			if assert.NoError(t, err) {
				numbers <- r.ReceiptNumber
			}
		}(id)
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for number := range numbers {
		assert.False(t, seen[number], "duplicate %s", number)
		seen[number] = true
	}
	assert.Len(t, seen, n)
	for i := 1; i <= n; i++ {
		assert.True(t, seen[fmt.Sprintf("RCP20261016%06d", i)])
	}
}

func TestFormatReceiptNumber(t *testing.T) {
	day := newClock().Now()
	assert.Equal(t, "RCP20261016000042", FormatReceiptNumber(day, 42))
	assert.Equal(t, "RCP202610161234567", FormatReceiptNumber(day, 1234567))
}
