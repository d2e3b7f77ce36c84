package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiannys/buffet-restaurant/models"
)

func startSession(t *testing.T, h *harness, table models.Table, pkg models.Package, adults, children int) *models.Session {
	t.Helper()
	session, err := h.sessions.Start(context.Background(), StartSessionInput{
		TableID:    table.ID,
		PackageID:  pkg.ID,
		AdultCount: adults,
		ChildCount: children,
	})
	require.NoError(t, err)
	return session
}

func TestStartSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	table := createTable(t, h.db, "T1")
	silver := createPackage(t, h.db, "Silver", "299", "149", 90, nil)
	staff := createUser(t, h.db, "Sam", models.RoleStaff)

	session, err := h.sessions.Start(ctx, StartSessionInput{
		TableID:    table.ID,
		PackageID:  silver.ID,
		AdultCount: 2,
		ChildCount: 1,
		OperatorID: &staff.ID,
	})
	require.NoError(t, err)

	assert.Len(t, session.ID, 36)
	assert.Equal(t, models.SessionActive, session.Status)
	assert.True(t, session.StartTime.Equal(h.clock.Now()))
	assert.True(t, session.EndTime.Equal(h.clock.Now().Add(90*time.Minute)))
	assert.Equal(t, "https://buffet.test/customer/sessions/"+session.ID, session.QRPayload)
	assert.Equal(t, "T1", session.Table.TableNumber)
	assert.Equal(t, "Silver", session.Package.Name)
	assert.Equal(t, staff.ID, *session.CreatedBy)
	assert.Equal(t, models.TableOccupied, reloadTable(t, h.db, table.ID).Status)
	assert.Contains(t, h.events.Types(), EventSessionStarted)

	// The table is now taken
	_, err = h.sessions.Start(ctx, StartSessionInput{TableID: table.ID, PackageID: silver.ID, AdultCount: 1})
	assert.ErrorIs(t, err, ErrTableUnavailable)
}

func TestStartSessionValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	table := createTable(t, h.db, "T1")
	silver := createPackage(t, h.db, "Silver", "299", "149", 90, nil)

	_, err := h.sessions.Start(ctx, StartSessionInput{TableID: table.ID, PackageID: silver.ID, AdultCount: -1})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = h.sessions.Start(ctx, StartSessionInput{TableID: table.ID, PackageID: silver.ID})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = h.sessions.Start(ctx, StartSessionInput{TableID: table.ID, PackageID: 999, AdultCount: 1})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = h.sessions.Start(ctx, StartSessionInput{TableID: 999, PackageID: silver.ID, AdultCount: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, h.db.Model(&silver).Update("is_active", false).Error)
	_, err = h.sessions.Start(ctx, StartSessionInput{TableID: table.ID, PackageID: silver.ID, AdultCount: 1})
	assert.ErrorIs(t, err, ErrInvalidState)

	// Nothing above may leave the table occupied
	assert.Equal(t, models.TableAvailable, reloadTable(t, h.db, table.ID).Status)
}

func TestPauseResumeShiftsEndTime(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	session := startSession(t, h, createTable(t, h.db, "T1"), createPackage(t, h.db, "Silver", "299", "149", 90, nil), 2, 0)
	originalEnd := session.EndTime

	h.clock.Advance(10 * time.Minute)
	paused, err := h.sessions.Pause(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, paused.PausedAt)

	_, err = h.sessions.Pause(ctx, session.ID)
	assert.ErrorIs(t, err, ErrAlreadyPaused)

	h.clock.Advance(7*time.Minute + 30*time.Second)
	tr, err := h.sessions.GetTimeRemaining(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, tr.IsPaused)
	assert.Equal(t, 80, tr.RemainingMinutes)

	resumed, err := h.sessions.Resume(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, resumed.PausedAt)
	assert.Equal(t, 7, resumed.PausedDurationMinutes)
	assert.True(t, resumed.EndTime.Equal(originalEnd.Add(7*time.Minute+30*time.Second)), resumed.EndTime.String())

	tr, err = h.sessions.GetTimeRemaining(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, tr.IsPaused)
	assert.Equal(t, 80, tr.RemainingMinutes)

	_, err = h.sessions.Resume(ctx, session.ID)
	assert.ErrorIs(t, err, ErrNotPaused)
}

func TestPauseResumeWithoutElapsedTimeIsNoop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	session := startSession(t, h, createTable(t, h.db, "T1"), createPackage(t, h.db, "Silver", "299", "149", 90, nil), 2, 0)

	_, err := h.sessions.Pause(ctx, session.ID)
	require.NoError(t, err)
	resumed, err := h.sessions.Resume(ctx, session.ID)
	require.NoError(t, err)

	assert.True(t, resumed.EndTime.Equal(session.EndTime))
	assert.Equal(t, session.PausedDurationMinutes, resumed.PausedDurationMinutes)
}

func TestUpdateGuestCountAndPackage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	silver := createPackage(t, h.db, "Silver", "299", "149", 90, nil)
	gold := createPackage(t, h.db, "Gold", "399", "199", 120, &silver)
	session := startSession(t, h, createTable(t, h.db, "T1"), silver, 2, 1)

	updated, err := h.sessions.UpdateGuestCount(ctx, session.ID, 4, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.AdultCount)
	assert.Equal(t, 0, updated.ChildCount)

	_, err = h.sessions.UpdateGuestCount(ctx, session.ID, 1, -1)
	assert.ErrorIs(t, err, ErrValidation)

	// Upgrading after 60 minutes grants Gold's full window from the original start
	h.clock.Advance(60 * time.Minute)
	updated, err = h.sessions.UpdatePackage(ctx, session.ID, gold.ID)
	require.NoError(t, err)
	assert.Equal(t, gold.ID, updated.PackageID)
	assert.True(t, updated.EndTime.Equal(session.StartTime.Add(120*time.Minute)))

	tr, err := h.sessions.GetTimeRemaining(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, tr.RemainingMinutes)

	_, err = h.sessions.UpdatePackage(ctx, session.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransferTable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	silver := createPackage(t, h.db, "Silver", "299", "149", 90, nil)
	t1 := createTable(t, h.db, "T1")
	t2 := createTable(t, h.db, "T2")
	t3 := createTable(t, h.db, "T3")
	session := startSession(t, h, t1, silver, 2, 0)
	startSession(t, h, t3, silver, 2, 0)

	_, err := h.sessions.TransferTable(ctx, session.ID, t3.ID)
	assert.ErrorIs(t, err, ErrTableUnavailable)
	_, err = h.sessions.TransferTable(ctx, session.ID, t1.ID)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = h.sessions.TransferTable(ctx, session.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	moved, err := h.sessions.TransferTable(ctx, session.ID, t2.ID)
	require.NoError(t, err)
	assert.Equal(t, t2.ID, moved.TableID)
	assert.Equal(t, "T2", moved.Table.TableNumber)
	assert.Equal(t, models.TableCleaning, reloadTable(t, h.db, t1.ID).Status)
	assert.Equal(t, models.TableOccupied, reloadTable(t, h.db, t2.ID).Status)
	assert.Equal(t, models.TableOccupied, reloadTable(t, h.db, t3.ID).Status)
}

func TestEndWithoutCashier(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	table := createTable(t, h.db, "T1")
	session := startSession(t, h, table, createPackage(t, h.db, "Silver", "299", "149", 90, nil), 2, 0)

	h.clock.Advance(20 * time.Minute)
	_, err := h.sessions.Pause(ctx, session.ID)
	require.NoError(t, err)

	result, err := h.sessions.End(ctx, session.ID, EndSessionInput{})
	require.NoError(t, err)
	assert.Nil(t, result.Receipt)
	assert.Equal(t, models.SessionCompleted, result.Session.Status)
	assert.Nil(t, result.Session.PausedAt)
	require.NotNil(t, result.Session.ActualEndTime)
	assert.True(t, result.Session.ActualEndTime.Equal(h.clock.Now()))
	assert.Equal(t, models.TableCleaning, reloadTable(t, h.db, table.ID).Status)

	var receipts int64
	h.db.Model(&models.Receipt{}).Count(&receipts)
	assert.Zero(t, receipts)

	_, err = h.sessions.End(ctx, session.ID, EndSessionInput{})
	assert.ErrorIs(t, err, ErrSessionNotActive)
	_, err = h.sessions.Pause(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotActive)
	_, err = h.sessions.End(ctx, "missing", EndSessionInput{})
	assert.ErrorIs(t, err, ErrNotFound)

	tr, err := h.sessions.GetTimeRemaining(ctx, session.ID)
	require.NoError(t, err)
	assert.Zero(t, tr.RemainingMinutes)
	assert.Equal(t, WarningNone, tr.WarningLevel)
}

func TestCancelSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	table := createTable(t, h.db, "T1")
	session := startSession(t, h, table, createPackage(t, h.db, "Silver", "299", "149", 90, nil), 2, 0)

	cancelled, err := h.sessions.Cancel(ctx, session.ID, "walked out")
	require.NoError(t, err)
	assert.Equal(t, models.SessionCancelled, cancelled.Status)
	assert.Equal(t, "walked out", cancelled.CancelReason)
	assert.Equal(t, models.TableCleaning, reloadTable(t, h.db, table.ID).Status)

	_, err = h.sessions.Cancel(ctx, session.ID, "again")
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestTimeRemainingClampsAndReportsOvertime(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	session := startSession(t, h, createTable(t, h.db, "T1"), createPackage(t, h.db, "Short", "100", "50", 30, nil), 1, 0)

	h.clock.Advance(29*time.Minute + 59*time.Second)
	tr, err := h.sessions.GetTimeRemaining(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, tr.RemainingMinutes)
	assert.Equal(t, 0, tr.OvertimeMinutes)

	h.clock.Advance(12*time.Minute + 1*time.Second)
	tr, err = h.sessions.GetTimeRemaining(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, tr.RemainingMinutes)
	assert.Equal(t, 12, tr.OvertimeMinutes)
	assert.Equal(t, WarningOvertime, tr.WarningLevel)

	_, err = h.sessions.GetTimeRemaining(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetSessionForCustomer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	silver := createPackage(t, h.db, "Silver", "299", "149", 90, nil)
	gold := createPackage(t, h.db, "Gold", "399", "199", 90, &silver)
	pork := createMenu(t, h.db, "Pork", nil)
	beef := createMenu(t, h.db, "Beef", nil)
	assignMenus(t, h.db, silver, pork)
	assignMenus(t, h.db, gold, beef)

	session := startSession(t, h, createTable(t, h.db, "T9"), gold, 2, 0)
	_, err := h.orders.PlaceOrder(ctx, session.ID, PlaceOrderInput{Items: []OrderLine{{MenuID: pork.ID, Quantity: 2}}})
	require.NoError(t, err)

	h.clock.Advance(45 * time.Minute)
	view, err := h.sessions.GetSessionForCustomer(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "T9", view.TableNumber)
	assert.Equal(t, "Gold", view.PackageName)
	assert.Equal(t, 45, view.RemainingMinutes)
	require.Len(t, view.Menus, 2)
	assert.Equal(t, "Beef", view.Menus[0].Name)
	require.Len(t, view.Orders, 1)
	require.Len(t, view.Orders[0].OrderItems, 1)
	assert.Equal(t, "Pork", view.Orders[0].OrderItems[0].Menu.Name)

	_, err = h.sessions.End(ctx, session.ID, EndSessionInput{})
	require.NoError(t, err)
	_, err = h.sessions.GetSessionForCustomer(ctx, session.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = h.sessions.GetSessionForCustomer(ctx, "not-a-session")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pkg := createPackage(t, h.db, "Silver", "299", "149", 90, nil)
	first := startSession(t, h, createTable(t, h.db, "T1"), pkg, 1, 0)
	h.clock.Advance(time.Minute)
	startSession(t, h, createTable(t, h.db, "T2"), pkg, 1, 0)
	_, err := h.sessions.End(ctx, first.ID, EndSessionInput{})
	require.NoError(t, err)

	all, err := h.sessions.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "T2", all[0].Table.TableNumber)

	active, err := h.sessions.List(ctx, models.SessionActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "T2", active[0].Table.TableNumber)
}
