package services

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tiannys/buffet-restaurant/database"
	"github.com/tiannys/buffet-restaurant/models"
	"github.com/tiannys/buffet-restaurant/utils"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	utils.InitLogger("test")
	utils.InfoLogger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenSQLite("file:" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func intPtr(v int) *int { return &v }

func uintPtr(v uint) *uint { return &v }

func createTable(t *testing.T, db *gorm.DB, number string) models.Table {
	t.Helper()
	table := models.Table{TableNumber: number, Capacity: 4, Zone: "main", Status: models.TableAvailable}
	require.NoError(t, db.Create(&table).Error)
	return table
}

func createPackage(t *testing.T, db *gorm.DB, name, adult, child string, minutes int, parent *models.Package) models.Package {
	t.Helper()
	pkg := models.Package{
		Name:            name,
		AdultPrice:      decimal.RequireFromString(adult),
		ChildPrice:      decimal.RequireFromString(child),
		DurationMinutes: minutes,
		IsActive:        true,
	}
	if parent != nil {
		pkg.ParentPackageID = &parent.ID
	}
	require.NoError(t, db.Create(&pkg).Error)
	return pkg
}

func createMenu(t *testing.T, db *gorm.DB, name string, stock *int) models.Menu {
	t.Helper()
	menu := models.Menu{Name: name, Price: decimal.NewFromInt(0), StockQuantity: stock, LowStockThreshold: models.DefaultLowStockThreshold}
	require.NoError(t, db.Create(&menu).Error)
	return menu
}

func assignMenus(t *testing.T, db *gorm.DB, pkg models.Package, menus ...models.Menu) {
	t.Helper()
	require.NoError(t, db.Model(&pkg).Association("Menus").Append(menus))
}

func createUser(t *testing.T, db *gorm.DB, name, role string) models.User {
	t.Helper()
	user := models.User{Name: name, Email: strings.ToLower(name) + "@buffet.test", Password: "x", Role: role}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createMember(t *testing.T, db *gorm.DB, name string, points int) models.Member {
	t.Helper()
	member := models.Member{Name: name, Phone: "08" + name}
	require.NoError(t, db.Create(&member).Error)
	if points > 0 {
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			_, err := applyPoints(tx, pointsChange{memberID: member.ID, delta: points, kind: models.PointsAdjusted, description: "opening balance"})
			return err
		}))
		member.TotalPoints = points
	}
	return member
}

func reloadTable(t *testing.T, db *gorm.DB, id uint) models.Table {
	t.Helper()
	var table models.Table
	require.NoError(t, db.First(&table, id).Error)
	return table
}

func reloadMember(t *testing.T, db *gorm.DB, id uint) models.Member {
	t.Helper()
	var member models.Member
	require.NoError(t, db.First(&member, id).Error)
	return member
}

// harness wires the services the way main does, minus Redis and RabbitMQ.
type harness struct {
	db         *gorm.DB
	clock      *fakeClock
	catalog    *CatalogService
	stock      *StockService
	tables     *TableService
	loyalty    *LoyaltyService
	settlement *SettlementService
	sessions   *SessionService
	orders     *OrderService
	events     *recordingNotifier
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingNotifier) Notify(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingNotifier) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newTestDB(t)
	clock := newClock()
	events := &recordingNotifier{}

	h := &harness{db: db, clock: clock, events: events}
	h.catalog = NewCatalogService(db)
	h.stock = NewStockService(db)
	h.tables = NewTableService(db)
	h.loyalty = NewLoyaltyService(db)
	h.settlement = NewSettlementService(db, events)
	h.settlement.Now = clock.Now
	h.sessions = NewSessionService(db, h.catalog, h.settlement, events, "https://buffet.test/")
	h.sessions.Now = clock.Now
	h.orders = NewOrderService(db, h.catalog, events)
	return h
}
