package services

import (
	"context"
	"fmt"

	"github.com/tiannys/buffet-restaurant/models"
	"gorm.io/gorm"
)

// tableTransitions lists the statuses a table may move to from each status.
var tableTransitions = map[string][]string{
	models.TableAvailable: {models.TableOccupied, models.TableReserved},
	models.TableReserved:  {models.TableAvailable},
	models.TableOccupied:  {models.TableCleaning},
	models.TableCleaning:  {models.TableAvailable},
}

// predecessors returns the statuses allowed to move into to.
func predecessors(to string) []string {
	var from []string
	for status, targets := range tableTransitions {
		for _, t := range targets {
			if t == to {
				from = append(from, status)
			}
		}
	}
	return from
}

// TableService owns every table status change.
type TableService struct {
	db *gorm.DB
}

func NewTableService(db *gorm.DB) *TableService {
	return &TableService{db: db}
}

// transitionTable moves a table to status `to`. The precondition is checked in
// the UPDATE itself so it holds at commit time. Occupying also requires the
// table to be in service.
func transitionTable(tx *gorm.DB, tableID uint, to string) error {
	from := predecessors(to)
	if len(from) == 0 {
		return validationf("unknown table status %q", to)
	}

	q := tx.Model(&models.Table{}).Where("id = ? AND status IN ?", tableID, from)
	if to == models.TableOccupied {
		q = q.Where("out_of_service = ?", false)
	}
	res := q.Update("status", to)
	if res.Error != nil {
		return fmt.Errorf("failed to update table status: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var table models.Table
	if err := tx.First(&table, tableID).Error; err != nil {
		return notFound(err, "table", tableID)
	}
	if to == models.TableOccupied {
		return fmt.Errorf("%w: table %s is %s", ErrTableUnavailable, table.TableNumber, describeTable(table))
	}
	return fmt.Errorf("%w: table %s cannot go from %s to %s", ErrInvalidState, table.TableNumber, table.Status, to)
}

func describeTable(t models.Table) string {
	if t.OutOfService {
		return "out of service"
	}
	return t.Status
}

// List returns all tables ordered by number, optionally filtered by status.
func (s *TableService) List(ctx context.Context, status string) ([]models.Table, error) {
	tables := []models.Table{}
	q := s.db.WithContext(ctx).Order("table_number ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

// MarkClean returns a cleaned table to service and logs who cleaned it.
func (s *TableService) MarkClean(ctx context.Context, tableID uint, cleanerID *uint) (*models.Table, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transitionTable(tx, tableID, models.TableAvailable); err != nil {
			return err
		}
		entry := models.CleaningLog{TableID: tableID, CleanerID: cleanerID}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to write cleaning log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.get(ctx, tableID)
}

// Override forces a status. It is refused while the table hosts an
// unfinished session.
func (s *TableService) Override(ctx context.Context, tableID uint, status string) (*models.Table, error) {
	if _, ok := tableTransitions[status]; !ok {
		return nil, validationf("unknown table status %q", status)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if err := tx.First(&table, tableID).Error; err != nil {
			return notFound(err, "table", tableID)
		}
		var active int64
		if err := tx.Model(&models.Session{}).
			Where("table_id = ? AND status = ?", tableID, models.SessionActive).
			Count(&active).Error; err != nil {
			return fmt.Errorf("failed to check sessions: %w", err)
		}
		if active > 0 {
			return fmt.Errorf("%w: table %s has an active session", ErrInvalidState, table.TableNumber)
		}
		if err := tx.Model(&table).Update("status", status).Error; err != nil {
			return fmt.Errorf("failed to override table status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.get(ctx, tableID)
}

// SetOutOfService toggles the out-of-service flag. Occupied tables cannot be
// taken out of service.
func (s *TableService) SetOutOfService(ctx context.Context, tableID uint, outOfService bool, note string) (*models.Table, error) {
	table, err := s.get(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if outOfService && table.Status == models.TableOccupied {
		return nil, fmt.Errorf("%w: table %s is occupied", ErrInvalidState, table.TableNumber)
	}
	if !outOfService {
		note = ""
	}
	if err := s.db.WithContext(ctx).Model(table).Updates(map[string]interface{}{
		"out_of_service":      outOfService,
		"out_of_service_note": note,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to update table: %w", err)
	}
	return s.get(ctx, tableID)
}

func (s *TableService) get(ctx context.Context, tableID uint) (*models.Table, error) {
	var table models.Table
	if err := s.db.WithContext(ctx).First(&table, tableID).Error; err != nil {
		return nil, notFound(err, "table", tableID)
	}
	return &table, nil
}
