package service

import (
	"context"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
)

// SeedDemo 写入演示数据，已存在的记录会被覆盖
func SeedDemo(ctx context.Context, s *Services) error {
	repos := s.Backup.repos

	alice := entity.Customer{ID: "C001", Name: "Alice", Phone: "1380000", Level: entity.CustomerLevelVIP}
	if err := repos.Customer.Upsert(ctx, &alice); err != nil {
		return err
	}
	corolla := entity.Vehicle{VIN: "VIN123", Plate: "渝A88888", Brand: "Toyota", Model: "Corolla", Year: 2020, OwnerID: alice.ID}
	if err := repos.Customer.UpsertVehicle(ctx, &corolla); err != nil {
		return err
	}

	bob := entity.NewTechnician("E100", "Bob", 120)
	bob.HoursWorked = 8
	eve := entity.NewServiceAdvisor("E200", "Eve", 500)
	for _, e := range []*entity.Employee{&bob, &eve} {
		if err := repos.Employee.Upsert(ctx, e); err != nil {
			return err
		}
	}

	parts := []entity.Part{
		{ID: "P001", Name: "Engine Oil", UnitPrice: 50, Stock: 5, ReorderPoint: 3},
		{ID: "P002", Name: "Oil Filter", UnitPrice: 30, Stock: 2, ReorderPoint: 2},
	}
	if err := s.Inventory.save(ctx, parts, entity.MovementAdjust, refManual, "demo", "system"); err != nil {
		return err
	}
	s.Inventory.logger.Info("demo data seeded")
	return nil
}
