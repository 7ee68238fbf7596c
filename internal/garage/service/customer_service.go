package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"github.com/bdhxxnix/auto-repair/internal/garage/repository"
	"github.com/google/uuid"
)

// CustomerService 客户与车辆服务
type CustomerService struct {
	repo *repository.CustomerRepository
}

func NewCustomerService(repo *repository.CustomerRepository) *CustomerService {
	return &CustomerService{repo: repo}
}

// CreateCustomerRequest 创建客户请求
type CreateCustomerRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
	Level int    `json:"level"`
}

// CreateVehicleRequest 登记车辆请求
type CreateVehicleRequest struct {
	VIN     string `json:"vin" binding:"required"`
	Plate   string `json:"plate"`
	Brand   string `json:"brand"`
	Model   string `json:"model"`
	Year    int    `json:"year"`
	OwnerID string `json:"owner_id" binding:"required"`
}

func shortID(prefix string) string {
	return prefix + strings.ToUpper(uuid.New().String()[:8])
}

func (s *CustomerService) Create(ctx context.Context, req *CreateCustomerRequest) (*entity.Customer, error) {
	if req.Level != entity.CustomerLevelNormal && req.Level != entity.CustomerLevelVIP {
		return nil, fmt.Errorf("%w: unknown customer level %d", entity.ErrConfiguration, req.Level)
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = shortID("C")
	} else if _, err := s.repo.FindByID(ctx, id); err == nil {
		return nil, fmt.Errorf("%w: customer %s already exists", entity.ErrConfiguration, id)
	} else if !errors.Is(err, entity.ErrNotFound) {
		return nil, err
	}

	c := &entity.Customer{ID: id, Name: req.Name, Phone: req.Phone, Level: req.Level}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("创建客户失败: %w", err)
	}
	return c, nil
}

func (s *CustomerService) Get(ctx context.Context, id string) (*entity.Customer, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *CustomerService) List(ctx context.Context, params repository.CustomerListParams) ([]entity.Customer, int64, error) {
	return s.repo.List(ctx, params)
}

// Delete 名下仍有车辆的客户不可删除
func (s *CustomerService) Delete(ctx context.Context, id string) error {
	vehicles, err := s.repo.ListVehicles(ctx, id)
	if err != nil {
		return err
	}
	if len(vehicles) > 0 {
		return fmt.Errorf("%w: customer %s still owns %d vehicle(s)", entity.ErrConfiguration, id, len(vehicles))
	}
	return s.repo.Delete(ctx, id)
}

// Vehicles 客户名下车辆
func (s *CustomerService) Vehicles(ctx context.Context, customerID string) ([]entity.Vehicle, error) {
	if _, err := s.repo.FindByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.ListVehicles(ctx, customerID)
}

func (s *CustomerService) CreateVehicle(ctx context.Context, req *CreateVehicleRequest) (*entity.Vehicle, error) {
	if _, err := s.repo.FindByID(ctx, req.OwnerID); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindVehicle(ctx, req.VIN); err == nil {
		return nil, fmt.Errorf("%w: vehicle %s already registered", entity.ErrConfiguration, req.VIN)
	} else if !errors.Is(err, entity.ErrNotFound) {
		return nil, err
	}

	v := &entity.Vehicle{
		VIN:     req.VIN,
		Plate:   req.Plate,
		Brand:   req.Brand,
		Model:   req.Model,
		Year:    req.Year,
		OwnerID: req.OwnerID,
	}
	if err := s.repo.CreateVehicle(ctx, v); err != nil {
		return nil, fmt.Errorf("登记车辆失败: %w", err)
	}
	return v, nil
}

func (s *CustomerService) GetVehicle(ctx context.Context, vin string) (*entity.Vehicle, error) {
	return s.repo.FindVehicle(ctx, vin)
}

func (s *CustomerService) ListVehicles(ctx context.Context) ([]entity.Vehicle, error) {
	return s.repo.ListVehicles(ctx, "")
}
