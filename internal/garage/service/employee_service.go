package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"github.com/bdhxxnix/auto-repair/internal/garage/report"
	"github.com/bdhxxnix/auto-repair/internal/garage/repository"
)

// EmployeeService 员工服务
type EmployeeService struct {
	repo              *repository.EmployeeRepository
	defaultHourlyRate float64
}

func NewEmployeeService(repo *repository.EmployeeRepository, defaultHourlyRate float64) *EmployeeService {
	if defaultHourlyRate <= 0 {
		defaultHourlyRate = entity.DefaultHourlyRate
	}
	return &EmployeeService{repo: repo, defaultHourlyRate: defaultHourlyRate}
}

// CreateEmployeeRequest 创建员工请求，按角色读取对应计薪字段
type CreateEmployeeRequest struct {
	ID         string  `json:"id"`
	Name       string  `json:"name" binding:"required"`
	Role       string  `json:"role" binding:"required"`
	HourlyRate float64 `json:"hourly_rate"`
	BaseSalary float64 `json:"base_salary"`
	Commission float64 `json:"commission"`
	Bonus      float64 `json:"bonus"`
}

// PayrollLine 单人薪资
type PayrollLine struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Role entity.Role `json:"role"`
	Pay  float64     `json:"pay"`
}

// Payroll 薪资汇总
type Payroll struct {
	Lines []PayrollLine `json:"lines"`
	Total float64       `json:"total"`
}

func (s *EmployeeService) Create(ctx context.Context, req *CreateEmployeeRequest) (*entity.Employee, error) {
	e := entity.Employee{
		ID:         strings.TrimSpace(req.ID),
		Name:       req.Name,
		Role:       entity.Role(strings.ToUpper(strings.TrimSpace(req.Role))),
		HourlyRate: req.HourlyRate,
		BaseSalary: req.BaseSalary,
		Commission: req.Commission,
		Bonus:      req.Bonus,
	}
	if e.ID == "" {
		e.ID = shortID("E")
	} else if _, err := s.repo.FindByID(ctx, e.ID); err == nil {
		return nil, fmt.Errorf("%w: employee %s already exists", entity.ErrConfiguration, e.ID)
	} else if !errors.Is(err, entity.ErrNotFound) {
		return nil, err
	}

	if e.Role == entity.RoleTechnician && e.HourlyRate <= 0 {
		e.HourlyRate = s.defaultHourlyRate
	}
	e.ApplyDefaults()
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &e); err != nil {
		return nil, fmt.Errorf("创建员工失败: %w", err)
	}
	return &e, nil
}

// Get 技师附带当前已分配工单
func (s *EmployeeService) Get(ctx context.Context, id string) (*entity.Employee, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *EmployeeService) List(ctx context.Context, role string) ([]entity.Employee, error) {
	return s.repo.List(ctx, entity.Role(strings.ToUpper(role)))
}

// Payroll 计算全员应发薪资
func (s *EmployeeService) Payroll(ctx context.Context) (*Payroll, error) {
	employees, err := s.repo.List(ctx, "")
	if err != nil {
		return nil, err
	}
	return BuildPayroll(employees), nil
}

func BuildPayroll(employees []entity.Employee) *Payroll {
	p := &Payroll{Lines: make([]PayrollLine, 0, len(employees))}
	var total float64
	for _, e := range employees {
		pay := entity.Pay(e)
		total += pay
		p.Lines = append(p.Lines, PayrollLine{ID: e.ID, Name: e.Name, Role: e.Role, Pay: report.Money(pay)})
	}
	p.Total = report.Money(total)
	return p
}
