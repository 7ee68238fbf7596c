package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPay(t *testing.T) {
	tech := NewTechnician("E100", "Bob", 120)
	tech.HoursWorked = 8
	assert.Equal(t, 960.0, Pay(tech))

	assert.Equal(t, 6500.0, Pay(NewServiceAdvisor("E200", "Eve", 500)))
	assert.Equal(t, 12000.0, Pay(NewManager("E300", "Max", 2000)))
	assert.Equal(t, 0.0, Pay(Employee{ID: "X", Role: "INTERN"}))
}

func TestEmployeeDefaults(t *testing.T) {
	assert.Equal(t, DefaultHourlyRate, NewTechnician("E1", "T", 0).HourlyRate)

	e := Employee{ID: "E2", Role: RoleServiceAdvisor}
	e.ApplyDefaults()
	assert.Equal(t, DefaultAdvisorSalary, e.BaseSalary)

	m := Employee{ID: "E3", Role: RoleManager}
	m.ApplyDefaults()
	assert.Equal(t, DefaultManagerSalary, m.BaseSalary)
}

func TestEmployeeValidate(t *testing.T) {
	assert.NoError(t, NewTechnician("E1", "T", 100).Validate())
	assert.ErrorIs(t, Employee{Role: RoleTechnician}.Validate(), ErrConfiguration)
	assert.ErrorIs(t, Employee{ID: "E1", Role: "CLEANER"}.Validate(), ErrConfiguration)
	assert.ErrorIs(t, Employee{ID: "E1", Role: RoleManager, Bonus: -1}.Validate(), ErrConfiguration)
}
