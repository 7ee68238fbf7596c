package features

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/bdhxxnix/auto-repair/internal/garage/advisor"
	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"github.com/bdhxxnix/auto-repair/internal/garage/inventory"
	"github.com/bdhxxnix/auto-repair/internal/garage/report"
	"github.com/cucumber/godog"
)

type garageTestContext struct {
	techs   map[string]*entity.Employee
	store   *inventory.Storehouse
	order   *entity.WorkOrder
	orders  []entity.WorkOrder
	vehicle entity.Vehicle
	detect  advisor.Result
	total   float64
	err     error
}

func (g *garageTestContext) reset() {
	g.techs = map[string]*entity.Employee{}
	g.store = inventory.NewStorehouse(inventory.NewLedger())
	g.order = nil
	g.orders = nil
	g.vehicle = entity.Vehicle{}
	g.detect = advisor.Result{}
	g.total = 0
	g.err = nil
}

func (g *garageTestContext) aTechnicianWithHourlyRate(id string, rate float64) error {
	tech := entity.NewTechnician(id, "Tech "+id, rate)
	g.techs[id] = &tech
	return nil
}

func (g *garageTestContext) theStock(table *godog.Table) error {
	for _, row := range table.Rows[1:] {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = c.Value
		}
		price, err := strconv.ParseFloat(cells[2], 64)
		if err != nil {
			return err
		}
		ints := make([]int, 3)
		for i := range ints {
			if ints[i], err = strconv.Atoi(cells[3+i]); err != nil {
				return err
			}
		}
		p := entity.Part{ID: cells[0], Name: cells[1], UnitPrice: price, Stock: ints[0], ReorderPoint: ints[1], Capacity: ints[2]}
		if err := g.store.Ledger().Upsert(p); err != nil {
			return err
		}
	}
	return nil
}

func (g *garageTestContext) theStockIsEmpty() error {
	g.store = inventory.NewStorehouse(inventory.NewLedger())
	return nil
}

func (g *garageTestContext) aDraftWorkOrderForAVehicle(id string, year int) error {
	g.order = entity.NewWorkOrder(id,
		entity.Vehicle{VIN: "VIN-" + id, Plate: "渝A88888", Brand: "Toyota", Model: "Corolla", Year: year, OwnerID: "C001"},
		entity.Customer{ID: "C001", Name: "Alice"},
		entity.NewServiceAdvisor("E200", "Eve", 500),
	)
	return nil
}

func (g *garageTestContext) aLineItem(name string, basePrice, override float64, qty int, partID string) error {
	part, err := g.store.Ledger().Get(partID)
	if err != nil {
		return err
	}
	item := entity.NewWOItem(entity.ServiceItem{ID: fmt.Sprintf("S%03d", len(g.order.Items)+1), Name: name, LaborHours: 1, BasePrice: basePrice})
	item.LaborOverride = override
	item.Parts = []entity.PartRequirement{{Part: part, Qty: qty}}
	g.order.Items = append(g.order.Items, item)
	return nil
}

func (g *garageTestContext) theOrderUsesPricing(kind string, rate float64) error {
	p, err := entity.ParsePricing(kind, rate)
	if err != nil {
		return err
	}
	return g.order.SetPricing(p)
}

func (g *garageTestContext) theOrderIsAssignedTo(techID string) error {
	tech, ok := g.techs[techID]
	if !ok {
		return fmt.Errorf("unknown technician %s", techID)
	}
	g.err = g.order.Assign(tech)
	return nil
}

func (g *garageTestContext) theOrderIsStarted() error {
	g.err = g.order.Start()
	return nil
}

func (g *garageTestContext) theOrderIsCompleted() error {
	g.err = g.order.Complete()
	return nil
}

func (g *garageTestContext) theOrderIsSettled() error {
	g.total, g.err = g.order.Settle()
	return nil
}

func (g *garageTestContext) theOrderIsCancelled() error {
	g.err = g.order.Cancel()
	return nil
}

func (g *garageTestContext) partsAreConsumedForTheOrder() error {
	_, g.err = g.store.ConsumeForOrder(g.order)
	return nil
}

func (g *garageTestContext) aVehicleBuiltIn(year int) error {
	g.vehicle = entity.Vehicle{VIN: "VIN-ADV", Year: year}
	return nil
}

func (g *garageTestContext) theAdvisorInspectsItIn(year int) error {
	g.detect = advisor.DetectAt(year, g.vehicle, g.store.Snapshot())
	return nil
}

func (g *garageTestContext) anOrderWorth(status string, amount float64) error {
	wo := entity.NewWorkOrder(fmt.Sprintf("WO%04d", len(g.orders)+1), entity.Vehicle{}, entity.Customer{}, entity.Employee{})
	wo.Items = entity.WOItems{entity.NewWOItem(entity.ServiceItem{Name: "flat", BasePrice: amount})}
	if status == "paid" {
		wo.Status = entity.WOStatusPaid
	} else {
		wo.Status = entity.WOStatusCancelled
	}
	g.orders = append(g.orders, *wo)
	return nil
}

func (g *garageTestContext) theSettledTotalIs(want float64) error {
	if g.err != nil {
		return g.err
	}
	return approx("settled total", g.total, want)
}

func (g *garageTestContext) thePreviewTotalIs(want float64) error {
	if g.err != nil {
		return g.err
	}
	return approx("preview total", g.order.PreviewTotal(), want)
}

func (g *garageTestContext) theOrderStatusIs(status string) error {
	if string(g.order.Status) != status {
		return fmt.Errorf("expected status %s, got %s", status, g.order.Status)
	}
	return nil
}

func (g *garageTestContext) technicianHasOrders(techID, ids string) error {
	got := strings.Join(g.techs[techID].AssignedOrders, ",")
	if got != ids {
		return fmt.Errorf("expected assigned orders %q, got %q", ids, got)
	}
	return nil
}

func (g *garageTestContext) theOperationSucceeds() error {
	return g.err
}

func (g *garageTestContext) theOperationFailsWithAnInvalidTransition() error {
	return expectErr(g.err, entity.ErrInvalidTransition)
}

func (g *garageTestContext) theOperationFailsWithInsufficientStock() error {
	return expectErr(g.err, entity.ErrInsufficientStock)
}

func (g *garageTestContext) partHasStock(id string, want int) error {
	p, err := g.store.Ledger().Get(id)
	if err != nil {
		return err
	}
	if p.Stock != want {
		return fmt.Errorf("expected %s stock %d, got %d", id, want, p.Stock)
	}
	return nil
}

func (g *garageTestContext) theAlertsAre(table *godog.Table) error {
	alerts := g.store.TakeAlerts()
	if len(alerts) != len(table.Rows) {
		return fmt.Errorf("expected %d alerts, got %v", len(table.Rows), alerts)
	}
	for i, row := range table.Rows {
		if alerts[i].String() != row.Cells[0].Value {
			return fmt.Errorf("alert %d: expected %q, got %q", i, row.Cells[0].Value, alerts[i].String())
		}
	}
	return nil
}

func (g *garageTestContext) thereAreNoAlerts() error {
	if alerts := g.store.TakeAlerts(); len(alerts) > 0 {
		return fmt.Errorf("expected no alerts, got %v", alerts)
	}
	return nil
}

func (g *garageTestContext) theDetectedServicesAre(ids string) error {
	var got []string
	for _, item := range g.detect.Items {
		got = append(got, item.Service.ID)
	}
	if strings.Join(got, ",") != ids {
		return fmt.Errorf("expected services %q, got %v", ids, got)
	}
	return nil
}

func (g *garageTestContext) theDetectionNoteIs(note string) error {
	if g.detect.Note != note {
		return fmt.Errorf("expected note %q, got %q", note, g.detect.Note)
	}
	return nil
}

func (g *garageTestContext) theTurnoverIsAcrossOrders(total float64, count int) error {
	t := report.ComputeTurnover(g.orders)
	if t.Count != count {
		return fmt.Errorf("expected %d paid orders, got %d", count, t.Count)
	}
	return approx("turnover", t.Total, total)
}

func approx(what string, got, want float64) error {
	if math.Abs(got-want) > 1e-6 {
		return fmt.Errorf("expected %s %.2f, got %.4f", what, want, got)
	}
	return nil
}

func expectErr(err, target error) error {
	if err == nil {
		return fmt.Errorf("expected %v, got success", target)
	}
	if !errors.Is(err, target) {
		return fmt.Errorf("expected %v, got %v", target, err)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &garageTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a technician "([^"]*)" with hourly rate (\d+(?:\.\d+)?)$`, tc.aTechnicianWithHourlyRate)
	ctx.Step(`^the stock:$`, tc.theStock)
	ctx.Step(`^the stock is empty$`, tc.theStockIsEmpty)
	ctx.Step(`^a draft work order "([^"]*)" for a (\d+) vehicle$`, tc.aDraftWorkOrderForAVehicle)
	ctx.Step(`^a line item "([^"]*)" with base price (\d+(?:\.\d+)?), labor override (\d+(?:\.\d+)?) and (\d+) of part "([^"]*)"$`, tc.aLineItem)
	ctx.Step(`^the order uses "([^"]*)" pricing at (\d+(?:\.\d+)?)$`, tc.theOrderUsesPricing)
	ctx.Step(`^a vehicle built in (\d+)$`, tc.aVehicleBuiltIn)
	ctx.Step(`^an? (paid|cancelled) order worth (\d+(?:\.\d+)?)$`, tc.anOrderWorth)

	// When steps
	ctx.Step(`^the order is assigned to "([^"]*)"$`, tc.theOrderIsAssignedTo)
	ctx.Step(`^the order is started$`, tc.theOrderIsStarted)
	ctx.Step(`^the order is completed$`, tc.theOrderIsCompleted)
	ctx.Step(`^the order is settled$`, tc.theOrderIsSettled)
	ctx.Step(`^the order is cancelled$`, tc.theOrderIsCancelled)
	ctx.Step(`^parts are consumed for the order$`, tc.partsAreConsumedForTheOrder)
	ctx.Step(`^the advisor inspects it in (\d+)$`, tc.theAdvisorInspectsItIn)

	// Then steps
	ctx.Step(`^the settled total is (\d+(?:\.\d+)?)$`, tc.theSettledTotalIs)
	ctx.Step(`^the preview total is (\d+(?:\.\d+)?)$`, tc.thePreviewTotalIs)
	ctx.Step(`^the order status is "([^"]*)"$`, tc.theOrderStatusIs)
	ctx.Step(`^technician "([^"]*)" has orders "([^"]*)"$`, tc.technicianHasOrders)
	ctx.Step(`^the operation succeeds$`, tc.theOperationSucceeds)
	ctx.Step(`^the operation fails with an invalid transition$`, tc.theOperationFailsWithAnInvalidTransition)
	ctx.Step(`^the operation fails with insufficient stock$`, tc.theOperationFailsWithInsufficientStock)
	ctx.Step(`^part "([^"]*)" has stock (\d+)$`, tc.partHasStock)
	ctx.Step(`^the alerts are:$`, tc.theAlertsAre)
	ctx.Step(`^there are no alerts$`, tc.thereAreNoAlerts)
	ctx.Step(`^the detected services are "([^"]*)"$`, tc.theDetectedServicesAre)
	ctx.Step(`^the detection note is "([^"]*)"$`, tc.theDetectionNoteIs)
	ctx.Step(`^the turnover is (\d+(?:\.\d+)?) across (\d+) orders$`, tc.theTurnoverIsAcrossOrders)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"lifecycle.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
