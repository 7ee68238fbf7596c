package snapshot

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"github.com/bdhxxnix/auto-repair/internal/garage/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoDocument(t *testing.T) Document {
	t.Helper()
	alice := entity.Customer{ID: "C001", Name: "Alice", Phone: "1380000", Level: entity.CustomerLevelVIP}
	car := entity.Vehicle{VIN: "VIN123", Plate: "渝A88888", Brand: "Toyota", Model: "Corolla", Year: 2020, OwnerID: "C001"}
	bob := entity.NewTechnician("E100", "Bob", 120)
	eve := entity.NewServiceAdvisor("E200", "Eve", 500)

	wo1 := entity.NewWorkOrder("WO0001", car, alice, eve)
	require.NoError(t, wo1.Assign(&bob))
	require.NoError(t, wo1.Cancel())
	wo2 := entity.NewWorkOrder("WO0002", car, alice, eve)
	require.NoError(t, wo2.Assign(&bob))

	// 技师主数据中的分配列表故意留空，由快照重建
	bob.AssignedOrders = nil
	return Build(
		[]entity.Customer{alice},
		[]entity.Vehicle{car},
		[]entity.Employee{bob, eve},
		[]entity.Part{{ID: "P001", Name: "Engine Oil", UnitPrice: 50, Stock: 5, ReorderPoint: 3}},
		[]entity.WorkOrder{*wo1, *wo2},
	)
}

func TestBuild_SplitsEmployeesAndRebuildsAssignments(t *testing.T) {
	doc := demoDocument(t)

	require.Len(t, doc.Technicians, 1)
	require.Len(t, doc.Staff, 1)
	assert.Equal(t, "E200", doc.Staff[0].ID)
	assert.Equal(t, []string{"WO0001", "WO0002"}, doc.Technicians[0].AssignedOrders)
	assert.Len(t, doc.Employees(), 2)
}

func TestEncode_UsesArchiveKeys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, demoDocument(t)))

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	for _, key := range []string{"customers", "vehicles", "technicians", "parts", "workOrders"} {
		assert.Contains(t, raw, key)
	}
}

func TestEncodeDecode_RoundTripKeepsOrders(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, demoDocument(t)))

	doc, err := Decode(&buf)
	require.NoError(t, err)
	require.Len(t, doc.WorkOrders, 2)
	assert.Equal(t, entity.WOStatusCancelled, doc.WorkOrders[0].Status)
	assert.Equal(t, entity.WOStatusAssigned, doc.WorkOrders[1].Status)
	assert.Equal(t, "E100", doc.WorkOrders[1].Tech.ID)
	assert.Equal(t, []string{"WO0001", "WO0002"}, doc.Technicians[0].AssignedOrders)
}

func TestDecode_EmptyDocument(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.Empty(t, doc.WorkOrders)
	assert.Empty(t, doc.Technicians)
}

func TestDecode_DefaultsMissingStatusAndPricing(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{"workOrders":[{"id":"WO0009","vehicle":{"vin":"X"}}]}`))
	require.NoError(t, err)
	require.Len(t, doc.WorkOrders, 1)
	assert.Equal(t, entity.WOStatusDraft, doc.WorkOrders[0].Status)
	assert.Equal(t, entity.StandardPricing(), doc.WorkOrders[0].Pricing)
}

func TestDecode_NormalizesLegacyStatusAndPricing(t *testing.T) {
	body := `{"workOrders":[
		{"id":"WO1","status":"Paid","pricing":"Member","items":[{"service":{"id":"S1","base_price":100},"labor_override":-1}]},
		{"id":"WO2","status":"InProgress","pricing":"Campaign"},
		{"id":"WO3","status":"Cancelled","pricing":{"kind":"Normal","rate":0}}
	]}`
	doc, err := Decode(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, doc.WorkOrders, 3)

	paid := doc.WorkOrders[0]
	assert.Equal(t, entity.WOStatusPaid, paid.Status)
	assert.True(t, paid.Status.IsTerminal())
	assert.Equal(t, entity.MemberDiscount(entity.DefaultMemberRate), paid.Pricing)
	assert.ErrorIs(t, paid.Cancel(), entity.ErrInvalidTransition)
	assert.InDelta(t, 90.0, report.ComputeTurnover(doc.WorkOrders).Total, 1e-9)

	assert.Equal(t, entity.WOStatusInProgress, doc.WorkOrders[1].Status)
	assert.Equal(t, entity.Promotional(entity.DefaultPromotionRate), doc.WorkOrders[1].Pricing)
	assert.Equal(t, entity.StandardPricing(), doc.WorkOrders[2].Pricing)
}

func TestValidate_RejectsUnknownStatus(t *testing.T) {
	doc := demoDocument(t)
	doc.WorkOrders[0].Status = "Paid"
	assert.ErrorIs(t, doc.Validate(), entity.ErrConfiguration)
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"customers":`},
		{"unknown owner", `{"vehicles":[{"vin":"V1","owner_id":"C404"}]}`},
		{"negative stock", `{"parts":[{"id":"P1","stock":-1}]}`},
		{"duplicate order", `{"workOrders":[{"id":"WO1"},{"id":"WO1"}]}`},
		{"bad role", `{"technicians":[{"id":"E1","role":"JANITOR"}]}`},
		{"unknown status", `{"workOrders":[{"id":"WO1","status":"Settled"}]}`},
		{"unknown pricing", `{"workOrders":[{"id":"WO1","pricing":"Free"}]}`},
		{"negative rate", `{"workOrders":[{"id":"WO1","pricing":{"kind":"Member","rate":-1}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.body))
			assert.ErrorIs(t, err, entity.ErrConfiguration)
		})
	}
}
