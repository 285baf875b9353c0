package service

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

func TestReportCustomers(t *testing.T) {
	f := newFixture(t)
	reports := NewReportService(f.store)

	first, err := f.orders.CreateOrder(f.ctx, checkout("", f.line(t, skuBlueM, 1)))
	require.NoError(t, err)

	second := checkout("", f.line(t, skuBlueM, 2))
	second.Customer.Phone = "8801711000000"
	second.Customer.Email = ""
	_, err = f.orders.CreateOrder(f.ctx, second)
	require.NoError(t, err)

	other := checkout("", f.line(t, skuBlackL, 1))
	other.Customer = models.Customer{Name: "Karim", Phone: "01999-123456"}
	_, err = f.orders.CreateOrder(f.ctx, other)
	require.NoError(t, err)

	_, err = f.orders.AdvanceStatus(f.ctx, first.OrderID, models.StatusCanceled, "")
	require.NoError(t, err)

	customers, err := reports.Customers(f.ctx)
	require.NoError(t, err)
	require.Len(t, customers, 2)

	assert.Equal(t, "Karim", customers[0].Name)
	assert.Equal(t, 1, customers[0].OrderCount)
	assert.Equal(t, "750", customers[0].TotalSpent.String())

	rahim := customers[1]
	assert.Equal(t, "Rahim Uddin", rahim.Name)
	assert.Equal(t, 2, rahim.OrderCount)
	// The canceled first order is excluded.
	assert.Equal(t, "1000", rahim.TotalSpent.String())
	assert.Equal(t, "rahim@example.com", rahim.Email)
}

func TestWriteOrdersCSV(t *testing.T) {
	f := newFixture(t)
	reports := NewReportService(f.store)

	for i := 0; i < 3; i++ {
		_, err := f.orders.CreateOrder(f.ctx, checkout("", f.line(t, skuBlueM, 1)))
		require.NoError(t, err)
	}
	_, err := f.orders.VerifyPayment(f.ctx, 2, models.DecisionAccept, "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, reports.WriteOrdersCSV(f.ctx, &buf, models.OrderFilter{}))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, orderCSVHeader, rows[0])
	assert.Equal(t, "550.00", rows[1][10])
	assert.Equal(t, skuBlueM+" x1", rows[1][6])

	buf.Reset()
	require.NoError(t, reports.WriteOrdersCSV(f.ctx, &buf, models.OrderFilter{Status: models.StatusVerified}))
	rows, err = csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2", rows[1][0])
	assert.Equal(t, "true", rows[1][14])

	buf.Reset()
	require.NoError(t, reports.WriteCustomersCSV(f.ctx, &buf))
	rows, err = csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "3", rows[1][3])
	assert.Equal(t, "1650.00", rows[1][4])
}
