package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Cheertaboi/storefront-order-service/internal/assets"
	"github.com/Cheertaboi/storefront-order-service/internal/models"
	"github.com/Cheertaboi/storefront-order-service/internal/service"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// AdminHandler serves the staff API. Authentication is applied by the
// router.
type AdminHandler struct {
	catalog  *service.CatalogService
	orders   *service.OrderService
	settings *service.SettingsService
	reports  *service.ReportService
	assets   *assets.Store
}

func NewAdminHandler(
	catalog *service.CatalogService,
	orders *service.OrderService,
	settings *service.SettingsService,
	reports *service.ReportService,
	store *assets.Store,
) *AdminHandler {
	return &AdminHandler{
		catalog:  catalog,
		orders:   orders,
		settings: settings,
		reports:  reports,
		assets:   store,
	}
}

// --- Products ---

// ListProducts handles GET /admin/products?status=&category=&q=
func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := h.catalog.List(r.Context(), models.ProductFilter{
		Status:   models.ProductStatus(q.Get("status")),
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
		Search:   q.Get("q"),
	})
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	writeJSON(w, http.StatusOK, ProductListResponse{Products: products})
}

// CreateProduct handles POST /admin/products
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p models.Product
	if !decodeJSON(w, r, &p) {
		return
	}
	if err := h.checkImages(p.Images); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := h.catalog.Create(r.Context(), &p); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GetProduct handles GET /admin/products/{id}
func (h *AdminHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateProduct handles PUT /admin/products/{id}
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var p models.Product
	if !decodeJSON(w, r, &p) {
		return
	}
	if err := h.checkImages(p.Images); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := h.catalog.Update(r.Context(), chi.URLParam(r, "id"), &p); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ToggleProduct handles POST /admin/products/{id}/toggle
func (h *AdminHandler) ToggleProduct(w http.ResponseWriter, r *http.Request) {
	status, err := h.catalog.ToggleStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusToggleResponse{Status: status})
}

// UploadImage handles POST /admin/uploads (multipart, field "image").
func (h *AdminHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	ref, err := saveUpload(w, r, h.assets, "image")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, UploadResponse{Ref: ref, URL: "/uploads/" + ref})
}

// checkImages accepts absolute URLs and refs of uploaded files.
func (h *AdminHandler) checkImages(images []string) error {
	for _, img := range images {
		if strings.HasPrefix(img, "http://") || strings.HasPrefix(img, "https://") {
			continue
		}
		if !h.assets.Exists(img) {
			return models.Invalid("image %q was not uploaded", img)
		}
	}
	return nil
}

// --- Orders ---

func orderFilter(r *http.Request) (models.OrderFilter, error) {
	limit, err := queryInt(r, "limit", defaultPageSize)
	if err != nil {
		return models.OrderFilter{}, err
	}
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		return models.OrderFilter{}, err
	}
	return models.OrderFilter{
		Status: models.Status(r.URL.Query().Get("status")),
		Search: r.URL.Query().Get("q"),
		Limit:  limit,
		Offset: offset,
	}, nil
}

// ListOrders handles GET /admin/orders?status=&q=&limit=&offset=
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	f, err := orderFilter(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	orders, err := h.orders.List(r.Context(), f)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	writeJSON(w, http.StatusOK, OrderListResponse{Orders: orders, Limit: f.Limit, Offset: f.Offset})
}

// GetOrder handles GET /admin/orders/{id}
func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// OrderHistory handles GET /admin/orders/{id}/history
func (h *AdminHandler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	ctx := r.Context()
	if _, err := h.orders.Get(ctx, id); err != nil {
		writeErr(w, r, err)
		return
	}
	entries, err := h.orders.History(ctx, id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntryResponse{
			From:    e.From,
			To:      e.To,
			Note:    e.Note,
			Actor:   e.Actor,
			TraceID: e.TraceID,
			At:      e.At,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// VerifyPayment handles POST /admin/orders/{id}/verify
func (h *AdminHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var req VerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := h.orders.VerifyPayment(r.Context(), id, req.Decision, req.Reason)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// AdvanceStatus handles POST /admin/orders/{id}/status
func (h *AdminHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var req StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := h.orders.AdvanceStatus(r.Context(), id, req.Status, req.Note)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// ExportOrders handles GET /admin/orders/export.csv?status=&q=
func (h *AdminHandler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	f := models.OrderFilter{
		Status: models.Status(r.URL.Query().Get("status")),
		Search: r.URL.Query().Get("q"),
	}
	if f.Status != "" && !f.Status.Valid() {
		writeErr(w, r, models.Invalid("unknown status %q", f.Status))
		return
	}
	writeCSV(w, r, "orders.csv", func(ctx context.Context, out io.Writer) error {
		return h.reports.WriteOrdersCSV(ctx, out, f)
	})
}

// --- Customers ---

// ListCustomers handles GET /admin/customers
func (h *AdminHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.reports.Customers(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

// ExportCustomers handles GET /admin/customers/export.csv
func (h *AdminHandler) ExportCustomers(w http.ResponseWriter, r *http.Request) {
	writeCSV(w, r, "customers.csv", h.reports.WriteCustomersCSV)
}

// writeCSV renders into a buffer first so a failure still gets a JSON error.
func writeCSV(w http.ResponseWriter, r *http.Request, filename string, render func(context.Context, io.Writer) error) {
	var buf bytes.Buffer
	if err := render(r.Context(), &buf); err != nil {
		writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// --- Settings ---

// GetSettings handles GET /admin/settings
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.settings.Get(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// SaveSettings handles PUT /admin/settings
func (h *AdminHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var st models.Settings
	if !decodeJSON(w, r, &st) {
		return
	}
	if err := h.settings.Save(r.Context(), &st); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// SaveShipping handles PUT /admin/settings/shipping
func (h *AdminHandler) SaveShipping(w http.ResponseWriter, r *http.Request) {
	var req ShippingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := h.settings.SaveShipping(r.Context(), req.Methods, req.FreeShippingThreshold)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
