// Package api exposes the order and catalog operations over HTTP.
// Transport concerns only: decoding, actor extraction, and translating
// error kinds into status codes. All business rules live below.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dkim-labs/shopcore/internal/catalog"
	"github.com/dkim-labs/shopcore/internal/order"
	"github.com/dkim-labs/shopcore/internal/storage"
	"github.com/dkim-labs/shopcore/pkg/types"
)

// Handler handles HTTP requests for the shop
type Handler struct {
	workflow *order.Workflow
	query    *order.Query
	catalog  *catalog.Service
	store    storage.Store
	logger   *slog.Logger
}

// NewHandler creates the HTTP handler
func NewHandler(workflow *order.Workflow, query *order.Query, cat *catalog.Service, store storage.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		workflow: workflow,
		query:    query,
		catalog:  cat,
		store:    store,
		logger:   logger,
	}
}

// RegisterRoutes attaches all endpoints to the mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/orders", h.requireActor(h.handleCreateOrder))
	mux.HandleFunc("GET /api/orders", h.requireActor(h.handleListOrders))
	mux.HandleFunc("GET /api/orders/{id}", h.requireActor(h.handleGetOrder))
	mux.HandleFunc("PATCH /api/orders/{id}", h.requireActor(h.handleUpdateOrder))
	mux.HandleFunc("DELETE /api/orders/{id}", h.requireActor(h.handleDeleteOrder))

	mux.HandleFunc("POST /api/products", h.requireActor(h.handleCreateProduct))
	mux.HandleFunc("GET /api/products", h.requireActor(h.handleListProducts))
	mux.HandleFunc("PUT /api/products/{id}/stock", h.requireActor(h.handleSetStock))
	mux.HandleFunc("DELETE /api/products/{id}", h.requireActor(h.handleDeleteProduct))
}

type createOrderRequest struct {
	ProductIDs []int64 `json:"productIds"`
	Quantities []int   `json:"quantities"`
}

type updateOrderRequest struct {
	ProductIDs []int64 `json:"productIds"`
	Quantities []int   `json:"quantities"`
	Status     *string `json:"status"`
}

type orderItemResponse struct {
	ID        int64 `json:"id"`
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type orderResponse struct {
	ID       int64               `json:"id"`
	UserID   int64               `json:"userId"`
	Price    float64             `json:"price"`
	Discount float64             `json:"discount"`
	Status   string              `json:"status"`
	Items    []orderItemResponse `json:"items"`
}

func toOrderResponse(o *storage.Order) orderResponse {
	resp := orderResponse{
		ID:       o.ID,
		UserID:   o.UserID,
		Price:    o.Price,
		Discount: o.Discount,
		Status:   string(o.Status),
		Items:    []orderItemResponse{},
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return resp
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request, actor types.Actor) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.workflow.Create(r.Context(), actor, req.ProductIDs, req.Quantities)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(created))
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request, actor types.Actor) {
	orders, err := h.query.List(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := []orderResponse{}
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request, actor types.Actor) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	o, err := h.query.Get(r.Context(), actor, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleUpdateOrder(w http.ResponseWriter, r *http.Request, actor types.Actor) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.workflow.Update(r.Context(), actor, id, order.UpdatePatch{
		ProductIDs: req.ProductIDs,
		Quantities: req.Quantities,
		Status:     req.Status,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

func (h *Handler) handleDeleteOrder(w http.ResponseWriter, r *http.Request, actor types.Actor) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	if err := h.workflow.Delete(r.Context(), actor, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

type createProductRequest struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type setStockRequest struct {
	Quantity int `json:"quantity"`
}

type productResponse struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
	SaleStatus string  `json:"saleStatus"`
}

func toProductResponse(p *storage.Product) productResponse {
	return productResponse{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price,
		Quantity:   p.Quantity,
		SaleStatus: string(p.SaleStatus),
	}
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request, actor types.Actor) {
	if !actor.IsAdmin() {
		writeJSONError(w, http.StatusForbidden, "permission denied")
		return
	}
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	product, err := h.catalog.Create(r.Context(), req.Name, req.Price, req.Quantity)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request, actor types.Actor) {
	products, err := h.catalog.List(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := []productResponse{}
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSetStock(w http.ResponseWriter, r *http.Request, actor types.Actor) {
	if !actor.IsAdmin() {
		writeJSONError(w, http.StatusForbidden, "permission denied")
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req setStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	product, err := h.catalog.SetStock(r.Context(), id, req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request, actor types.Actor) {
	if !actor.IsAdmin() {
		writeJSONError(w, http.StatusForbidden, "permission denied")
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
