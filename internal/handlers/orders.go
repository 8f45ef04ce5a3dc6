package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/aquaruse/laundrygo/internal/alerts"
	"github.com/aquaruse/laundrygo/internal/cache"
	"github.com/aquaruse/laundrygo/internal/models"
	"github.com/aquaruse/laundrygo/internal/notify"
	"github.com/gorilla/mux"
)

// orderRequest is the order-submission payload from the UI
type orderRequest struct {
	CustomerName   string  `json:"customer_name"`
	CustomerNumber string  `json:"number"`
	ServiceType    string  `json:"service_type"`
	LoadCount      int     `json:"kg"`
	AmountPaid     float64 `json:"amount_paid"`
	Balance        float64 `json:"balance"`
}

// listOrders returns the cached order collection
func (r *Router) listOrders(w http.ResponseWriter, req *http.Request) {
	respondData(w, http.StatusOK, r.cache.Orders())
}

// createOrder runs the full submission flow: sufficiency check, remote write
// (or offline enqueue), cache mutation, supply consumption, stock alerts.
func (r *Router) createOrder(w http.ResponseWriter, req *http.Request) {
	var payload orderRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	if strings.TrimSpace(payload.CustomerName) == "" {
		respondError(w, http.StatusBadRequest, "Customer name is required")
		return
	}
	if payload.LoadCount <= 0 {
		respondError(w, http.StatusBadRequest, "Please enter a valid load count")
		return
	}
	if payload.AmountPaid < 0 {
		respondError(w, http.StatusBadRequest, "Please enter a valid amount paid")
		return
	}

	serviceType := models.ServiceType(payload.ServiceType)
	if check := r.engine.CheckSufficiency(serviceType, payload.LoadCount); !check.Sufficient {
		respondJSON(w, http.StatusConflict, map[string]interface{}{
			"success":   false,
			"error":     "Insufficient supplies",
			"shortages": check.Shortages,
		})
		return
	}

	balance := payload.Balance
	if balance < 0 {
		balance = 0
	}
	order := models.Order{
		OrderID:        r.cache.ReserveOrderID(),
		CustomerName:   payload.CustomerName,
		CustomerNumber: payload.CustomerNumber,
		DateIssued:     time.Now().Format("2006-01-02"),
		ServiceType:    serviceType,
		LoadCount:      float64(payload.LoadCount),
		TotalAmount:    payload.AmountPaid + balance,
		AmountPaid:     payload.AmountPaid,
		Balance:        balance,
		Status:         models.OrderStatusPending,
	}

	result, err := r.gateway.Write(req.Context(), http.MethodPost, "add_order", order)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := r.cache.AddOrder(order); err != nil {
		log.Printf("⚠️  Order %s applied in memory but not persisted: %v", order.OrderID, err)
	}

	outcome, ok := r.engine.Consume(serviceType, payload.LoadCount)
	if !ok {
		// The earlier check passed but a concurrent submission consumed the
		// stock first; the order stands, the shortage surfaces as an alert.
		r.hub.Broadcast(alerts.NewEvent("stock_out", "Stock Alert",
			fmt.Sprintf("Supplies ran out while processing order #%s", order.OrderID)))
	} else {
		r.emitStockAlerts(notify.Classification{Low: outcome.Low, Out: outcome.Out})
	}

	message := "Order added successfully"
	if result.Deferred {
		message = "Order saved offline. Will sync when online."
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    order,
		"message": message,
	})
}

// updateOrder applies a typed partial update from the edit flow
func (r *Router) updateOrder(w http.ResponseWriter, req *http.Request) {
	orderID := mux.Vars(req)["id"]

	var patch models.OrderPatch
	if err := json.NewDecoder(req.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	updated, err := r.cache.UpdateOrder(orderID, patch)
	if errors.Is(err, cache.ErrInvalidPayment) {
		respondError(w, http.StatusBadRequest, "Invalid payment amount")
		return
	}
	if err != nil {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}

	if _, err := r.gateway.Write(req.Context(), http.MethodPut, "update_order", updated); err != nil {
		log.Printf("⚠️  Could not push order update %s: %v", orderID, err)
	}

	respondData(w, http.StatusOK, updated)
}

// emitStockAlerts runs classification results through the throttle and
// broadcasts whatever is allowed to surface.
func (r *Router) emitStockAlerts(c notify.Classification) {
	if c.Empty() {
		return
	}

	signature := notify.Signature(c)
	if !r.throttle.ShouldNotify(signature) {
		return
	}

	if msg := notify.OutMessage(c); msg != "" {
		r.hub.Broadcast(alerts.NewEvent("stock_out", "Critical Stock Alert", msg))
	}
	if msg := notify.LowMessage(c); msg != "" {
		r.hub.Broadcast(alerts.NewEvent("stock_low", "Low Stock Alert", msg))
	}
	r.throttle.RecordNotified(signature, time.Now())
}
