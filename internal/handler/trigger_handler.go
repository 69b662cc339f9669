/*
Package handler provides the HTTP handlers and routing setup for the ShopStream realtime server.

This file contains the administrative trigger endpoints. The surrounding CRUD
backend calls these after a state mutation commits; they exist on the HTTP
surface so operators can also fire events manually for testing.
*/
package handler

import (
	"net/http"

	"shopstream/internal/app/realtime"
	"shopstream/internal/app/store"
	"shopstream/internal/pkg/req"
	"shopstream/internal/pkg/resp"
)

// HandleTriggerProduct fires a product update into the broadcast system.
func HandleTriggerProduct(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var product store.Product
		if bindErr := req.BindJSON(w, r, &product); bindErr != nil {
			resp.RespondError(w, r, bindErr)
			return
		}

		deps.Broadcaster.TriggerProductUpdate(product)

		resp.RespondSuccess(w, r, map[string]string{"triggered": "product-update"})
	}
}

// HandleTriggerOrder fires an order update into the broadcast system.
func HandleTriggerOrder(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var order store.Order
		if bindErr := req.BindJSON(w, r, &order); bindErr != nil {
			resp.RespondError(w, r, bindErr)
			return
		}

		deps.Broadcaster.TriggerOrderUpdate(order)

		resp.RespondSuccess(w, r, map[string]string{"triggered": "order-update"})
	}
}

// HandleTriggerUser fires a user update into the broadcast system.
func HandleTriggerUser(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var user realtime.UserPayload
		if bindErr := req.BindJSON(w, r, &user); bindErr != nil {
			resp.RespondError(w, r, bindErr)
			return
		}

		deps.Broadcaster.TriggerUserUpdate(user)

		resp.RespondSuccess(w, r, map[string]string{"triggered": "user-update"})
	}
}

// HandleTriggerAlert fires a system alert to the admin room.
func HandleTriggerAlert(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var alert realtime.AlertPayload
		if bindErr := req.BindJSON(w, r, &alert); bindErr != nil {
			resp.RespondError(w, r, bindErr)
			return
		}

		deps.Broadcaster.TriggerSystemAlert(alert)

		resp.RespondSuccess(w, r, map[string]string{"triggered": "system-alert"})
	}
}

// HandleSendNotification pushes a targeted notification onto a user's private channel.
func HandleSendNotification(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID  string `json:"userId"`
			Level   string `json:"level"`
			Message string `json:"message"`
		}
		if bindErr := req.BindJSON(w, r, &body); bindErr != nil {
			resp.RespondError(w, r, bindErr)
			return
		}

		deps.Broadcaster.SendNotification(body.UserID, realtime.NotificationPayload{
			Level:   body.Level,
			Message: body.Message,
		})

		resp.RespondSuccess(w, r, map[string]string{"triggered": "notification"})
	}
}
