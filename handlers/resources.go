package handlers

import (
	"fmt"
	"net/http"

	"github.com/upb/hotel-booking-api/utils"
)

// Resources served under /api/v1 whose CRUD handlers live outside this service
var Resources = []string{"users", "hotels", "cities", "bookings", "reviews", "images"}

// NotImplementedHandler answers 501 for a resource operation
func NotImplementedHandler(resource, operation string) http.HandlerFunc {
	msg := fmt.Sprintf("%s %s endpoint not yet implemented", operation, resource)
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotImplemented(w, msg)
	}
}
