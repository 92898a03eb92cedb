package inbox

import "github.com/capstone-eventify/notify/internal/model"

// Route is a navigation target resolved from a click-through. Surfaces
// interpret it relative to the platform's web routes.
type Route string

const (
	RouteNone          Route = ""
	RouteTickets       Route = "/tickets"
	RouteEvents        Route = "/events"
	RouteNotifications Route = "/notifications"
)

// resolveRoute picks the navigation target for a notification without
// an explicit action handler: the link wins, then the correlated event,
// then a default by type.
func resolveRoute(n model.Notification) Route {
	if n.Link != "" {
		return Route(n.Link)
	}
	if n.EventID != "" {
		return Route("/events/" + n.EventID)
	}
	switch n.Type {
	case model.TypeTicketConfirmed, model.TypeRefundRequested, model.TypeWaitlistApproved:
		return RouteTickets
	case model.TypeEventDeleted:
		return RouteEvents
	default:
		return RouteNotifications
	}
}
